package savedsync

import "go.uber.org/zap"

// Notice is a blocking message for the user. As an error it carries the
// underlying cause.
type Notice struct {
	Message string
	Err     error
}

func (n *Notice) Error() string { return n.Message }

func (n *Notice) Unwrap() error { return n.Err }

// Notifier presents notices to the user.
type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type logNotifier struct {
	log *zap.SugaredLogger
}

func (l logNotifier) Notify(n Notice) {
	l.log.Infow("user notice", "message", n.Message)
}
