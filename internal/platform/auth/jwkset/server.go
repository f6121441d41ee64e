package jwkset

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
)

// NewRotatingServer serves a JWKS document whose keys can be replaced at
// runtime with the returned setter.
func NewRotatingServer() (*httptest.Server, func(keys ...Keypair)) {
	var doc atomic.Value
	doc.Store([]byte(`{"keys":[]}`))

	setKeys := func(keys ...Keypair) {
		b, err := Marshal(keys...)
		if err != nil {
			panic(err)
		}
		doc.Store(b)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc.Load().([]byte))
	}))
	return srv, setKeys
}
