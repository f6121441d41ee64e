package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	clockport "github.com/tourvisto/travel-planner-api/internal/ports/out/clock"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/identity"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/userrepo"
)

type Service struct {
	repo  userrepo.Repository
	trips triprepo.Repository
	clk   clockport.Clock
	log   *zap.SugaredLogger

	admins map[domain.SubjectID]struct{}

	newUserID func() domain.UserID
}

type Option func(*Service)

// WithAdminSubjects grants the admin role to users provisioned under these subjects.
func WithAdminSubjects(subjects []string) Option {
	return func(s *Service) {
		for _, sub := range subjects {
			if sub = strings.TrimSpace(sub); sub != "" {
				s.admins[domain.SubjectID(sub)] = struct{}{}
			}
		}
	}
}

func WithLogger(l *zap.SugaredLogger) Option { return func(s *Service) { s.log = l } }

func NewService(repo userrepo.Repository, trips triprepo.Repository, clk clockport.Clock, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		trips:  trips,
		clk:    clk,
		admins: map[domain.SubjectID]struct{}{},
		newUserID: func() domain.UserID {
			return domain.UserID(uuid.NewString())
		},
	}
	for _, o := range opts {
		o(s)
	}
	s.log = logging.OrNop(s.log)
	return s
}

// SetNewUserIDForTest overrides user ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewUserIDForTest(fn func() domain.UserID) {
	if fn != nil {
		s.newUserID = fn
	}
}

func (s *Service) GetMe(ctx context.Context, subject domain.SubjectID) (domain.User, error) {
	u, err := s.repo.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, notProvisioned()
		}
		return domain.User{}, err
	}
	return u, nil
}

// ResolveSubject maps an authenticated subject to its user.
// An unprovisioned subject is reported as identity.ErrUnauthenticated.
func (s *Service) ResolveSubject(ctx context.Context, subject domain.SubjectID) (domain.User, error) {
	if subject == "" {
		return domain.User{}, identity.ErrUnauthenticated
	}
	u, err := s.repo.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, identity.ErrUnauthenticated
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *Service) ProvisionMe(ctx context.Context, subject domain.SubjectID, in ProvisionMeInput) (domain.User, error) {
	if _, err := s.repo.GetBySubject(ctx, subject); err == nil {
		return domain.User{}, alreadyExists()
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return domain.User{}, err
	}

	name := domain.NormalizeHumanName(in.Name)
	if name == "" {
		return domain.User{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid name",
			Details: map[string]any{"name": "must be non-empty"},
		}
	}
	email := strings.TrimSpace(in.Email)
	if err := validateEmail(email); err != nil {
		return domain.User{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid email",
			Details: map[string]any{"email": err.Error()},
		}
	}

	role := domain.RoleUser
	if _, ok := s.admins[subject]; ok {
		role = domain.RoleAdmin
	}

	now := s.clk.Now()
	u := domain.User{
		ID:        s.newUserID(),
		Subject:   subject,
		Name:      name,
		Email:     email,
		AvatarURL: trimmedOrNil(in.AvatarURL),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrSubjectAlreadyBound) {
			return domain.User{}, alreadyExists()
		}
		return domain.User{}, err
	}
	s.log.Infow("user provisioned", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *Service) UpdateMe(ctx context.Context, subject domain.SubjectID, in UpdateMeInput) (domain.User, error) {
	u, err := s.repo.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, notProvisioned()
		}
		return domain.User{}, err
	}

	if in.Name.IsSpecified() {
		if in.Name.IsNull() {
			return domain.User{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid name",
				Details: map[string]any{"name": "cannot be null"},
			}
		}
		name := domain.NormalizeHumanName(in.Name.Value())
		if name == "" {
			return domain.User{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid name",
				Details: map[string]any{"name": "must be non-empty"},
			}
		}
		u.Name = name
	}

	if in.Email.IsSpecified() {
		if in.Email.IsNull() {
			return domain.User{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid email",
				Details: map[string]any{"email": "cannot be null"},
			}
		}
		email := strings.TrimSpace(in.Email.Value())
		if err := validateEmail(email); err != nil {
			return domain.User{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid email",
				Details: map[string]any{"email": err.Error()},
			}
		}
		u.Email = email
	}

	if in.AvatarURL.IsSpecified() {
		if in.AvatarURL.IsNull() {
			u.AvatarURL = nil
		} else {
			v := in.AvatarURL.Value()
			u.AvatarURL = trimmedOrNil(&v)
		}
	}

	u.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// ListUsers returns one page of users, latest signups first, each with the
// number of itineraries they created.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) (UserPage, error) {
	us, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.log.Errorw("list users failed", "error", err)
		return UserPage{}, err
	}
	ids := make([]domain.UserID, 0, len(us))
	for _, u := range us {
		ids = append(ids, u.ID)
	}
	counts, err := s.trips.CountByUser(ctx, ids)
	if err != nil {
		s.log.Errorw("count itineraries failed", "error", err)
		return UserPage{}, err
	}
	out := make([]domain.UserSummary, 0, len(us))
	for _, u := range us {
		out = append(out, domain.UserSummary{User: u, ItineraryCount: counts[u.ID]})
	}
	return UserPage{Users: out, Total: total}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}
	// Ensure no "Name <email@x>" format sneaks in.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
