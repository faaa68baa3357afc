package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"foldervault/internal/domain/access"
)

type Service struct {
	repo        Repository
	sharesTable string
}

// NewService builds the directory. sharesTable names the sharing entries
// that must go away together with a user.
func NewService(repo Repository, sharesTable string) *Service {
	return &Service{repo: repo, sharesTable: sharesTable}
}

func (s *Service) List(ctx context.Context, caller access.Caller, role string) ([]*User, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, role)
}

// Create is used by provisioning tools; it does not check a caller.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	role, err := access.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	u := &User{Name: in.Name, Email: in.Email, Role: role, CreatedAt: time.Now().UTC()}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Int64("user_id", u.ID).Str("role", string(role)).Msg("user created")
	return u, nil
}

// EnsureUser returns the user with in.Email, creating it when missing.
func (s *Service) EnsureUser(ctx context.Context, in CreateInput) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, in.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	return s.Create(ctx, in)
}

// Delete removes a user together with their sharing entries.
func (s *Service) Delete(ctx context.Context, caller access.Caller, id int64) error {
	if err := access.RequireAdmin(caller); err != nil {
		return err
	}
	if id == caller.UserID {
		return ErrDeleteSelf
	}
	if err := s.repo.Delete(ctx, id, s.sharesTable); err != nil {
		return err
	}
	log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

// Exists implements catalog.UserDirectory.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}
