package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
)

// AuthService signs users up and logs them in against the users document.
// Credentials are compared as plain text and no session is issued; the
// client keeps the returned identity.
type AuthService struct {
	docs   *database.Documents
	ids    *IDGenerator
	logger zerolog.Logger
}

func NewAuthService(docs *database.Documents, ids *IDGenerator, logger zerolog.Logger) *AuthService {
	return &AuthService{
		docs:   docs,
		ids:    ids,
		logger: logger,
	}
}

// Signup creates a user with no points at level 1.
//
// It returns ErrUserAlreadyExists if the email is taken.
func (s *AuthService) Signup(ctx context.Context, email, password string) (database.PublicUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return database.PublicUser{}, Validation("Email and password are required")
	}

	var created database.User
	err := s.docs.UpdateUsers(ctx, func(users []database.User) ([]database.User, error) {
		for _, u := range users {
			if u.Email == email {
				return nil, ErrUserAlreadyExists
			}
		}
		created = database.User{
			ID:       s.ids.Next(),
			Email:    email,
			Password: password,
			Points:   0,
			Level:    1,
			Badges:   []string{},
		}
		return append(users, created), nil
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			s.logger.Error().
				Err(err).
				Msg("failed to save user")
		}
		return database.PublicUser{}, err
	}

	s.logger.Info().
		Int64("user_id", int64(created.ID)).
		Msg("user signed up")
	return created.Public(), nil
}

// Login returns the user whose email and password both match exactly.
//
// It returns ErrInvalidCredentials otherwise.
func (s *AuthService) Login(ctx context.Context, email, password string) (database.PublicUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return database.PublicUser{}, Validation("Email and password are required")
	}

	users, err := s.docs.Users(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to load users")
		return database.PublicUser{}, err
	}

	for _, u := range users {
		if u.Email == email && u.Password == password {
			s.logger.Debug().
				Int64("user_id", int64(u.ID)).
				Msg("user logged in")
			return u.Public(), nil
		}
	}
	return database.PublicUser{}, ErrInvalidCredentials
}

// Users returns the raw users document for dev inspection.
func (s *AuthService) Users(ctx context.Context) ([]database.User, error) {
	return s.docs.Users(ctx)
}
