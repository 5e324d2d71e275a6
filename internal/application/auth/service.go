package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-notes-api/internal/domain"
	"github.com/go-notes-api/internal/infrastructure/google"
	"github.com/go-notes-api/internal/infrastructure/smtp"
	"github.com/go-notes-api/internal/infrastructure/sns"
	"github.com/go-notes-api/internal/pkg/id"
)

// Result is what a successful registration or login returns: the session
// token plus the identity's public fields. The password hash never leaves
// the service.
type Result struct {
	Token string
	User  *domain.User
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*Result, error)
	Login(ctx context.Context, req domain.LoginRequest) (*Result, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*Result, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, email string, updates map[string]interface{}) error
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type tokenIssuer interface {
	Sign(userID string) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type service struct {
	userRepo userStore
	hasher   passwordHasher
	issuer   tokenIssuer
	google   googleVerifier
	events   sns.EventPublisher
	mailer   smtp.Mailer
}

type ServiceDeps struct {
	UserRepo userStore
	Hasher   passwordHasher
	Issuer   tokenIssuer
	Google   googleVerifier     // nil when Google sign-in is not configured
	Events   sns.EventPublisher // nil when no topic is configured
	Mailer   smtp.Mailer        // nil when SMTP is not configured
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo: deps.UserRepo,
		hasher:   deps.Hasher,
		issuer:   deps.Issuer,
		google:   deps.Google,
		events:   deps.Events,
		mailer:   deps.Mailer,
	}
}

// Register creates a new identity and issues a session token.
//
// The existence pre-check is a fast path only; the store's conditional
// insert is what actually guarantees email uniqueness, so a concurrent
// registration of the same email loses there and maps to the same conflict.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*Result, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		PasswordHash: hash,
		AuthProvider: "local",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Put(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.issuer.Sign(u.UserID)
	if err != nil {
		return nil, err
	}

	s.announceRegistration(u)

	return &Result{Token: token, User: u}, nil
}

// Login verifies credentials and issues a fresh token. Unknown email and
// wrong password are indistinguishable to the caller: both return
// domain.ErrInvalidCredentials and nothing else.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*Result, error) {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(req.Password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issuer.Sign(u.UserID)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: u}, nil
}

// Me resolves the profile for a verified token's user id.
func (s *service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// LoginWithGoogle verifies a Google ID token and signs the user in,
// creating the account on first sight. Provider accounts get a random
// unusable password hash so password login can never match.
func (s *service) LoginWithGoogle(ctx context.Context, idToken string) (*Result, error) {
	if s.google == nil {
		return nil, fmt.Errorf("google sign-in not configured: %w", domain.ErrUnauthorized)
	}
	payload, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if !payload.EmailVerified {
		return nil, fmt.Errorf("google email not verified: %w", domain.ErrUnauthorized)
	}

	u, err := s.userRepo.GetByEmail(ctx, payload.Email)
	switch {
	case err == nil:
		// Existing account. Allow provider sign-in only for matching accounts.
		if u.AuthProvider == "google" && u.GoogleSub != payload.Sub {
			return nil, fmt.Errorf("google subject mismatch: %w", domain.ErrUnauthorized)
		}
		// Record the sign-in; link the subject the first time a local
		// account comes in through Google. Best effort, never fails the login.
		updates := map[string]interface{}{"updated_at": time.Now().UTC()}
		if u.GoogleSub == "" {
			u.GoogleSub = payload.Sub
			updates["google_sub"] = payload.Sub
		}
		if uErr := s.userRepo.Update(ctx, u.Email, updates); uErr != nil {
			slog.Warn("failed to record google sign-in", "user_id", u.UserID, "err", uErr)
		}
	case errors.Is(err, domain.ErrNotFound):
		hash, hErr := s.hasher.Hash(id.New())
		if hErr != nil {
			return nil, hErr
		}
		now := time.Now().UTC()
		u = &domain.User{
			UserID:       id.New(),
			Email:        payload.Email,
			PasswordHash: hash,
			AuthProvider: "google",
			GoogleSub:    payload.Sub,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.userRepo.Put(ctx, u); err != nil {
			// Lost a race with another first sign-in; re-read the winner.
			if !errors.Is(err, domain.ErrConflict) {
				return nil, err
			}
			if u, err = s.userRepo.GetByEmail(ctx, payload.Email); err != nil {
				return nil, err
			}
		} else {
			s.announceRegistration(u)
		}
	default:
		return nil, err
	}

	token, err := s.issuer.Sign(u.UserID)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: u}, nil
}

// announceRegistration fires the best-effort side effects of a new account:
// an SNS event and a welcome mail. Neither may fail the registration, and
// both run off the request path.
func (s *service) announceRegistration(u *domain.User) {
	if s.events != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.events.PublishUserRegistered(ctx, u.UserID, u.Email); err != nil {
				slog.Warn("failed to publish registration event", "user_id", u.UserID, "err", err)
			}
		}()
	}
	if s.mailer != nil {
		email := u.Email
		go func() {
			if err := s.mailer.SendEmail(email, "Welcome to Notes", "Your account is ready."); err != nil {
				slog.Warn("failed to send welcome email", "err", err)
			}
		}()
	}
}
