package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-notes-api/internal/domain"
	"github.com/go-notes-api/internal/infrastructure/google"
	"github.com/go-notes-api/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, email string, updates map[string]interface{}) error {
	return m.Called(ctx, email, updates).Error(0)
}

type mockIssuer struct{ mock.Mock }

func (m *mockIssuer) Sign(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

type mockGoogleVerifier struct{ mock.Mock }

func (m *mockGoogleVerifier) Verify(ctx context.Context, token string) (*google.Payload, error) {
	args := m.Called(ctx, token)
	if p, _ := args.Get(0).(*google.Payload); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func newService(us *mockUserStore, issuer *mockIssuer, gv *mockGoogleVerifier) Service {
	deps := ServiceDeps{
		UserRepo: us,
		Hasher:   password.NewHasher(bcrypt.MinCost),
		Issuer:   issuer,
	}
	if gv != nil {
		deps.Google = gv
	}
	return NewService(deps)
}

func notFound(what string) error {
	return fmt.Errorf("%s not found: %w", what, domain.ErrNotFound)
}

// --- Register tests ---

func TestRegister_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, notFound("user"))
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	issuer := &mockIssuer{}
	issuer.On("Sign", mock.AnythingOfType("string")).Return("signed-token", nil)

	svc := newService(us, issuer, nil)
	result, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret-password",
	})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", result.Token)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.NotEmpty(t, result.User.UserID)
	// The stored value must be a digest, never the plaintext.
	assert.NotEqual(t, "secret-password", result.User.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte("secret-password")))
	us.AssertExpectations(t)
	issuer.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{Email: "alice@example.com"}, nil)

	svc := newService(us, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "alice@example.com",
		Password: "whatever",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// The pre-check can miss a concurrent registration; the store's conditional
// insert must still surface the same conflict.
func TestRegister_InsertRace_MapsToConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, notFound("user"))
	us.On("Put", mock.Anything, mock.Anything).Return(fmt.Errorf("email already registered: %w", domain.ErrConflict))

	svc := newService(us, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "alice@example.com",
		Password: "whatever",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegister_StoreFailurePropagates(t *testing.T) {
	us := &mockUserStore{}
	storeErr := errors.New("dynamo unavailable")
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, storeErr)

	svc := newService(us, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "alice@example.com",
		Password: "whatever",
	})

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrConflict))
	assert.False(t, errors.Is(err, domain.ErrInvalidCredentials))
}

// --- Login tests ---

func registeredUser(t *testing.T, email, plaintext string) *domain.User {
	t.Helper()
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{UserID: "u1", Email: email, PasswordHash: string(digest)}
}

func TestLogin_HappyPath(t *testing.T) {
	u := registeredUser(t, "alice@example.com", "secret1")
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	issuer := &mockIssuer{}
	issuer.On("Sign", "u1").Return("signed-token", nil)

	svc := newService(us, issuer, nil)
	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret1",
	})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", result.Token)
	assert.Equal(t, "u1", result.User.UserID)
}

func TestLogin_UnknownEmailAndWrongPassword_Indistinguishable(t *testing.T) {
	u := registeredUser(t, "alice@example.com", "secret1")
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	us.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, notFound("user"))

	svc := newService(us, nil, nil)

	_, wrongPassErr := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	_, unknownErr := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "anything",
	})

	require.Error(t, wrongPassErr)
	require.Error(t, unknownErr)
	// Identical outcome and message: no user-enumeration signal.
	assert.Equal(t, wrongPassErr, unknownErr)
	assert.True(t, errors.Is(wrongPassErr, domain.ErrInvalidCredentials))
}

func TestLogin_MalformedStoredDigest_ReadsAsInvalidCredentials(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID: "u1", Email: "alice@example.com", PasswordHash: "corrupted",
	}, nil)

	svc := newService(us, nil, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestLogin_RepeatedLogins_IssueFreshTokens(t *testing.T) {
	u := registeredUser(t, "alice@example.com", "secret1")
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	issuer := &mockIssuer{}
	issuer.On("Sign", "u1").Return("token-a", nil).Once()
	issuer.On("Sign", "u1").Return("token-b", nil).Once()

	svc := newService(us, issuer, nil)
	req := domain.LoginRequest{Email: "alice@example.com", Password: "secret1"}

	r1, err := svc.Login(context.Background(), req)
	require.NoError(t, err)
	r2, err := svc.Login(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, r1.Token, r2.Token)
	assert.Equal(t, r1.User.UserID, r2.User.UserID)
}

// --- Me tests ---

func TestMe_ReturnsProfile(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByID", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", Email: "alice@example.com",
	}, nil)

	svc := newService(us, nil, nil)
	u, err := svc.Me(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
}

func TestMe_UnknownID(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByID", mock.Anything, "ghost").Return(nil, notFound("user"))

	svc := newService(us, nil, nil)
	_, err := svc.Me(context.Background(), "ghost")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Google sign-in tests ---

func TestLoginWithGoogle_NotConfigured(t *testing.T) {
	svc := newService(&mockUserStore{}, nil, nil)
	_, err := svc.LoginWithGoogle(context.Background(), "some-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLoginWithGoogle_FirstSight_CreatesAccount(t *testing.T) {
	gv := &mockGoogleVerifier{}
	gv.On("Verify", mock.Anything, "id-token").Return(&google.Payload{
		Sub: "sub-1", Email: "alice@example.com", EmailVerified: true,
	}, nil)
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, notFound("user"))
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	issuer := &mockIssuer{}
	issuer.On("Sign", mock.AnythingOfType("string")).Return("signed-token", nil)

	svc := newService(us, issuer, gv)
	result, err := svc.LoginWithGoogle(context.Background(), "id-token")

	require.NoError(t, err)
	assert.Equal(t, "google", result.User.AuthProvider)
	assert.Equal(t, "sub-1", result.User.GoogleSub)
	us.AssertExpectations(t)
}

func TestLoginWithGoogle_ExistingAccount_RecordsSignIn(t *testing.T) {
	gv := &mockGoogleVerifier{}
	gv.On("Verify", mock.Anything, "id-token").Return(&google.Payload{
		Sub: "sub-1", Email: "alice@example.com", EmailVerified: true,
	}, nil)
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID: "u1", Email: "alice@example.com", AuthProvider: "google", GoogleSub: "sub-1",
	}, nil)
	us.On("Update", mock.Anything, "alice@example.com", mock.MatchedBy(func(m map[string]interface{}) bool {
		_, hasStamp := m["updated_at"]
		_, hasSub := m["google_sub"]
		return hasStamp && !hasSub
	})).Return(nil)
	issuer := &mockIssuer{}
	issuer.On("Sign", "u1").Return("signed-token", nil)

	svc := newService(us, issuer, gv)
	_, err := svc.LoginWithGoogle(context.Background(), "id-token")

	require.NoError(t, err)
	us.AssertExpectations(t)
}

// A local account signing in through Google for the first time gets the
// subject linked; a failing write never blocks the login itself.
func TestLoginWithGoogle_LinksLocalAccount(t *testing.T) {
	gv := &mockGoogleVerifier{}
	gv.On("Verify", mock.Anything, "id-token").Return(&google.Payload{
		Sub: "sub-1", Email: "alice@example.com", EmailVerified: true,
	}, nil)
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID: "u1", Email: "alice@example.com", AuthProvider: "local",
	}, nil)
	us.On("Update", mock.Anything, "alice@example.com", mock.MatchedBy(func(m map[string]interface{}) bool {
		return m["google_sub"] == "sub-1"
	})).Return(errors.New("dynamo unavailable"))
	issuer := &mockIssuer{}
	issuer.On("Sign", "u1").Return("signed-token", nil)

	svc := newService(us, issuer, gv)
	result, err := svc.LoginWithGoogle(context.Background(), "id-token")

	require.NoError(t, err)
	assert.Equal(t, "sub-1", result.User.GoogleSub)
	us.AssertExpectations(t)
}

func TestLoginWithGoogle_UnverifiedEmailRejected(t *testing.T) {
	gv := &mockGoogleVerifier{}
	gv.On("Verify", mock.Anything, "id-token").Return(&google.Payload{
		Sub: "sub-1", Email: "alice@example.com", EmailVerified: false,
	}, nil)

	svc := newService(&mockUserStore{}, nil, gv)
	_, err := svc.LoginWithGoogle(context.Background(), "id-token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
