package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/weiluo/roamstory/pkg/errors"
)

func TestService_RegisterLoginAndRefresh(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, repo, newTestLogger())

	view, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "Traveler@Example.com",
		Password: "pass1234",
		Nickname: "漫游者_01",
	})
	require.NoError(t, err)
	require.Equal(t, "traveler@example.com", view.Email)
	require.Equal(t, "漫游者_01", view.Nickname)
	require.NotZero(t, view.ID)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "traveler@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, view.Email, resp.User.Email)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, view.ID, claims.UserID)
	require.Equal(t, view.Email, claims.Email)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)

	refreshed, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, resp.User.Email, refreshed.User.Email)
	require.Equal(t, "漫游者_01", refreshed.User.Nickname)
}

func TestService_DuplicateEmail(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "traveler@example.com",
		Password: "pass1234",
		Nickname: "NickOne",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:    "traveler@example.com",
		Password: "pass12345",
		Nickname: "NickTwo",
	})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "email_exists"))
}

func TestService_InvalidInput(t *testing.T) {
	svc := newTestService(newStubRepo())

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "pass1234", Nickname: "Nick"}},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short", Nickname: "Nick"}},
		{"empty nickname", RegisterRequest{Email: "a@example.com", Password: "pass1234", Nickname: "   "}},
		{"nickname symbols", RegisterRequest{Email: "a@example.com", Password: "pass1234", Nickname: "nick!@#"}},
		{"nickname too long", RegisterRequest{Email: "a@example.com", Password: "pass1234", Nickname: "averyveryverylongnickname"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, "invalid_input"))
		})
	}
}

func TestService_WrongPassword(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "traveler@example.com",
		Password: "pass1234",
		Nickname: "Nick",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "traveler@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_credentials"))
}

func TestService_TokenTypeMismatch(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "traveler@example.com",
		Password: "pass1234",
		Nickname: "Nick",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "traveler@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), resp.RefreshToken)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_token"))

	_, err = svc.Refresh(context.Background(), resp.Token)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestService_ExpiredToken(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(Config{
		Secret:          "test-secret",
		TokenTTL:        -time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}, repo, newTestLogger())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "traveler@example.com",
		Password: "pass1234",
		Nickname: "Nick",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "traveler@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), resp.Token)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestService_GoogleAuthURLDisabled(t *testing.T) {
	svc := newTestService(newStubRepo())

	_, err := svc.GoogleAuthURL(context.Background(), "state", "challenge")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "oauth_disabled"))
}

func TestService_GoogleAuthURLShape(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Google: GoogleConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "https://app.example.com/callback",
		},
	}, repo, newTestLogger())

	url, err := svc.GoogleAuthURL(context.Background(), "state-token", "challenge-token")
	require.NoError(t, err)
	require.Contains(t, url, "client_id=client-id")
	require.Contains(t, url, "state=state-token")
	require.Contains(t, url, "code_challenge=challenge-token")
	require.Contains(t, url, "code_challenge_method=S256")
	require.Contains(t, url, "access_type=offline")
}

func TestTokenCryptoRoundTrip(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef"

	sealed, err := encryptToken(key, "refresh-token-value")
	require.NoError(t, err)
	require.NotEqual(t, "refresh-token-value", sealed)

	opened, err := decryptToken(key, sealed)
	require.NoError(t, err)
	require.Equal(t, "refresh-token-value", opened)

	empty, err := encryptToken(key, "")
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = encryptToken("short-key", "value")
	require.Error(t, err)
}

func newTestService(repo Repository) Service {
	return NewService(Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, repo, newTestLogger())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubRepo struct {
	users      map[int64]User
	identities map[string]Identity
	seq        int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:      make(map[int64]User),
		identities: make(map[string]Identity),
	}
}

func (m *stubRepo) Create(_ context.Context, email, nickname, passwordHash string) (User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return User{}, ErrEmailExists
		}
	}
	m.seq++
	user := User{
		ID:           m.seq,
		Email:        email,
		Nickname:     nickname,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *stubRepo) GetByEmail(_ context.Context, email string) (User, bool, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return User{}, false, nil
}

func (m *stubRepo) GetByID(_ context.Context, id int64) (User, bool, error) {
	user, ok := m.users[id]
	return user, ok, nil
}

func (m *stubRepo) GetIdentity(_ context.Context, provider, providerSubject string) (Identity, bool, error) {
	identity, ok := m.identities[provider+"/"+providerSubject]
	return identity, ok, nil
}

func (m *stubRepo) UpsertIdentity(_ context.Context, identity Identity) (Identity, error) {
	m.seq++
	identity.ID = m.seq
	m.identities[identity.Provider+"/"+identity.ProviderSubject] = identity
	return identity, nil
}
