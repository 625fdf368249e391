package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gsharma/indiainfo/internal/config"
	"github.com/gsharma/indiainfo/internal/models"
	apierrors "github.com/gsharma/indiainfo/internal/pkg/errors"
	"github.com/gsharma/indiainfo/internal/repository"
)

// mockUserRepo is a map-backed fake of repository.UserRepository.
type mockUserRepo struct {
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.AuthProvider == "" {
		user.AuthProvider = models.ProviderLocal
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.byEmail[email], nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	user, ok := m.byID[id]
	if !ok {
		return errors.New("user not found")
	}
	user.PasswordHash = &hash
	return nil
}

// mockSessionRepo is a map-backed fake of repository.SessionRepository.
type mockSessionRepo struct {
	sessions map[string]uuid.UUID
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]uuid.UUID)}
}

func (m *mockSessionRepo) Create(ctx context.Context, token string, userID uuid.UUID, expiry time.Duration) error {
	m.sessions[token] = userID
	return nil
}

func (m *mockSessionRepo) Get(ctx context.Context, token string) (uuid.UUID, error) {
	id, ok := m.sessions[token]
	if !ok {
		return uuid.Nil, repository.ErrSessionNotFound
	}
	return id, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

// mockResetRepo is a map-backed fake of repository.ResetTokenRepository.
type mockResetRepo struct {
	tokens map[string]*models.PasswordReset
	sweeps chan struct{}
}

func newMockResetRepo() *mockResetRepo {
	return &mockResetRepo{
		tokens: make(map[string]*models.PasswordReset),
		sweeps: make(chan struct{}, 1),
	}
}

func (m *mockResetRepo) Create(ctx context.Context, reset *models.PasswordReset) error {
	reset.CreatedAt = time.Now()
	m.tokens[reset.Token] = reset
	return nil
}

func (m *mockResetRepo) Get(ctx context.Context, token string) (*models.PasswordReset, error) {
	return m.tokens[token], nil
}

func (m *mockResetRepo) MarkUsed(ctx context.Context, token string) error {
	now := time.Now()
	m.tokens[token].UsedAt = &now
	return nil
}

func (m *mockResetRepo) DeleteExpired(ctx context.Context) (int64, error) {
	select {
	case m.sweeps <- struct{}{}:
	default:
	}
	return 0, nil
}

// mockMailer records sent messages instead of dialing SMTP.
type mockMailer struct {
	to      []string
	subject []string
	body    []string
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.body = append(m.body, body)
	return nil
}

type authFixture struct {
	svc      AuthService
	users    *mockUserRepo
	sessions *mockSessionRepo
	resets   *mockResetRepo
	mailer   *mockMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    newMockUserRepo(),
		sessions: newMockSessionRepo(),
		resets:   newMockResetRepo(),
		mailer:   &mockMailer{},
	}
	f.svc = NewAuthService(
		&config.AuthConfig{BcryptCost: bcrypt.MinCost},
		f.users, f.sessions, f.resets, f.mailer,
	)
	return f
}

func (f *authFixture) seedLocalUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)
	user := &models.User{Email: email, PasswordHash: &hashStr, AuthProvider: models.ProviderLocal}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func TestRegister_CreatesSessionImmediately(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, token, err := f.svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)

	// Signup implies login: the returned token already resolves.
	current, err := f.svc.CurrentUser(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)

	// The stored hash is bcrypt, never the plaintext.
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "s3cret", *user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte("s3cret")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, _, err = f.svc.Register(ctx, "alice2", "alice@example.com", "other")
	require.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.Equal(t, "duplicate_user", apiErr.Code)
	assert.Equal(t, 400, apiErr.StatusCode)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	seeded := f.seedLocalUser(t, "bob@example.com", "hunter2")

	user, token, err := f.svc.Login(ctx, "bob@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
	assert.NotEmpty(t, token)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.Login(context.Background(), "nobody@example.com", "x")
	require.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.Equal(t, "user_not_found", apiErr.Code)
	assert.Equal(t, 400, apiErr.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.seedLocalUser(t, "bob@example.com", "hunter2")

	_, _, err := f.svc.Login(context.Background(), "bob@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "incorrect_password", apierrors.AsAPIError(err).Code)
}

func TestLogin_OAuthAccountRejectedBeforeHashCompare(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// A google account has a nil hash; the provider check must fire before
	// any hash comparison.
	user := &models.User{Email: "carol@example.com", AuthProvider: models.ProviderGoogle}
	require.NoError(t, f.users.Create(ctx, user))

	_, _, err := f.svc.Login(ctx, "carol@example.com", "anything")
	require.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.Equal(t, "wrong_provider", apiErr.Code)
	assert.Equal(t, "Please login with google", apiErr.Message)
}

func TestLogout_Idempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, token, err := f.svc.Register(ctx, "dan", "dan@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, token))

	current, err := f.svc.CurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, current)

	// Second logout of the same token is still fine.
	require.NoError(t, f.svc.Logout(ctx, token))
	require.NoError(t, f.svc.Logout(ctx, ""))
}

func TestCurrentUser_EmptyOrUnknownToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.CurrentUser(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = f.svc.CurrentUser(ctx, "no-such-token")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRequestPasswordReset_SendsTokenEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.seedLocalUser(t, "eve@example.com", "old-pw")

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "eve@example.com"))

	require.Len(t, f.mailer.to, 1)
	assert.Equal(t, "eve@example.com", f.mailer.to[0])
	assert.Equal(t, "Password Reset Request", f.mailer.subject[0])

	require.Len(t, f.resets.tokens, 1)
	for token := range f.resets.tokens {
		assert.Contains(t, f.mailer.body[0], token)
	}
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.Equal(t, "not_registered", apiErr.Code)
	assert.Equal(t, "You are not a registered user", apiErr.Message)
}

func TestRequestPasswordReset_OAuthAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := &models.User{Email: "frank@example.com", AuthProvider: models.ProviderFacebook}
	require.NoError(t, f.users.Create(ctx, user))

	err := f.svc.RequestPasswordReset(ctx, "frank@example.com")
	require.Error(t, err)
	assert.Equal(t, "wrong_provider", apierrors.AsAPIError(err).Code)
	assert.Empty(t, f.mailer.to)
}

func TestResetPassword_RoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.seedLocalUser(t, "eve@example.com", "old-pw")

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "eve@example.com"))

	var token string
	for tok := range f.resets.tokens {
		token = tok
	}

	require.NoError(t, f.svc.ResetPassword(ctx, token, "new-pw"))

	_, _, err := f.svc.Login(ctx, "eve@example.com", "old-pw")
	require.Error(t, err)

	_, _, err = f.svc.Login(ctx, "eve@example.com", "new-pw")
	require.NoError(t, err)
}

func TestResetPassword_TokenIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.seedLocalUser(t, "eve@example.com", "old-pw")

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "eve@example.com"))
	var token string
	for tok := range f.resets.tokens {
		token = tok
	}

	require.NoError(t, f.svc.ResetPassword(ctx, token, "new-pw"))

	err := f.svc.ResetPassword(ctx, token, "another-pw")
	require.Error(t, err)
	assert.Equal(t, "invalid_reset_token", apierrors.AsAPIError(err).Code)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.seedLocalUser(t, "eve@example.com", "old-pw")

	reset := &models.PasswordReset{
		Token:     "expired-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, f.resets.Create(ctx, reset))

	err := f.svc.ResetPassword(ctx, "expired-token", "new-pw")
	require.Error(t, err)
	assert.Equal(t, "invalid_reset_token", apierrors.AsAPIError(err).Code)
}

func TestSweepExpiredResetTokens_RunsUntilCancelled(t *testing.T) {
	f := newAuthFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.SweepExpiredResetTokens(ctx, 5*time.Millisecond)
		close(done)
	}()

	// At least one sweep fires, then cancellation stops the loop.
	<-f.resets.sweeps
	cancel()
	<-done
}

func TestResetPassword_UnknownToken(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.ResetPassword(context.Background(), "nope", "new-pw")
	require.Error(t, err)
	assert.Equal(t, "invalid_reset_token", apierrors.AsAPIError(err).Code)
}
