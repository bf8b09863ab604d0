package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	config "github.com/quantivue/backend/configs"
	"github.com/quantivue/backend/internal/apperr"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/transfer"
	"github.com/quantivue/backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users     map[string]*models.User
	nextID    int64
	passwords map[string]string
	logins    int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[string]*models.User),
		passwords: make(map[string]string),
		nextID:    1,
	}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	u, ok := f.users[email]
	return u, ok, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	user.ID = f.nextID
	f.nextID++
	f.users[user.Email] = user
	return user.ID, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	f.passwords[email] = passwordHash
	if u, ok := f.users[email]; ok {
		u.Password = passwordHash
	}
	return nil
}

func (f *fakeUserRepo) LinkGoogleID(ctx context.Context, id int64, googleID string) error {
	return nil
}

func (f *fakeUserRepo) IncrementLoginCount(ctx context.Context, id int64) error {
	f.logins++
	return nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]*models.User, error) {
	return nil, nil
}

type fakeLoginLogRepo struct {
	entries []*models.LoginLog
}

func (f *fakeLoginLogRepo) Create(ctx context.Context, l *models.LoginLog) error {
	f.entries = append(f.entries, l)
	return nil
}

func (f *fakeLoginLogRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.entries)), nil
}

type fakeResetRepo struct {
	resets []*models.PasswordReset
}

func (f *fakeResetRepo) Create(ctx context.Context, email, token string, expiresAt time.Time) error {
	f.resets = append(f.resets, &models.PasswordReset{
		ID:        int64(len(f.resets) + 1),
		Email:     email,
		Token:     token,
		ExpiresAt: expiresAt,
	})
	return nil
}

func (f *fakeResetRepo) GetLatestByEmail(ctx context.Context, email string) (*models.PasswordReset, bool, error) {
	for i := len(f.resets) - 1; i >= 0; i-- {
		if f.resets[i].Email == email {
			return f.resets[i], true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeResetRepo) Remove(ctx context.Context, id int64) error {
	for i, r := range f.resets {
		if r.ID == id {
			f.resets = append(f.resets[:i], f.resets[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeResetRepo) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

type authFixture struct {
	svc AuthService
	u   *fakeUserRepo
	ll  *fakeLoginLogRepo
	pr  *fakeResetRepo
	cfg config.Config
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := config.Config{
		SecretKey:     "test_secret",
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin-pass",
	}

	u := newFakeUserRepo()
	ll := &fakeLoginLogRepo{}
	pr := &fakeResetRepo{}

	return &authFixture{
		svc: NewAuthService(cfg, u, ll, pr, nil),
		u:   u,
		ll:  ll,
		pr:  pr,
		cfg: cfg,
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	f := newAuthFixture(t)

	token, user, err := f.svc.SignUp(context.Background(), &transfer.SignupRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(1), user.ID)
	assert.NotEqual(t, "secret123", user.Password, "password must be stored hashed")

	claims, err := utils.ValidateToken(f.cfg.SecretKey, token)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)
	assert.False(t, claims.Admin)

	_, signedIn, err := f.svc.SignIn(context.Background(), &transfer.LoginRequest{
		Email:    "ada@example.com",
		Password: "secret123",
	}, "127.0.0.1", "go-test")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
	assert.Len(t, f.ll.entries, 1)
	assert.Equal(t, 1, f.u.logins)
}

func TestSignUpValidation(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name string
		req  transfer.SignupRequest
	}{
		{"missing name", transfer.SignupRequest{Email: "a@b.com", Password: "secret123"}},
		{"bad email", transfer.SignupRequest{FullName: "A", Email: "not-an-email", Password: "secret123"}},
		{"short password", transfer.SignupRequest{FullName: "A", Email: "a@b.com", Password: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.SignUp(context.Background(), &tt.req)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)

	req := transfer.SignupRequest{FullName: "Ada", Email: "ada@example.com", Password: "secret123"}
	_, _, err := f.svc.SignUp(context.Background(), &req)
	require.NoError(t, err)

	_, _, err = f.svc.SignUp(context.Background(), &req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestSignInWrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.SignUp(context.Background(), &transfer.SignupRequest{
		FullName: "Ada", Email: "ada@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, _, err = f.svc.SignIn(context.Background(), &transfer.LoginRequest{
		Email: "ada@example.com", Password: "wrong",
	}, "", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, _, err = f.svc.SignIn(context.Background(), &transfer.LoginRequest{
		Email: "nobody@example.com", Password: "secret123",
	}, "", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err), "unknown email must look like a wrong password")
}

func TestAdminSignIn(t *testing.T) {
	f := newAuthFixture(t)

	token, err := f.svc.AdminSignIn(context.Background(), &transfer.LoginRequest{
		Email: "admin@example.com", Password: "admin-pass",
	})
	require.NoError(t, err)

	claims, err := utils.ValidateToken(f.cfg.SecretKey, token)
	require.NoError(t, err)
	assert.True(t, claims.Admin)

	_, err = f.svc.AdminSignIn(context.Background(), &transfer.LoginRequest{
		Email: "admin@example.com", Password: "nope",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestForgotPasswordUnknownEmailSucceeds(t *testing.T) {
	f := newAuthFixture(t)

	code, err := f.svc.ForgotPassword(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, code)
	assert.Empty(t, f.pr.resets, "no reset code should be stored for unknown accounts")
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.SignUp(context.Background(), &transfer.SignupRequest{
		FullName: "Ada", Email: "ada@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	code, err := f.svc.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.Len(t, code, 6, "with smtp unconfigured the code comes back for local development")

	err = f.svc.ResetPassword(context.Background(), &transfer.ResetPasswordRequest{
		Email:            "ada@example.com",
		VerificationCode: code,
		NewPassword:      "newsecret",
		ConfirmPassword:  "newsecret",
	})
	require.NoError(t, err)
	assert.Empty(t, f.pr.resets, "reset codes are single use")

	_, _, err = f.svc.SignIn(context.Background(), &transfer.LoginRequest{
		Email: "ada@example.com", Password: "newsecret",
	}, "", "")
	require.NoError(t, err)
}

func TestPasswordResetRejectsBadCode(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.SignUp(context.Background(), &transfer.SignupRequest{
		FullName: "Ada", Email: "ada@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = f.svc.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)

	err = f.svc.ResetPassword(context.Background(), &transfer.ResetPasswordRequest{
		Email:            "ada@example.com",
		VerificationCode: "000000",
		NewPassword:      "newsecret",
		ConfirmPassword:  "newsecret",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestPasswordResetExpiredCode(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.SignUp(context.Background(), &transfer.SignupRequest{
		FullName: "Ada", Email: "ada@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	f.pr.resets = append(f.pr.resets, &models.PasswordReset{
		ID:        1,
		Email:     "ada@example.com",
		Token:     "123456",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	err = f.svc.ResetPassword(context.Background(), &transfer.ResetPasswordRequest{
		Email:            "ada@example.com",
		VerificationCode: "123456",
		NewPassword:      "newsecret",
		ConfirmPassword:  "newsecret",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
