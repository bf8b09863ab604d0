package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	config "github.com/quantivue/backend/configs"
	"github.com/quantivue/backend/internal/apperr"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/repository"
	"github.com/quantivue/backend/internal/transfer"
	"github.com/quantivue/backend/pkg/mailer"
	"github.com/quantivue/backend/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	tokenTTL         = 7 * 24 * time.Hour
	adminTokenTTL    = 24 * time.Hour
	resetCodeTTL     = 10 * time.Minute
	minPasswordChars = 6
)

type AuthService interface {
	SignUp(ctx context.Context, r *transfer.SignupRequest) (string, *models.User, error)
	SignIn(ctx context.Context, r *transfer.LoginRequest, ip, userAgent string) (string, *models.User, error)
	AdminSignIn(ctx context.Context, r *transfer.LoginRequest) (string, error)
	GoogleAuthURL(state string) string
	GoogleCallback(ctx context.Context, code string) (string, *models.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, r *transfer.ResetPasswordRequest) error
}

type authService struct {
	cfg config.Config
	u   repository.UserRepository
	ll  repository.LoginLogRepository
	pr  repository.PasswordResetRepository
	m   *mailer.Sender
}

func NewAuthService(
	cfg config.Config,
	u repository.UserRepository,
	ll repository.LoginLogRepository,
	pr repository.PasswordResetRepository,
	m *mailer.Sender) AuthService {
	return &authService{
		cfg: cfg,
		u:   u,
		ll:  ll,
		pr:  pr,
		m:   m,
	}
}

func (s *authService) SignUp(ctx context.Context, r *transfer.SignupRequest) (string, *models.User, error) {
	if r.FullName == "" {
		return "", nil, apperr.Validation("full name is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return "", nil, apperr.Validation("a valid email is required")
	}
	if len(r.Password) < minPasswordChars {
		return "", nil, apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordChars))
	}

	_, exists, err := s.u.GetByEmail(ctx, r.Email)
	if err != nil {
		return "", nil, err
	}
	if exists {
		return "", nil, apperr.Conflict("an account with this email already exists")
	}

	hash, err := utils.HashPassword(r.Password)
	if err != nil {
		slog.Info(err.Error())
		return "", nil, err
	}

	user := &models.User{
		FullName:   r.FullName,
		Email:      r.Email,
		Password:   hash,
		SignupType: "email",
	}

	userID, err := s.u.Create(ctx, nil, user)
	if err != nil {
		return "", nil, err
	}
	user.ID = userID

	token, err := utils.GenerateToken(s.cfg.SecretKey, strconv.FormatInt(userID, 10), user.Email, tokenTTL)
	if err != nil {
		slog.Info(err.Error())
		return "", nil, err
	}

	return token, user, nil
}

func (s *authService) SignIn(ctx context.Context, r *transfer.LoginRequest, ip, userAgent string) (string, *models.User, error) {
	user, exists, err := s.u.GetByEmail(ctx, r.Email)
	if err != nil {
		return "", nil, err
	}
	if !exists || !utils.VerifyPassword(user.Password, r.Password) {
		return "", nil, apperr.Unauthorized("invalid email or password")
	}

	token, err := utils.GenerateToken(s.cfg.SecretKey, strconv.FormatInt(user.ID, 10), user.Email, tokenTTL)
	if err != nil {
		slog.Info(err.Error())
		return "", nil, err
	}

	s.recordLogin(ctx, user.ID, ip, userAgent)

	return token, user, nil
}

// AdminSignIn checks against the configured admin credentials; there is no
// admin row in the users table.
func (s *authService) AdminSignIn(ctx context.Context, r *transfer.LoginRequest) (string, error) {
	if r.Email != s.cfg.AdminEmail || r.Password != s.cfg.AdminPassword {
		return "", apperr.Unauthorized("invalid admin credentials")
	}

	token, err := utils.GenerateAdminToken(s.cfg.SecretKey, r.Email, adminTokenTTL)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return token, nil
}

func (s *authService) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

func (s *authService) GoogleAuthURL(state string) string {
	return s.oauth2Config().AuthCodeURL(state)
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (string, *models.User, error) {
	if code == "" {
		return "", nil, apperr.Validation("code is empty")
	}

	oauth2Config := s.oauth2Config()
	if oauth2Config.ClientID == "" || oauth2Config.ClientSecret == "" {
		return "", nil, apperr.Unauthorized("google sign-in is not configured")
	}

	token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return "", nil, apperr.Unauthorized("google code exchange failed")
	}

	userInfo, err := fetchGoogleUserInfo(oauth2Config.Client(ctx, token))
	if err != nil {
		slog.Info(err.Error())
		return "", nil, err
	}

	user, exists, err := s.u.GetByEmail(ctx, userInfo.Email)
	if err != nil {
		return "", nil, err
	}

	if !exists {
		user = &models.User{
			FullName:      userInfo.Name,
			Email:         userInfo.Email,
			SignupType:    "google",
			GoogleID:      &userInfo.ID,
			EmailVerified: true,
			Verified:      true,
		}
		userID, err := s.u.Create(ctx, nil, user)
		if err != nil {
			return "", nil, err
		}
		user.ID = userID
	} else if user.GoogleID == nil {
		if err := s.u.LinkGoogleID(ctx, user.ID, userInfo.ID); err != nil {
			return "", nil, err
		}
		user.GoogleID = &userInfo.ID
	}

	jwtToken, err := utils.GenerateToken(s.cfg.SecretKey, strconv.FormatInt(user.ID, 10), user.Email, tokenTTL)
	if err != nil {
		slog.Info(err.Error())
		return "", nil, err
	}

	s.recordLogin(ctx, user.ID, "", "")

	return jwtToken, user, nil
}

// ForgotPassword always reports success to the caller so the endpoint
// cannot be used to probe which emails have accounts. When SMTP is not
// configured the code is returned so local development stays usable.
func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	_, exists, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !exists {
		slog.Info(fmt.Sprintf("password reset requested for unknown email %s", email))
		return "", nil
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if err := s.pr.Create(ctx, email, code, time.Now().Add(resetCodeTTL)); err != nil {
		return "", err
	}

	if s.m == nil {
		return code, nil
	}

	subject := "Your password reset code"
	text := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	html := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in 10 minutes.</p>", code)
	if err := s.m.SendMail(email, "", subject, html, text); err != nil {
		slog.Info(err.Error())
	}

	return "", nil
}

func (s *authService) ResetPassword(ctx context.Context, r *transfer.ResetPasswordRequest) error {
	if r.NewPassword != r.ConfirmPassword {
		return apperr.Validation("passwords do not match")
	}
	if len(r.NewPassword) < minPasswordChars {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordChars))
	}

	reset, exists, err := s.pr.GetLatestByEmail(ctx, r.Email)
	if err != nil {
		return err
	}
	if !exists || reset.Token != r.VerificationCode {
		return apperr.Validation("invalid verification code")
	}
	if time.Now().After(reset.ExpiresAt) {
		return apperr.Validation("verification code has expired")
	}

	hash, err := utils.HashPassword(r.NewPassword)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if err := s.u.UpdatePassword(ctx, r.Email, hash); err != nil {
		return err
	}

	if err := s.pr.Remove(ctx, reset.ID); err != nil {
		slog.Info(err.Error())
	}

	return nil
}

func (s *authService) recordLogin(ctx context.Context, userID int64, ip, userAgent string) {
	logEntry := &models.LoginLog{UserID: userID, LoginTime: time.Now()}
	if ip != "" {
		logEntry.IPAddress = &ip
	}
	if userAgent != "" {
		logEntry.UserAgent = &userAgent
	}
	if err := s.ll.Create(ctx, logEntry); err != nil {
		slog.Info(err.Error())
	}
	if err := s.u.IncrementLoginCount(ctx, userID); err != nil {
		slog.Info(err.Error())
	}
}

func fetchGoogleUserInfo(client *http.Client) (*transfer.GoogleUserInfo, error) {
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed: %s", resp.Status)
	}

	var userInfo transfer.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}

	return &userInfo, nil
}
