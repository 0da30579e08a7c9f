package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gadconnect/gadconnect-api/internal/models"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
)

type authRepoStub struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
	refresh      map[string]*models.RefreshToken
	resets       map[string]*models.PasswordResetToken
	lastLogin    []string
	nextID       int
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[string]*models.User),
		refresh:      make(map[string]*models.RefreshToken),
		resets:       make(map[string]*models.PasswordResetToken),
	}
}

func (r *authRepoStub) addUser(email, password string, active bool) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	r.nextID++
	user := &models.User{
		ID:           fmt.Sprintf("user-%d", r.nextID),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test User",
		Role:         models.RoleStaff,
		Active:       active,
	}
	r.usersByEmail[email] = user
	r.usersByID[user.ID] = user
	return user
}

func (r *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := r.usersByEmail[strings.ToLower(email)]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := r.usersByID[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *authRepoStub) Create(ctx context.Context, user *models.User) error {
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	stored := *user
	r.usersByEmail[user.Email] = &stored
	r.usersByID[user.ID] = &stored
	return nil
}

func (r *authRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if user, ok := r.usersByID[id]; ok {
		user.PasswordHash = passwordHash
		return nil
	}
	return sql.ErrNoRows
}

func (r *authRepoStub) TouchLastLogin(ctx context.Context, id string) error {
	r.lastLogin = append(r.lastLogin, id)
	return nil
}

func (r *authRepoStub) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	stored := *token
	r.refresh[token.Token] = &stored
	return nil
}

func (r *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := r.refresh[token]; ok && !stored.Revoked {
		copied := *stored
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *authRepoStub) RevokeRefreshToken(ctx context.Context, token string) error {
	if stored, ok := r.refresh[token]; ok {
		stored.Revoked = true
		return nil
	}
	return sql.ErrNoRows
}

func (r *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, token := range r.refresh {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (r *authRepoStub) SavePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	r.nextID++
	token.ID = fmt.Sprintf("reset-%d", r.nextID)
	stored := *token
	r.resets[token.Token] = &stored
	return nil
}

func (r *authRepoStub) FindPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	if stored, ok := r.resets[token]; ok && stored.UsedAt == nil {
		copied := *stored
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *authRepoStub) MarkPasswordResetTokenUsed(ctx context.Context, id string) error {
	for _, token := range r.resets {
		if token.ID == id {
			now := time.Now().UTC()
			token.UsedAt = &now
			return nil
		}
	}
	return sql.ErrNoRows
}

type authNotifierStub struct {
	signIns       []string
	registrations []string
	resets        []string
}

func (n *authNotifierStub) NotifySignIn(ctx context.Context, userID, fullName string) error {
	n.signIns = append(n.signIns, userID)
	return nil
}

func (n *authNotifierStub) NotifyRegistration(ctx context.Context, userID, fullName string) error {
	n.registrations = append(n.registrations, userID)
	return nil
}

func (n *authNotifierStub) NotifyPasswordReset(ctx context.Context, userID string) error {
	n.resets = append(n.resets, userID)
	return nil
}

func newAuthService(repo *authRepoStub, notifier *authNotifierStub, auditor *auditorStub) *AuthService {
	return NewAuthService(repo, notifier, auditor, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "gadconnect-test",
	})
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login issues tokens and side effects", func(t *testing.T) {
		repo := newAuthRepoStub()
		user := repo.addUser("ana@example.org", "correct horse", true)
		notifier := &authNotifierStub{}
		auditor := &auditorStub{}
		svc := newAuthService(repo, notifier, auditor)

		resp, err := svc.Login(ctx, models.LoginRequest{Email: "ana@example.org", Password: "correct horse"})
		require.NoError(t, err)
		require.NotEmpty(t, resp.AccessToken)
		require.NotEmpty(t, resp.RefreshToken)
		require.Equal(t, user.ID, resp.User.ID)

		claims, err := svc.ValidateToken(resp.AccessToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.UserID)
		require.Equal(t, models.RoleStaff, claims.Role)

		require.Equal(t, []string{user.ID}, repo.lastLogin)
		require.Equal(t, []string{user.ID}, notifier.signIns)
		require.Len(t, auditor.entries, 1)
		require.Equal(t, models.AuditActionLogin, auditor.entries[0].Action)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := newAuthRepoStub()
		repo.addUser("ana@example.org", "correct horse", true)
		svc := newAuthService(repo, &authNotifierStub{}, &auditorStub{})

		_, err := svc.Login(ctx, models.LoginRequest{Email: "ana@example.org", Password: "wrong"})
		require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	})

	t.Run("unknown email uses the same error as wrong password", func(t *testing.T) {
		svc := newAuthService(newAuthRepoStub(), &authNotifierStub{}, &auditorStub{})

		_, err := svc.Login(ctx, models.LoginRequest{Email: "ghost@example.org", Password: "whatever"})
		require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	})

	t.Run("inactive account", func(t *testing.T) {
		repo := newAuthRepoStub()
		repo.addUser("off@example.org", "correct horse", false)
		svc := newAuthService(repo, &authNotifierStub{}, &auditorStub{})

		_, err := svc.Login(ctx, models.LoginRequest{Email: "off@example.org", Password: "correct horse"})
		require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
	})
}

func TestAuthServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a staff account", func(t *testing.T) {
		repo := newAuthRepoStub()
		notifier := &authNotifierStub{}
		auditor := &auditorStub{}
		svc := newAuthService(repo, notifier, auditor)

		user, err := svc.Register(ctx, models.RegisterRequest{
			Email:    "new@example.org",
			Password: "longenough",
			FullName: "New Staff",
		})
		require.NoError(t, err)
		require.Equal(t, models.RoleStaff, user.Role)
		require.True(t, user.Active)
		require.Equal(t, []string{user.ID}, notifier.registrations)
		require.Len(t, auditor.entries, 1)
		require.Equal(t, models.AuditActionRegister, auditor.entries[0].Action)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		repo := newAuthRepoStub()
		repo.addUser("taken@example.org", "whatever1", true)
		svc := newAuthService(repo, &authNotifierStub{}, &auditorStub{})

		_, err := svc.Register(ctx, models.RegisterRequest{
			Email:    "taken@example.org",
			Password: "longenough",
			FullName: "Dup",
		})
		require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc := newAuthService(newAuthRepoStub(), &authNotifierStub{}, &auditorStub{})

		_, err := svc.Register(ctx, models.RegisterRequest{
			Email:    "short@example.org",
			Password: "tiny",
			FullName: "Short",
		})
		require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}

func TestAuthServiceRefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the refresh token", func(t *testing.T) {
		repo := newAuthRepoStub()
		repo.addUser("ana@example.org", "correct horse", true)
		svc := newAuthService(repo, &authNotifierStub{}, &auditorStub{})

		login, err := svc.Login(ctx, models.LoginRequest{Email: "ana@example.org", Password: "correct horse"})
		require.NoError(t, err)

		refreshed, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
		require.NoError(t, err)
		require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

		// The used token is revoked and cannot be replayed.
		_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
		require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc := newAuthService(newAuthRepoStub(), &authNotifierStub{}, &auditorStub{})

		_, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: "nope"})
		require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	})
}

func TestAuthServicePasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("full reset flow", func(t *testing.T) {
		repo := newAuthRepoStub()
		user := repo.addUser("ana@example.org", "old password", true)
		notifier := &authNotifierStub{}
		auditor := &auditorStub{}
		svc := newAuthService(repo, notifier, auditor)

		token, err := svc.ForgotPassword(ctx, models.ForgotPasswordRequest{Email: "ana@example.org"})
		require.NoError(t, err)
		require.NotEmpty(t, token)

		err = svc.ResetPassword(ctx, models.ResetPasswordRequest{Token: token, NewPassword: "brand new pass"})
		require.NoError(t, err)

		// Old password no longer works, new one does.
		_, err = svc.Login(ctx, models.LoginRequest{Email: "ana@example.org", Password: "old password"})
		require.Error(t, err)
		_, err = svc.Login(ctx, models.LoginRequest{Email: "ana@example.org", Password: "brand new pass"})
		require.NoError(t, err)

		require.Equal(t, []string{user.ID}, notifier.resets)

		// The token is single use.
		err = svc.ResetPassword(ctx, models.ResetPasswordRequest{Token: token, NewPassword: "another pass 123"})
		require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	})

	t.Run("unknown email yields no token and no error", func(t *testing.T) {
		svc := newAuthService(newAuthRepoStub(), &authNotifierStub{}, &auditorStub{})

		token, err := svc.ForgotPassword(ctx, models.ForgotPasswordRequest{Email: "ghost@example.org"})
		require.NoError(t, err)
		require.Empty(t, token)
	})
}

func TestAuthServiceChangePassword(t *testing.T) {
	ctx := context.Background()
	repo := newAuthRepoStub()
	user := repo.addUser("ana@example.org", "old password", true)
	svc := newAuthService(repo, &authNotifierStub{}, &auditorStub{})

	login, err := svc.Login(ctx, models.LoginRequest{Email: "ana@example.org", Password: "old password"})
	require.NoError(t, err)

	t.Run("wrong old password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "brand new pass"})
		require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	})

	t.Run("change revokes live sessions", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, models.ChangePasswordRequest{OldPassword: "old password", NewPassword: "brand new pass"})
		require.NoError(t, err)

		_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
		require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	})
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := newAuthService(newAuthRepoStub(), &authNotifierStub{}, &auditorStub{})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := NewAuthService(newAuthRepoStub(), nil, nil, nil, nil, AuthConfig{
			AccessTokenSecret: "different-secret",
			AccessTokenExpiry: time.Hour,
		})
		token, err := other.generateAccessToken(&models.User{ID: "user-x", Role: models.RoleStaff})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	})
}
