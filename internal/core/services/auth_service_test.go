package services

import (
	"context"
	"testing"
	"time"

	"e-nagarpalika-portal/internal/adapters/persistence/models"
	"e-nagarpalika-portal/internal/config"
	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/jwt"
	"e-nagarpalika-portal/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryUsers struct {
	byName map[string]*models.User
}

func (r *memoryUsers) Create(_ context.Context, u *models.User) error {
	u.ID = uint(len(r.byName) + 1)
	r.byName[u.Username] = u
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range r.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUsers) GetByUsername(_ context.Context, name string) (*models.User, error) {
	if u, ok := r.byName[name]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUsers) Update(_ context.Context, u *models.User) error {
	r.byName[u.Username] = u
	return nil
}

func (r *memoryUsers) ExistsByUsername(_ context.Context, name string) (bool, error) {
	_, ok := r.byName[name]
	return ok, nil
}

func (r *memoryUsers) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, u := range r.byName {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type memoryTokens struct {
	tokens []*models.RefreshToken
}

func (r *memoryTokens) Create(_ context.Context, t *models.RefreshToken) error {
	t.ID = uint(len(r.tokens) + 1)
	r.tokens = append(r.tokens, t)
	return nil
}

func (r *memoryTokens) GetByTokenHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == hash && t.RevokedAt == nil {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryTokens) Revoke(_ context.Context, id uint) error {
	now := time.Now()
	r.tokens[id-1].RevokedAt = &now
	return nil
}

func (r *memoryTokens) RevokeByTokenHash(_ context.Context, hash string) error {
	now := time.Now()
	for _, t := range r.tokens {
		if t.TokenHash == hash {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *memoryTokens) RevokeAllByUserID(_ context.Context, userID uint) error {
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *memoryTokens) DeleteExpired(_ context.Context) (int64, error) {
	var kept []*models.RefreshToken
	var n int64
	for _, t := range r.tokens {
		if t.IsExpired() {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.tokens = kept
	return n, nil
}

func newTestAuth(t *testing.T) (*AuthService, *memoryUsers, *memoryTokens) {
	t.Helper()
	hashed, err := password.Hash("Officer@2024")
	require.NoError(t, err)

	users := &memoryUsers{byName: map[string]*models.User{}}
	require.NoError(t, users.Create(context.Background(), &models.User{
		Username: "itofficer@nagarpalika.gov.in",
		Password: hashed,
		Role:     string(workflow.RoleITOfficer),
		IsActive: true,
	}))

	tokens := &memoryTokens{}
	cfg := &config.Config{JWT: config.JWTConfig{
		Secret:           "access-secret",
		RefreshSecret:    "refresh-secret",
		AccessTokenMins:  15,
		RefreshTokenDays: 7,
	}}
	return NewAuthService(users, tokens, cfg), users, tokens
}

func TestLoginAndVerify(t *testing.T) {
	auth, _, tokens := newTestAuth(t)

	resp, err := auth.Login(context.Background(), &LoginInput{Username: "itofficer@nagarpalika.gov.in", Password: "Officer@2024"})
	require.NoError(t, err)
	assert.Equal(t, "ITOfficer", resp.User.Role)
	assert.Len(t, tokens.tokens, 1)

	actor, err := auth.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, workflow.Actor{Identity: "itofficer@nagarpalika.gov.in", Role: workflow.RoleITOfficer}, actor)

	_, err = auth.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogin_Rejections(t *testing.T) {
	auth, users, _ := newTestAuth(t)

	_, err := auth.Login(context.Background(), &LoginInput{Username: "itofficer@nagarpalika.gov.in", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(context.Background(), &LoginInput{Username: "nobody", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	users.byName["itofficer@nagarpalika.gov.in"].IsActive = false
	_, err = auth.Login(context.Background(), &LoginInput{Username: "itofficer@nagarpalika.gov.in", Password: "Officer@2024"})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestRefreshToken_Rotates(t *testing.T) {
	auth, _, _ := newTestAuth(t)

	first, err := auth.Login(context.Background(), &LoginInput{Username: "itofficer@nagarpalika.gov.in", Password: "Officer@2024"})
	require.NoError(t, err)

	second, err := auth.RefreshToken(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// the rotated token is no longer accepted
	_, err = auth.RefreshToken(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, auth.Logout(context.Background(), second.RefreshToken))
	_, err = auth.RefreshToken(context.Background(), second.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	auth, _, _ := newTestAuth(t)

	tok, err := jwt.GenerateAccessToken(1, "itofficer@nagarpalika.gov.in", "ITOfficer", "access-secret", -1)
	require.NoError(t, err)

	_, err = auth.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
