package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-admin/internal/shared/model"
)

func testAuthConfig() Config {
	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret"
	return cfg
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("secret123", ""))
}

func TestUserTokenRoundTrip(t *testing.T) {
	cfg := testAuthConfig()
	user := &model.User{ID: "usr-1", Role: model.UserRoleStudent}

	token, err := GenerateUserToken(cfg, user)
	require.NoError(t, err)

	claims, err := ParseToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.Subject)
	assert.Equal(t, string(model.UserRoleStudent), claims.Role)
	// 学员令牌不携带管理员字段
	assert.Empty(t, claims.UserType)
	assert.Empty(t, claims.Email)
}

func TestAdminTokenClaims(t *testing.T) {
	cfg := testAuthConfig()
	admin := &model.AdminUser{
		ID:       "adm-1",
		FullName: "Ops Admin",
		Email:    "ops@example.com",
		UserType: model.AdminTypeSubadmin,
		RoleID:   "role-7",
	}

	token, err := GenerateAdminToken(cfg, admin)
	require.NoError(t, err)

	claims, err := ParseToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "adm-1", claims.Subject)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, "Ops Admin", claims.Name)
	assert.Equal(t, "subadmin", claims.Role)
	assert.Equal(t, "subadmin", claims.UserType)
	assert.Equal(t, "role-7", claims.RoleID)
}

func TestAdminTokenCoarseRole(t *testing.T) {
	cfg := testAuthConfig()
	super := &model.AdminUser{ID: "adm-2", UserType: model.AdminTypeSuperadmin}

	token, err := GenerateAdminToken(cfg, super)
	require.NoError(t, err)

	claims, err := ParseToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	cfg := testAuthConfig()
	token, err := GenerateUserToken(cfg, &model.User{ID: "usr-1"})
	require.NoError(t, err)

	other := cfg
	other.JWTSecret = "other-secret"
	_, err = ParseToken(other, token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	cfg := testAuthConfig()
	cfg.UserTokenTTL = -time.Minute

	token, err := GenerateUserToken(cfg, &model.User{ID: "usr-1"})
	require.NoError(t, err)

	_, err = ParseToken(cfg, token)
	assert.Error(t, err)
}

func TestAuthUserContext(t *testing.T) {
	user := &AuthUser{ID: "adm-1", UserType: "subadmin"}
	ctx := WithAuthUser(t.Context(), user)

	got := GetAuthUser(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "adm-1", got.ID)
	assert.True(t, got.IsAdmin())

	assert.Nil(t, GetAuthUser(t.Context()))
}

func TestAuthUserIsAdmin(t *testing.T) {
	assert.False(t, (&AuthUser{ID: "usr-1"}).IsAdmin())
	assert.True(t, (&AuthUser{ID: "adm-1", UserType: "superadmin"}).IsAdmin())
}
