package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garasi/internal/core/id"
	"garasi/internal/core/security"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	branchID := id.New()
	user := NewUser("wawan@garasi.id", "hash", "Wawan", string(security.RoleMechanic))
	user.BranchID = &branchID

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, "wawan@garasi.id", uc.Email)
	assert.Equal(t, "Wawan", uc.Name)
	assert.Equal(t, []string{"mechanic"}, uc.Roles)
	assert.Equal(t, branchID.String(), uc.BranchID)
	assert.False(t, uc.IsAdmin)
}

func TestAccessToken_AdminHasNoBranch(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	user := NewUser("boss@garasi.id", "hash", "Boss", string(security.RoleAdmin))

	token, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, uc.IsAdmin)
	assert.Empty(t, uc.BranchID)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	user := NewUser("kiki@garasi.id", "hash", "Kiki", string(security.RoleSalesperson))
	token, _, err := issuer.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestUser_Lockout(t *testing.T) {
	user := NewUser("dodo@garasi.id", "hash", "Dodo", string(security.RoleSalesperson))

	for i := 0; i < 4; i++ {
		user.RecordFailedLogin(5, 15*time.Minute)
	}
	assert.False(t, user.IsLocked())
	require.NoError(t, user.CanLogin())

	user.RecordFailedLogin(5, 15*time.Minute)
	assert.True(t, user.IsLocked())
	assert.Error(t, user.CanLogin())

	user.RecordSuccessfulLogin()
	assert.False(t, user.IsLocked())
	assert.Equal(t, 0, user.FailedLoginAttempts)
	require.NotNil(t, user.LastLoginAt)
}

func TestUser_ValidateRequiresBranchForStaff(t *testing.T) {
	ctx := context.Background()

	user := NewUser("nina@garasi.id", "hash", "Nina", string(security.RoleManager))
	assert.Error(t, user.Validate(ctx))

	branchID := id.New()
	user.BranchID = &branchID
	assert.NoError(t, user.Validate(ctx))

	admin := NewUser("root@garasi.id", "hash", "Root", string(security.RoleAdmin))
	assert.NoError(t, admin.Validate(ctx))
}

func TestUser_HasRole(t *testing.T) {
	mech := NewUser("m@garasi.id", "hash", "M", string(security.RoleMechanic))
	assert.True(t, mech.HasRole(security.RoleMechanic))
	assert.False(t, mech.HasRole(security.RoleManager))

	admin := NewUser("a@garasi.id", "hash", "A", string(security.RoleAdmin))
	assert.True(t, admin.HasRole(security.RoleMechanic))
}
