package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/util"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, env *testEnv, email string) *AuthResponse {
	t.Helper()
	resp, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:     email,
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered := register(t, env, "  Ada@Example.com ")
	assert.Equal(t, "ada@example.com", registered.User.Email)
	assert.Equal(t, model.Student, registered.User.Role)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.EqualValues(t, 15*60, registered.ExpiresIn)

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "ADA@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)

	caller := env.auth.ResolveIdentity(ctx, resp.AccessToken)
	require.NotNil(t, caller)
	assert.Equal(t, registered.User.ID, caller.ID)

	// refresh token 不能当作 access token 使用
	assert.Nil(t, env.auth.ResolveIdentity(ctx, resp.RefreshToken))
	assert.Nil(t, env.auth.ResolveIdentity(ctx, ""))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "ada@example.com")

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:     "ADA@example.com",
		Password:  "another-password",
		FirstName: "Ada",
		LastName:  "Byron",
	})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
	assert.Equal(t, util.KindDuplicate, util.KindOf(err))
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	register(t, env, "ada@example.com")

	_, err := env.auth.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestExternalLoginCreatesUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.auth.Verifier = &fakeVerifier{identity: &ExternalIdentity{
		Subject:    "google-123",
		Email:      "grace@example.com",
		GivenName:  "Grace",
		FamilyName: "Hopper",
		PictureURL: "https://example.com/grace.png",
	}}

	first, err := env.auth.LoginWithExternalIdentity(ctx, "id-token")
	require.NoError(t, err)
	assert.Equal(t, model.Student, first.User.Role)
	assert.Equal(t, model.ProviderExternal, first.User.Provider)
	require.NotNil(t, first.User.AvatarURL)

	second, err := env.auth.LoginWithExternalIdentity(ctx, "id-token")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	// 没有本地密码的账号不能用密码登录
	_, err = env.auth.Login(ctx, LoginRequest{Email: "grace@example.com", Password: "anything-at-all"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestExternalLoginLinksExistingAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	local := register(t, env, "ada@example.com")

	env.auth.Verifier = &fakeVerifier{identity: &ExternalIdentity{Subject: "google-ada", Email: "Ada@example.com"}}
	resp, err := env.auth.LoginWithExternalIdentity(ctx, "id-token")
	require.NoError(t, err)
	assert.Equal(t, local.User.ID, resp.User.ID)

	stored, err := env.users.UserRepo.FindByExternalID(ctx, "google-ada")
	require.NoError(t, err)
	assert.Equal(t, local.User.ID, stored.ID)

	// 本地密码仍然可用
	_, err = env.auth.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	assert.NoError(t, err)
}

func TestExternalLoginRejectsUnverifiedToken(t *testing.T) {
	env := newTestEnv(t)
	env.auth.Verifier = &fakeVerifier{err: errors.New("bad signature")}

	_, err := env.auth.LoginWithExternalIdentity(context.Background(), "forged")
	assert.ErrorIs(t, err, util.ErrExternalIdentity)

	env.auth.Verifier = &fakeVerifier{identity: &ExternalIdentity{Subject: "google-1"}}
	_, err = env.auth.LoginWithExternalIdentity(context.Background(), "no-email")
	assert.ErrorIs(t, err, util.ErrExternalIdentity)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registered := register(t, env, "ada@example.com")

	resp, err := env.auth.Refresh(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, resp.RefreshToken)
	assert.Equal(t, registered.User.ID, resp.User.ID)

	_, err = env.auth.Refresh(ctx, registered.AccessToken)
	assert.ErrorIs(t, err, util.ErrInvalidToken)
}

func TestRefreshRotationRejectsReuse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.auth.RefreshStore = &memoryTokenStore{}
	registered := register(t, env, "ada@example.com")

	rotated, err := env.auth.Refresh(ctx, registered.RefreshToken)
	require.NoError(t, err)

	_, err = env.auth.Refresh(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, util.ErrInvalidToken)

	_, err = env.auth.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestDeactivatedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registered := register(t, env, "ada@example.com")

	require.NoError(t, env.users.UserRepo.SetActive(ctx, registered.User.ID, false))

	_, err := env.auth.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, util.ErrAccountDeactivated)

	_, err = env.auth.Refresh(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, util.ErrAccountDeactivated)

	assert.Nil(t, env.auth.ResolveIdentity(ctx, registered.AccessToken))
}

func TestRegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 40 个字符，80 字节
	_, err := env.auth.Register(ctx, RegisterRequest{
		Email:     "long@example.com",
		Password:  strings.Repeat("é", 40),
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.Error(t, err)
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	exists, err := env.auth.UserRepo.ExistsByEmail(ctx, "long@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	// 正好 72 字节仍然可以注册
	_, err = env.auth.Register(ctx, RegisterRequest{
		Email:     "edge@example.com",
		Password:  strings.Repeat("é", 36),
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	assert.NoError(t, err)
}
