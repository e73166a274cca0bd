package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/util"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, model.Student)

	profile, err := env.users.UpdateProfile(ctx, user, UpdateProfileRequest{
		FirstName: strPtr("  Grace "),
		LastName:  strPtr("   "),
		Bio:       strPtr("Compilers"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace", profile.FirstName)
	assert.Equal(t, user.LastName, profile.LastName)
	require.NotNil(t, profile.Bio)
	assert.Equal(t, "Compilers", *profile.Bio)

	profile, err = env.users.UpdateProfile(ctx, user, UpdateProfileRequest{Bio: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, profile.Bio)

	_, err = env.users.UpdateProfile(ctx, nil, UpdateProfileRequest{})
	assert.ErrorIs(t, err, util.ErrUnauthenticated)
}

func TestPublicProfileHidesInactiveUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, model.Student)

	public, err := env.users.GetPublicProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, public.ID)

	require.NoError(t, env.users.UserRepo.SetActive(ctx, user.ID, false))
	_, err = env.users.GetPublicProfile(ctx, user.ID)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, model.Admin)
	student := env.createUser(t, model.Student)

	_, err := env.users.SetRole(ctx, student, admin.ID, model.Student)
	assert.ErrorIs(t, err, util.ErrAdminOnly)

	promoted, err := env.users.SetRole(ctx, admin, student.ID, model.Instructor)
	require.NoError(t, err)
	assert.Equal(t, model.Instructor, promoted.Role)

	_, err = env.users.SetRole(ctx, admin, student.ID, "OWNER")
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	assert.Equal(t, util.KindValidation, util.KindOf(env.users.SetActive(ctx, admin, admin.ID, false)))
	require.NoError(t, env.users.SetActive(ctx, admin, student.ID, false))

	instructors, total, err := env.users.ListUsers(ctx, admin, UserFilter{Role: model.Instructor}, util.NewPagination(1, 0, util.DefaultPageSize))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, instructors, 1)
	assert.False(t, instructors[0].IsActive)
}
