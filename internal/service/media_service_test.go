package service

import (
	"bytes"
	"codenest_backend/internal/model"
	"codenest_backend/internal/util"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newMediaService(t *testing.T, env *testEnv) (*MediaService, string) {
	t.Helper()
	root := t.TempDir()
	storage := &StorageService{Store: &LocalObjectStore{Root: root}}
	media := NewMediaService(env.users.UserRepo, env.courses, storage)
	media.TempDir = t.TempDir()
	return media, root
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, model.Student)
	media, root := newMediaService(t, env)

	profile, err := media.UploadAvatar(ctx, user, "me.PNG", int64(len(pngHeader)), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.NotNil(t, profile.AvatarURL)
	assert.True(t, strings.HasPrefix(*profile.AvatarURL, "/uploads/avatars/"+user.ID+"/"))
	assert.True(t, strings.HasSuffix(*profile.AvatarURL, ".png"))

	key := strings.TrimPrefix(*profile.AvatarURL, "/uploads/")
	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)

	reloaded, err := env.users.UserRepo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, *profile.AvatarURL, *reloaded.AvatarURL)
}

func TestUploadAvatarRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, model.Student)
	media, _ := newMediaService(t, env)

	text := []byte("definitely not an image")
	_, err := media.UploadAvatar(ctx, user, "me.png", int64(len(text)), bytes.NewReader(text))
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	_, err = media.UploadAvatar(ctx, user, "me.exe", int64(len(pngHeader)), bytes.NewReader(pngHeader))
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	_, err = media.UploadAvatar(ctx, user, "me.png", util.MaxAvatarSize+1, bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, util.ErrFileTooLarge)

	_, err = media.UploadAvatar(ctx, nil, "me.png", int64(len(pngHeader)), bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, util.ErrUnauthenticated)
}

func TestUploadLessonVideoRequiresCourseOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	_, lessons := env.publishedCourse(t, instructor, 1)
	media, _ := newMediaService(t, env)

	_, err := media.UploadLessonVideo(ctx, env.createUser(t, model.Instructor), lessons[0].ID, "intro.mp4", 10, bytes.NewReader(make([]byte, 10)))
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = media.UploadLessonVideo(ctx, instructor, lessons[0].ID, "intro.avi", 10, bytes.NewReader(make([]byte, 10)))
	assert.Equal(t, util.KindValidation, util.KindOf(err))
}

func TestObjectKeyKeepsExtension(t *testing.T) {
	key := ObjectKey("lessons/abc", "Intro.MP4")
	assert.True(t, strings.HasPrefix(key, "lessons/abc/"))
	assert.True(t, strings.HasSuffix(key, ".mp4"))
}
