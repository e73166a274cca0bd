package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/repository"
	"codenest_backend/internal/util"
	"codenest_backend/pkg/logger"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

type MediaService struct {
	UserRepo *repository.UserRepository
	Courses  *CourseService
	Storage  *StorageService
	TempDir  string
}

func NewMediaService(userRepo *repository.UserRepository, courses *CourseService, storage *StorageService) *MediaService {
	return &MediaService{
		UserRepo: userRepo,
		Courses:  courses,
		Storage:  storage,
		TempDir:  os.TempDir(),
	}
}

// sniff 读取文件头判断类型后把读取位置复位
func sniff(content io.ReadSeeker, allowed []string) (string, error) {
	mimeType, err := util.ValidateMimeType(content, allowed)
	if err != nil {
		return "", err
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mimeType, nil
}

func (s *MediaService) UploadAvatar(ctx context.Context, caller *model.User, filename string, size int64, content io.ReadSeeker) (*UserProfile, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	if err := util.CheckFileSize(size, util.MaxAvatarSize); err != nil {
		return nil, err
	}
	if !util.HasAllowedExtension(filename, util.AllowedImageExtensions) {
		return nil, util.NewValidationError("unsupported image extension")
	}
	mimeType, err := sniff(content, []string{util.MimeImage})
	if err != nil {
		return nil, err
	}

	url, err := s.Storage.Put(ctx, ObjectKey("avatars/"+caller.ID, filename), content, size, mimeType)
	if err != nil {
		return nil, err
	}

	caller.AvatarURL = &url
	if err := s.UserRepo.Update(ctx, caller); err != nil {
		return nil, err
	}
	return NewUserProfile(caller), nil
}

// UploadLessonVideo 先落地到临时文件，用 ffprobe 读取时长，课程没有封面时顺便截一帧
func (s *MediaService) UploadLessonVideo(ctx context.Context, caller *model.User, lessonID, filename string, size int64, content io.ReadSeeker) (*model.Lesson, error) {
	lesson, course, err := s.Courses.AuthorizeLesson(ctx, caller, lessonID)
	if err != nil {
		return nil, err
	}
	if err := util.CheckFileSize(size, util.MaxVideoSize); err != nil {
		return nil, err
	}
	if !util.HasAllowedExtension(filename, util.AllowedVideoExtensions) {
		return nil, util.NewValidationError("unsupported video extension")
	}
	mimeType, err := sniff(content, []string{util.MimeVideo, "application/octet-stream"})
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.TempDir, "lesson-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	prevMinutes := lesson.DurationMinutes
	if info, err := util.GetVideoInfo(tmp.Name()); err != nil {
		logger.Log.Warn("Could not probe lesson video", zap.String("lessonId", lesson.ID), zap.Error(err))
	} else if minutes := info.DurationMinutes(); minutes > 0 {
		lesson.DurationMinutes = minutes
	}

	url, err := s.Storage.PutFile(ctx, ObjectKey("lessons/"+course.ID, filename), tmp.Name(), mimeType)
	if err != nil {
		return nil, err
	}
	lesson.VideoURL = &url
	if err := s.Courses.LessonRepo.Update(ctx, lesson); err != nil {
		return nil, err
	}

	courseChanged := false
	if delta := lesson.DurationMinutes - prevMinutes; delta != 0 {
		course.DurationMinutes += delta
		if course.DurationMinutes < 0 {
			course.DurationMinutes = 0
		}
		courseChanged = true
	}
	if course.ThumbnailURL == nil {
		if thumb := s.thumbnail(ctx, course, tmp.Name()); thumb != "" {
			course.ThumbnailURL = &thumb
			courseChanged = true
		}
	}
	if courseChanged {
		if err := s.Courses.CourseRepo.Update(ctx, course); err != nil {
			return nil, err
		}
	}
	return lesson, nil
}

func (s *MediaService) thumbnail(ctx context.Context, course *model.Course, videoPath string) string {
	thumbPath := videoPath + ".jpg"
	defer os.Remove(thumbPath)

	if err := util.GenerateThumbnail(videoPath, thumbPath, "00:00:01"); err != nil {
		logger.Log.Warn("Thumbnail generation failed", zap.String("courseId", course.ID), zap.Error(err))
		return ""
	}
	url, err := s.Storage.PutFile(ctx, ObjectKey("thumbnails/"+course.ID, thumbPath), thumbPath, "image/jpeg")
	if err != nil {
		logger.Log.Warn("Thumbnail upload failed", zap.String("courseId", course.ID), zap.Error(err))
		return ""
	}
	return url
}
