package service

import (
	"codenest_backend/internal/config"
	"codenest_backend/internal/model"
	"codenest_backend/internal/repository"
	"codenest_backend/pkg/database"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db          *gorm.DB
	tokens      *TokenService
	users       *UserService
	auth        *AuthService
	courses     *CourseService
	enrollments *EnrollmentService
	community   *CommunityService
	forum       *ForumService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	tokens := NewTokenService(config.JWTConfig{
		Secret:              "test-secret-that-is-long-enough-for-release",
		AccessExpireMinutes: 15,
		RefreshExpireHours:  24,
	})
	users := NewUserService(userRepo)

	return &testEnv{
		db:     db,
		tokens: tokens,
		users:  users,
		auth: NewAuthService(userRepo, tokens, NewBcryptHasher(bcrypt.MinCost),
			&fakeVerifier{}, nil),
		courses:     NewCourseService(db, courseRepo, lessonRepo, enrollmentRepo, progressRepo, users),
		enrollments: NewEnrollmentService(db, courseRepo, lessonRepo, enrollmentRepo, progressRepo),
		community: NewCommunityService(db, repository.NewPostRepository(db),
			repository.NewCommentRepository(db), users),
		forum: NewForumService(db, repository.NewForumCategoryRepository(db),
			repository.NewForumThreadRepository(db), repository.NewForumReplyRepository(db), users),
	}
}

func (e *testEnv) createUser(t *testing.T, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		Email:     uuid.NewString() + "@example.com",
		FirstName: "Test",
		LastName:  string(role),
		Role:      role,
		Provider:  model.ProviderLocal,
		IsActive:  true,
	}
	require.NoError(t, e.users.UserRepo.Create(context.Background(), user))
	return user
}

// publishedCourse 创建一个已发布课程及 n 个课时
func (e *testEnv) publishedCourse(t *testing.T, instructor *model.User, lessons int) (*model.Course, []*model.Lesson) {
	t.Helper()
	ctx := context.Background()
	course, err := e.courses.CreateCourse(ctx, instructor, CreateCourseRequest{
		Title:  "Go in Practice " + uuid.NewString()[:8],
		Status: model.CoursePublished,
	})
	require.NoError(t, err)

	created := make([]*model.Lesson, 0, lessons)
	for i := 0; i < lessons; i++ {
		lesson, err := e.courses.AddLesson(ctx, instructor, course.ID, LessonRequest{
			Title:         "Lesson",
			Content:       "body",
			IsFreePreview: i == 0,
		})
		require.NoError(t, err)
		created = append(created, lesson)
	}
	return course, created
}

type fakeVerifier struct {
	identity *ExternalIdentity
	err      error
}

func (v *fakeVerifier) Verify(ctx context.Context, token string) (*ExternalIdentity, error) {
	if v.err != nil {
		return nil, v.err
	}
	if v.identity == nil {
		return nil, errors.New("no identity configured")
	}
	return v.identity, nil
}

type memoryTokenStore struct {
	mu   sync.Mutex
	used map[string]bool
}

func (s *memoryTokenStore) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used == nil {
		s.used = make(map[string]bool)
	}
	if s.used[jti] {
		return false, nil
	}
	s.used[jti] = true
	return true, nil
}
