package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/repository"
	"codenest_backend/internal/util"
	"codenest_backend/pkg/logger"
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// UserProfile 本人可见的完整资料
type UserProfile struct {
	ID        string             `json:"id"`
	Email     string             `json:"email"`
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	AvatarURL *string            `json:"avatarUrl"`
	Bio       *string            `json:"bio"`
	Role      model.UserRole     `json:"role"`
	Provider  model.AuthProvider `json:"provider"`
	IsActive  bool               `json:"isActive"`
	CreatedAt time.Time          `json:"createdAt"`
}

func NewUserProfile(u *model.User) *UserProfile {
	return &UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		Bio:       u.Bio,
		Role:      u.Role,
		Provider:  u.Provider,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// PublicProfile 他人可见的资料，不含邮箱和简介
type PublicProfile struct {
	ID        string         `json:"id"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	AvatarURL *string        `json:"avatarUrl"`
	Role      model.UserRole `json:"role"`
}

func NewPublicProfile(u *model.User) *PublicProfile {
	return &PublicProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
	}
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=60"`
	LastName  *string `json:"lastName" binding:"omitempty,max=60"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,max=1024"`
}

// UserFilter 管理端用户筛选条件
type UserFilter struct {
	Role   model.UserRole
	Search string
}

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

func (s *UserService) GetProfile(ctx context.Context, caller *model.User) (*UserProfile, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	return NewUserProfile(caller), nil
}

// UpdateProfile 名字为空时保持不变，简介和头像为空时清空
func (s *UserService) UpdateProfile(ctx context.Context, caller *model.User, req UpdateProfileRequest) (*UserProfile, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}

	user, err := s.UserRepo.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrUserNotFound)
	}

	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) != "" {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) != "" {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Bio != nil {
		user.Bio = optionalString(*req.Bio)
	}
	if req.AvatarURL != nil {
		user.AvatarURL = optionalString(*req.AvatarURL)
	}

	if err := s.UserRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return NewUserProfile(user), nil
}

func (s *UserService) GetPublicProfile(ctx context.Context, id string) (*PublicProfile, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrUserNotFound)
	}
	if !user.IsActive {
		return nil, util.ErrUserNotFound
	}
	return NewPublicProfile(user), nil
}

// PublicProfiles 批量查询作者信息，返回 id -> 资料
func (s *UserService) PublicProfiles(ctx context.Context, ids []string) (map[string]*PublicProfile, error) {
	users, err := s.UserRepo.FindByIDs(ctx, uniqueStrings(ids))
	if err != nil {
		return nil, err
	}
	profiles := make(map[string]*PublicProfile, len(users))
	for i := range users {
		profiles[users[i].ID] = NewPublicProfile(&users[i])
	}
	return profiles, nil
}

func (s *UserService) ListUsers(ctx context.Context, caller *model.User, filter UserFilter, p util.Pagination) ([]UserProfile, int64, error) {
	if !caller.IsAdmin() {
		return nil, 0, util.ErrAdminOnly
	}

	query := s.UserRepo.DB.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	if err := query.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	profiles := make([]UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, *NewUserProfile(&users[i]))
	}
	return profiles, total, nil
}

func (s *UserService) SetRole(ctx context.Context, caller *model.User, id string, role model.UserRole) (*UserProfile, error) {
	if !caller.IsAdmin() {
		return nil, util.ErrAdminOnly
	}
	if !model.ValidRole(role) {
		return nil, util.NewValidationError("unknown role " + string(role))
	}

	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrUserNotFound)
	}
	user.Role = role
	if err := s.UserRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	logger.Log.Info("User role changed",
		zap.String("userId", user.ID),
		zap.String("role", string(role)),
		zap.String("by", caller.ID),
	)
	return NewUserProfile(user), nil
}

// SetActive 管理员不能停用自己
func (s *UserService) SetActive(ctx context.Context, caller *model.User, id string, active bool) error {
	if !caller.IsAdmin() {
		return util.ErrAdminOnly
	}
	if caller.ID == id && !active {
		return util.NewValidationError("admins cannot deactivate themselves")
	}
	if _, err := s.UserRepo.FindByID(ctx, id); err != nil {
		return util.NotFoundAs(err, util.ErrUserNotFound)
	}
	if err := s.UserRepo.SetActive(ctx, id, active); err != nil {
		return err
	}

	logger.Log.Info("User activation changed",
		zap.String("userId", id),
		zap.Bool("active", active),
		zap.String("by", caller.ID),
	)
	return nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
