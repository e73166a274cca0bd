package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/repository"
	"codenest_backend/internal/util"
	"codenest_backend/pkg/logger"
	"codenest_backend/pkg/monitoring"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RefreshTokenStore 记录已使用的 refresh token，为 nil 时不做吊销
type RefreshTokenStore interface {
	Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"firstName" binding:"required,max=60"`
	LastName  string `json:"lastName" binding:"required,max=60"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ExternalLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         *UserProfile `json:"user"`
}

type AuthService struct {
	UserRepo     *repository.UserRepository
	Tokens       *TokenService
	Hasher       PasswordHasher
	Verifier     IdentityVerifier
	RefreshStore RefreshTokenStore
}

func NewAuthService(
	userRepo *repository.UserRepository,
	tokens *TokenService,
	hasher PasswordHasher,
	verifier IdentityVerifier,
	refreshStore RefreshTokenStore,
) *AuthService {
	return &AuthService{
		UserRepo:     userRepo,
		Tokens:       tokens,
		Hasher:       hasher,
		Verifier:     verifier,
		RefreshStore: refreshStore,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func authOutcome(err error) string {
	return util.KindOf(err).String()
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (resp *AuthResponse, err error) {
	defer func() { monitoring.RecordAuth("register", err, authOutcome) }()

	email := normalizeEmail(req.Email)
	exists, err := s.UserRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrEmailRegistered
	}

	digest, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: &digest,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         model.Student,
		Provider:     model.ProviderLocal,
		IsActive:     true,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, util.DuplicateAs(err, util.ErrEmailRegistered)
	}

	logger.Log.Info("User registered", zap.String("userId", user.ID))
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (resp *AuthResponse, err error) {
	defer func() { monitoring.RecordAuth("password", err, authOutcome) }()

	user, err := s.UserRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrInvalidCredentials)
	}

	// 仅第三方登录的账号没有本地密码
	if !user.HasLocalPassword() || !s.Hasher.Matches(req.Password, *user.PasswordHash) {
		return nil, util.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, util.ErrAccountDeactivated
	}

	return s.issue(user)
}

// LoginWithExternalIdentity 依次按外部 subject、邮箱查找用户，都找不到时新建
func (s *AuthService) LoginWithExternalIdentity(ctx context.Context, externalToken string) (resp *AuthResponse, err error) {
	defer func() { monitoring.RecordAuth("external", err, authOutcome) }()

	identity, err := s.Verifier.Verify(ctx, externalToken)
	if err != nil {
		logger.Log.Debug("External identity verification failed", zap.Error(err))
		return nil, util.ErrExternalIdentity
	}
	if identity.Subject == "" || identity.Email == "" {
		return nil, util.ErrExternalIdentity
	}

	user, err := s.resolveExternalUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, util.ErrAccountDeactivated
	}
	return s.issue(user)
}

func (s *AuthService) resolveExternalUser(ctx context.Context, identity *ExternalIdentity) (*model.User, error) {
	user, err := s.UserRepo.FindByExternalID(ctx, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	email := normalizeEmail(identity.Email)
	user, err = s.UserRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.ExternalID == nil {
			subject := identity.Subject
			user.ExternalID = &subject
			user.Provider = model.ProviderExternal
			if err := s.UserRepo.Update(ctx, user); err != nil {
				return nil, err
			}
			logger.Log.Info("Linked external identity", zap.String("userId", user.ID))
		}
		return user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	subject := identity.Subject
	user = &model.User{
		Email:      email,
		FirstName:  firstNonEmpty(identity.GivenName, strings.SplitN(email, "@", 2)[0]),
		LastName:   identity.FamilyName,
		AvatarURL:  optionalString(identity.PictureURL),
		Role:       model.Student,
		Provider:   model.ProviderExternal,
		ExternalID: &subject,
		IsActive:   true,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, util.DuplicateAs(err, util.ErrEmailRegistered)
	}
	logger.Log.Info("User registered via external identity", zap.String("userId", user.ID))
	return user, nil
}

// Refresh 每次都签发新的 access/refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (resp *AuthResponse, err error) {
	defer func() { monitoring.RecordAuth("refresh", err, authOutcome) }()

	claims, err := s.Tokens.DecodeAs(refreshToken, RefreshToken)
	if err != nil {
		return nil, err
	}

	if s.RefreshStore != nil {
		first, err := s.RefreshStore.Consume(ctx, claims.ID, s.Tokens.RemainingLifetime(claims))
		if err != nil {
			return nil, err
		}
		if !first {
			logger.Log.Warn("Refresh token reuse rejected", zap.String("userId", claims.Subject))
			return nil, util.ErrInvalidToken
		}
	}

	user, err := s.UserRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrUserNotFound)
	}
	if !user.IsActive {
		return nil, util.ErrAccountDeactivated
	}
	return s.issue(user)
}

// ResolveIdentity 解析 access token 对应的当前用户，任何失败都返回 nil
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken string) *model.User {
	claims, err := s.Tokens.DecodeAs(accessToken, AccessToken)
	if err != nil {
		return nil
	}
	user, err := s.UserRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Warn("Identity lookup failed", zap.Error(err))
		}
		return nil
	}
	if !user.IsActive {
		return nil
	}
	return user
}

func (s *AuthService) issue(user *model.User) (*AuthResponse, error) {
	access, err := s.Tokens.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.Tokens.AccessTTL().Seconds()),
		User:         NewUserProfile(user),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
