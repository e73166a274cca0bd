package service

import (
	"codenest_backend/internal/config"
	"codenest_backend/internal/model"
	"codenest_backend/internal/util"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// TokenClaims access token 额外携带 email 和 role，仅用于展示
type TokenClaims struct {
	Email string         `json:"email,omitempty"`
	Role  model.UserRole `json:"role,omitempty"`
	Type  TokenType      `json:"type"`
	jwt.RegisteredClaims
}

func (c *TokenClaims) UserID() string {
	return c.Subject
}

type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL(),
		refreshTTL: cfg.RefreshTTL(),
		now:        time.Now,
	}
}

func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *TokenService) IssueAccessToken(userID, email string, role model.UserRole) (string, error) {
	return s.sign(&TokenClaims{
		Email: email,
		Role:  role,
		Type:  AccessToken,
	}, userID, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return s.sign(&TokenClaims{Type: RefreshToken}, userID, s.refreshTTL)
}

func (s *TokenService) sign(claims *TokenClaims, userID string, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Decode 签名错误、格式错误、过期统一返回 ErrInvalidToken
func (s *TokenService) Decode(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, util.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, util.ErrInvalidToken
	}
	return claims, nil
}

// DecodeAs 额外校验 token 类型，access 和 refresh 不能混用
func (s *TokenService) DecodeAs(tokenString string, typ TokenType) (*TokenClaims, error) {
	claims, err := s.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, util.ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) Validate(tokenString string) bool {
	_, err := s.Decode(tokenString)
	return err == nil
}

func (s *TokenService) ExtractUserID(tokenString string) (string, error) {
	claims, err := s.Decode(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// RemainingLifetime token 距离过期的时间
func (s *TokenService) RemainingLifetime(claims *TokenClaims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Time.Sub(s.now())
}
