package service

import (
	"codenest_backend/internal/util"
	"context"
	"errors"
	"strings"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher 单向加盐哈希
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(plain, digest string) bool
}

type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// bcrypt 只接受 72 字节以内的输入，按字节而不是字符计算
const maxPasswordBytes = 72

var errPasswordTooLong = util.NewValidationError("password must be at most 72 bytes")

func (h *BcryptHasher) Hash(plain string) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", errPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h *BcryptHasher) Matches(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// ExternalIdentity 第三方身份提供方校验后的用户信息
type ExternalIdentity struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
	PictureURL string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*ExternalIdentity, error)
}

var ErrIdentityProviderDisabled = errors.New("external identity provider is not configured")

// GoogleIdentityVerifier 校验 Google ID Token 的签名与 audience
type GoogleIdentityVerifier struct {
	ClientID string
}

func NewGoogleIdentityVerifier(clientID string) *GoogleIdentityVerifier {
	return &GoogleIdentityVerifier{ClientID: clientID}
}

func (v *GoogleIdentityVerifier) Verify(ctx context.Context, token string) (*ExternalIdentity, error) {
	if v.ClientID == "" {
		return nil, ErrIdentityProviderDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	verifier := googleAuthIDTokenVerifier.Verifier{}
	if err := verifier.VerifyIDToken(token, []string{v.ClientID}); err != nil {
		return nil, err
	}

	claimSet, err := googleAuthIDTokenVerifier.Decode(token)
	if err != nil {
		return nil, err
	}

	identity := &ExternalIdentity{
		Subject:    claimSet.Sub,
		Email:      claimSet.Email,
		GivenName:  claimSet.GivenName,
		FamilyName: claimSet.FamilyName,
		PictureURL: claimSet.Picture,
	}
	if identity.GivenName == "" && identity.FamilyName == "" {
		identity.GivenName, identity.FamilyName = splitName(claimSet.Name)
	}
	return identity, nil
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
