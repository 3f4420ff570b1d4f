package security

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrJWTSecretMissing = errors.New("JWT_SECRET is not set")

const defaultTTL = 7 * 24 * time.Hour

// Claims 身份提供方签发的玩家身份：pid 是稳定的玩家 id，username/email 是资料。
type Claims struct {
	PID      string `json:"pid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Signer HS256 签发/校验。引擎自身不做登录，签发只给本地联调和测试用。
type Signer struct {
	key []byte
	ttl time.Duration
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrJWTSecretMissing
	}
	return &Signer{key: []byte(secret), ttl: defaultTTL}, nil
}

// NewSignerFromEnv 环境变量 JWT_SECRET 优先，否则用传入的配置值。
func NewSignerFromEnv(fallback string) (*Signer, error) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return NewSigner(secret)
	}
	return NewSigner(fallback)
}

// Award 生成 Token（默认 7 天过期）。
func (s *Signer) Award(pid, username, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		PID:      pid,
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   pid,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// ParseToken 解析并验证 Token。
func (s *Signer) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.key, nil
	})
	if err != nil {
		return nil, err
	}
	if token == nil || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.PID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
