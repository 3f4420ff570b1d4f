package security

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewSigner_缺少JWT_SECRET应失败(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := NewSignerFromEnv(""); !errors.Is(err, ErrJWTSecretMissing) {
		t.Fatalf("期望 ErrJWTSecretMissing, got=%v", err)
	}
}

func TestAwardParse_正常签发并解析(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-123")
	s, err := NewSignerFromEnv("ignored")
	if err != nil {
		t.Fatalf("NewSignerFromEnv err=%v", err)
	}

	token, err := s.Award("p-42", "cesare", "cesare@roma.it")
	if err != nil {
		t.Fatalf("Award err=%v", err)
	}

	claims, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken err=%v", err)
	}
	if claims.PID != "p-42" || claims.Username != "cesare" || claims.Email != "cesare@roma.it" {
		t.Fatalf("期望 claims 原样带回, got=%+v", claims)
	}
}

func TestParseToken_密钥不同应失败(t *testing.T) {
	a, _ := NewSigner("secret-a")
	b, _ := NewSigner("secret-b")
	token, err := a.Award("p-1", "", "")
	if err != nil {
		t.Fatalf("Award err=%v", err)
	}
	if _, err := b.ParseToken(token); !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		t.Fatalf("期望签名校验失败, got=%v", err)
	}
}

func TestParseToken_缺少pid应失败(t *testing.T) {
	s, _ := NewSigner("secret")
	token, err := s.Award("", "anon", "")
	if err != nil {
		t.Fatalf("Award err=%v", err)
	}
	if _, err := s.ParseToken(token); err == nil {
		t.Fatalf("期望 pid 为空时解析失败")
	}
}
