package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lookupbot/credit-engine/internal/core/domain"
)

type stubOperatorRepo struct {
	operators map[string]*domain.Operator
}

func newStubOperatorRepo() *stubOperatorRepo {
	return &stubOperatorRepo{operators: make(map[string]*domain.Operator)}
}

func cloneOperator(op *domain.Operator) *domain.Operator {
	if op == nil {
		return nil
	}
	clone := *op
	return &clone
}

func (r *stubOperatorRepo) Create(_ context.Context, op *domain.Operator) (*domain.Operator, error) {
	if _, exists := r.operators[op.Username]; exists {
		return nil, domain.ErrOperatorExists
	}
	copy := cloneOperator(op)
	if copy.ID == "" {
		copy.ID = op.Username
	}
	r.operators[copy.Username] = cloneOperator(copy)
	return cloneOperator(copy), nil
}

func (r *stubOperatorRepo) FindByUsername(_ context.Context, username string) (*domain.Operator, error) {
	op, ok := r.operators[username]
	if !ok {
		return nil, domain.ErrOperatorNotFound
	}
	return cloneOperator(op), nil
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	op, err := svc.Register(context.Background(), "alice", "pass123", "alice@example.com", domain.RoleOperator)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if op == nil {
		t.Fatalf("expected operator, got nil")
	}
	if op.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if op.Role != domain.RoleOperator {
		t.Fatalf("unexpected role: %s", op.Role)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	if _, err := svc.Register(context.Background(), "", "pass", "", domain.RoleOperator); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Register(context.Background(), "bob", "pass", "bob@example.com", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for bad role, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	_, _ = svc.Register(context.Background(), "bob", "pass", "bob@example.com", domain.RoleOperator)
	if _, err := svc.Register(context.Background(), "bob", "pass2", "bob@example.com", domain.RoleOperator); err != domain.ErrOperatorExists {
		t.Fatalf("expected ErrOperatorExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	if _, err := svc.Register(context.Background(), "carol", "s3cret", "carol@example.com", domain.RoleAdmin); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, op, err := svc.Login(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if op.Username != "carol" {
		t.Fatalf("unexpected operator: %+v", op)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims["username"] != "carol" {
		t.Fatalf("unexpected username claim: %v", claims["username"])
	}
	if claims["role"] != domain.RoleAdmin {
		t.Fatalf("unexpected role claim: %v", claims["role"])
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	_, _ = svc.Register(context.Background(), "dave", "right", "dave@example.com", domain.RoleOperator)
	if _, _, err := svc.Login(context.Background(), "dave", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownOperator(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	if _, _, err := svc.Login(context.Background(), "ghost", "pass"); err != domain.ErrOperatorNotFound {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
}
