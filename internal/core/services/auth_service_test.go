package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/config"
	"aidledger/internal/core/domain"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   uint
	users map[uint]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = r.seq
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for id := uint(1); id <= r.seq; id++ {
		if user, ok := r.users[id]; ok {
			u := user
			out = append(out, &u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	seq    uint
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	token.ID = r.seq
	copied := *token
	r.tokens[token.TokenHash] = &copied
	return nil
}

func (r *fakeRefreshTokenRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	copied := *token
	return &copied, nil
}

func (r *fakeRefreshTokenRepo) RevokeByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.tokens[tokenHash]; ok {
		now := time.Now()
		token.RevokedAt = &now
	}
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAllByUserID(_ context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.UserID == userID {
			now := time.Now()
			token.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) error {
	return nil
}

func testAuthConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:           "access-secret",
			RefreshSecret:    "refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
}

func newAuthService() (*AuthService, *fakeUserRepo, *fakeRefreshTokenRepo) {
	userRepo := newFakeUserRepo()
	tokenRepo := newFakeRefreshTokenRepo()
	return NewAuthService(userRepo, tokenRepo, testAuthConfig()), userRepo, tokenRepo
}

func TestRegisterAlwaysLandsAsDonor(t *testing.T) {
	svc, _, _ := newAuthService()

	user, err := svc.Register(context.Background(), &RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.COM",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != string(domain.RoleDonor) {
		t.Fatalf("expected DONOR, got %s", user.Role)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.Password == "supersecret" {
		t.Fatal("password must be stored hashed")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, &RegisterInput{Username: "alice", Email: "a@b.co", Password: "supersecret"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, &RegisterInput{Username: "alice", Email: "other@b.co", Password: "supersecret"}); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
	if _, err := svc.Register(ctx, &RegisterInput{Username: "bob", Email: "a@b.co", Password: "supersecret"}); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _, _ := newAuthService()

	_, err := svc.Register(context.Background(), &RegisterInput{Username: "alice", Email: "a@b.co", Password: "short"})
	if !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestLoginAndRefreshRotation(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, &RegisterInput{Username: "alice", Email: "a@b.co", Password: "supersecret"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, &LoginInput{Username: "alice", Password: "wrong-password"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	_, pair, err := svc.Login(ctx, &LoginInput{Username: "alice", Password: "supersecret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	// The spent token is revoked and cannot be replayed
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on replay, got %v", err)
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, userRepo, _ := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, &RegisterInput{Username: "alice", Email: "a@b.co", Password: "supersecret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user.IsActive = false
	if err := userRepo.Update(ctx, user); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, _, err := svc.Login(ctx, &LoginInput{Username: "alice", Password: "supersecret"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
