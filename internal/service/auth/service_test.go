package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisiotrack/clinic-api/internal/model"
	pkgauth "github.com/fisiotrack/clinic-api/pkg/auth"
	apperrors "github.com/fisiotrack/clinic-api/pkg/errors"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFound("user", nil)
}

func (r *memUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.NewNotFound("user", nil)
}

func newServiceFixture() Service {
	return NewService(newMemUserRepo(), pkgauth.NewJWTService("test-secret", 1))
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc := newServiceFixture()

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email: "  Ana.Fisio@Example.COM ", Password: "segredo123",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana.fisio@example.com", user.Email)
	assert.NotEqual(t, "segredo123", user.PasswordHash)
	assert.NotEqual(t, uuid.Nil, user.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newServiceFixture()

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email: "ana@example.com", Password: "segredo123",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &model.RegisterRequest{
		Email: "ANA@example.com", Password: "outrasenha",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc := newServiceFixture()

	registered, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email: "ana@example.com", Password: "segredo123",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email: "ana@example.com", Password: "segredo123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, registered.ID, resp.User.ID)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newServiceFixture()

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email: "ana@example.com", Password: "segredo123",
	})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(context.Background(), &model.LoginRequest{
		Email: "ana@example.com", Password: "errada",
	})
	_, unknownEmail := svc.Login(context.Background(), &model.LoginRequest{
		Email: "ninguem@example.com", Password: "segredo123",
	})

	assert.True(t, apperrors.IsUnauthenticated(wrongPassword))
	assert.True(t, apperrors.IsUnauthenticated(unknownEmail))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc := newServiceFixture()

	_, err := svc.ValidateToken(context.Background(), "not.a.token")
	assert.True(t, apperrors.IsUnauthenticated(err))

	other := NewService(newMemUserRepo(), pkgauth.NewJWTService("other-secret", 1))
	registered, err := other.Register(context.Background(), &model.RegisterRequest{
		Email: "ana@example.com", Password: "segredo123",
	})
	require.NoError(t, err)
	resp, err := other.Login(context.Background(), &model.LoginRequest{
		Email: registered.Email, Password: "segredo123",
	})
	require.NoError(t, err)

	// Token signed with a different secret.
	_, err = svc.ValidateToken(context.Background(), resp.Token)
	assert.True(t, apperrors.IsUnauthenticated(err))
}
