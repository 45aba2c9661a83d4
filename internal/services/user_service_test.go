package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prepvoice/prepvoice/internal/models"
	"github.com/prepvoice/prepvoice/internal/utils"
)

type fakeUserRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	touched []string
	err     error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, utils.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, utils.ErrNotFound
}

func (f *fakeUserRepo) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

const testSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewUserService(repo, testSecret)

	reg, err := svc.Register(context.Background(), "Dana", "dana@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Token == "" || reg.User.ID == "" {
		t.Fatalf("result = %+v", reg)
	}
	if reg.User.Role != models.RoleUser {
		t.Fatalf("role = %q", reg.User.Role)
	}
	if reg.User.PasswordHash == "hunter22" {
		t.Fatal("password must be hashed")
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(reg.Token, claims, func(t *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		t.Fatalf("token parse: %v", err)
	}
	if claims["sub"] != reg.User.ID || claims["name"] != "Dana" || claims["role"] != "user" {
		t.Fatalf("claims = %v", claims)
	}

	login, err := svc.Login(context.Background(), "dana@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != reg.User.ID || login.Token == "" {
		t.Fatalf("login = %+v", login)
	}
	if len(repo.touched) != 1 || repo.touched[0] != reg.User.ID {
		t.Fatalf("touched = %v", repo.touched)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newFakeUserRepo(), testSecret)
	if _, err := svc.Register(context.Background(), "", "a@b.c", "pw"); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewUserService(repo, testSecret)

	if _, err := svc.Register(context.Background(), "Dana", "dana@example.com", "pw1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "Other", "dana@example.com", "pw2"); !utils.IsCode(err, utils.CodeConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewUserService(repo, testSecret)

	if _, err := svc.Register(context.Background(), "Dana", "dana@example.com", "correct"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "dana@example.com", "wrong"); !utils.IsCode(err, utils.CodeUnauthorized) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "whatever"); !utils.IsCode(err, utils.CodeUnauthorized) {
		t.Fatalf("unknown email err = %v", err)
	}
}

func TestUserServiceGet(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewUserService(repo, testSecret)

	reg, err := svc.Register(context.Background(), "Dana", "dana@example.com", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := svc.Get(context.Background(), reg.User.ID)
	if err != nil || u.Email != "dana@example.com" {
		t.Fatalf("Get = %+v, %v", u, err)
	}

	if _, err := svc.Get(context.Background(), "missing"); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("missing err = %v", err)
	}
	if _, err := svc.Get(context.Background(), ""); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("empty err = %v", err)
	}
}
