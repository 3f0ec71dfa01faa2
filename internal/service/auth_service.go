package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/documind/documind/internal/model"
	"github.com/documind/documind/internal/pkg/errs"
	"github.com/documind/documind/internal/pkg/jwt"
	"github.com/documind/documind/internal/pkg/password"
	"github.com/documind/documind/internal/repo"
)

type AuthService struct {
	users  *repo.UserRepo
	secret []byte
	ttl    time.Duration
}

func NewAuthService(users *repo.UserRepo, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, secret: secret, ttl: ttl}
}

func (s *AuthService) Register(ctx context.Context, username, email, plain string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || len(plain) < 6 {
		return nil, "", errs.ErrInvalid
	}
	hashed, err := password.Hash(plain)
	if err != nil {
		return nil, "", err
	}
	user := &model.User{
		ID:       newID(),
		Username: username,
		Email:    email,
		Password: hashed,
		Ctime:    time.Now().UnixMilli(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.secret, s.ttl)
	if err != nil {
		return nil, "", err
	}
	logutil.GetLogger(ctx).Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, plain string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == errs.ErrNotFound {
			return nil, "", errs.ErrUnauthorized
		}
		return nil, "", err
	}
	if err := password.Compare(user.Password, plain); err != nil {
		return nil, "", errs.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.secret, s.ttl)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
