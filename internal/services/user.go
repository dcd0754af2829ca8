package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jjudge-oj/grader/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// ErrInvalidUser is returned for registrations missing required fields.
var ErrInvalidUser = errors.New("invalid user")

// UserService encapsulates the identity use-cases the grader needs.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}

// Register stores a new participant. Roles are never taken from the
// request; admins are promoted out of band.
func (s *UserService) Register(ctx context.Context, user types.User) (types.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.TrimSpace(user.Email)
	if user.Username == "" || user.Email == "" || user.PasswordHash == "" {
		return types.User{}, fmt.Errorf("%w: username, email and password are required", ErrInvalidUser)
	}
	user.Role = types.RoleUser
	return s.repo.Create(ctx, user)
}
