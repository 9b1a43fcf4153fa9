package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/app/repositories"
	"github.com/bistroboss/bistro/pkg/event"
	"github.com/bistroboss/bistro/pkg/rbac"
)

type UserService struct {
	users  UserStore
	events *event.Bus
}

func NewUserService(users UserStore, events *event.Bus) *UserService {
	return &UserService{users: users, events: events}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.All(ctx)
}

// Register stores a new customer. The role is never taken from the request;
// promotion is a separate admin operation.
func (s *UserService) Register(ctx context.Context, user models.User) (models.InsertResult, error) {
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return models.InsertResult{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	user.ID = primitive.NilObjectID
	user.Role = models.RoleCustomer

	id, err := s.users.Create(ctx, &user)
	if errors.Is(err, repositories.ErrDuplicate) {
		return models.InsertResult{}, fmt.Errorf("%w: user %s", ErrDuplicate, user.Email)
	}
	if err != nil {
		return models.InsertResult{}, err
	}
	return models.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// IsAdmin reports whether email belongs to an admin. Unknown emails are
// simply not admins.
func (s *UserService) IsAdmin(ctx context.Context, email string) (bool, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsAdmin(), nil
}

// RoleByEmail satisfies rbac.RoleLookup.
func (s *UserService) RoleByEmail(ctx context.Context, email string) (string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", rbac.ErrUnknownUser
	}
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// Promote grants the admin role to the user with the given id. An unknown
// id is ErrNotFound.
func (s *UserService) Promote(ctx context.Context, idHex string) (models.UpdateResult, error) {
	id, err := parseID(idHex)
	if err != nil {
		return models.UpdateResult{}, err
	}

	matched, modified, err := s.users.SetRole(ctx, id, models.RoleAdmin)
	if err != nil {
		return models.UpdateResult{}, err
	}
	if matched == 0 {
		return models.UpdateResult{}, fmt.Errorf("%w: user %s", ErrNotFound, id.Hex())
	}
	if modified > 0 {
		s.events.FireAsync(ctx, event.UserPromoted, id)
	}
	return models.UpdateResult{Acknowledged: true, MatchedCount: matched, ModifiedCount: modified}, nil
}
