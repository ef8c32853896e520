package services

import (
	"context"
	"fmt"

	"milkpoint/internal/authz"
	"milkpoint/internal/domain"
	"milkpoint/internal/events"
	"milkpoint/internal/store"
)

type UserService struct {
	Store  *store.Store
	Events events.Publisher
}

func NewUserService(st *store.Store, ev events.Publisher) *UserService {
	return &UserService{Store: st, Events: ev}
}

func (s *UserService) ListUsers(actor authz.Principal) ([]domain.User, error) {
	if err := actor.Authorize(authz.OpUserList); err != nil {
		return nil, err
	}
	return s.Store.Users(), nil
}

// UpdateUserRole assigns role to a user. Nobody may change their own role.
func (s *UserService) UpdateUserRole(ctx context.Context, actor authz.Principal, userID string, role domain.Role) (domain.User, error) {
	if err := actor.Authorize(authz.OpUserRole); err != nil {
		return domain.User{}, err
	}
	if userID == actor.UserID {
		return domain.User{}, fmt.Errorf("%w: cannot change your own role", domain.ErrForbidden)
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return domain.User{}, err
	}

	tx := s.Store.Begin(ctx)
	defer tx.Rollback()
	if err := tx.LockUser(userID); err != nil {
		return domain.User{}, err
	}
	u, err := tx.User(userID)
	if err != nil {
		return domain.User{}, err
	}
	if u.Role == role {
		return u, nil
	}
	prev := u.Role
	u.Role = role
	if err := tx.PutUser(u); err != nil {
		return domain.User{}, err
	}
	if _, err := tx.Commit(); err != nil {
		return domain.User{}, err
	}
	publish(ctx, s.Events, events.TypeUserRoleChanged, u.ID, actor.UserID, map[string]any{"from": prev, "to": role})
	return u, nil
}
