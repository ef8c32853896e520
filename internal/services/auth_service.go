package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"milkpoint/internal/authz"
	"milkpoint/internal/domain"
	"milkpoint/internal/store"
)

var ErrBadCreds = errors.New("invalid email or password")

// SessionRepo binds opaque session ids to users.
type SessionRepo interface {
	BindSession(sid, userID string) error
	UnbindSession(sid string) error
	SessionUserID(sid string) (string, error)
}

type AuthService struct {
	Store    *store.Store
	Sessions SessionRepo
}

func (s *AuthService) byEmail(email string) (domain.User, bool) {
	for _, u := range s.Store.Users() {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return domain.User{}, false
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, ok := s.byEmail(strings.TrimSpace(email))
	if !ok {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Sessions.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Sessions.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	uid, err := s.Sessions.SessionUserID(sid)
	if err != nil {
		return nil, err
	}
	u, ok := s.Store.User(uid)
	if !ok {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, uid)
	}
	return &u, nil
}

// Principal resolves the caller behind a session id.
func (s *AuthService) Principal(sid string) (authz.Principal, error) {
	u, err := s.CurrentUser(sid)
	if err != nil {
		return authz.Principal{}, err
	}
	return authz.Principal{UserID: u.ID, Role: u.Role}, nil
}
