package services

import (
	"context"
	"sync"

	"github.com/harentsoaR/medivault-api/internal/logger"
	"github.com/harentsoaR/medivault-api/internal/models"
	"github.com/harentsoaR/medivault-api/internal/store"
	"github.com/sirupsen/logrus"
)

// Session holds the single currently authenticated identity. It mirrors the
// store's current_user key and is the only writer of it.
type Session struct {
	repo store.Repository
	log  *logrus.Entry

	mu      sync.RWMutex
	current *models.User
}

func NewSession(repo store.Repository, log *logger.Logger) *Session {
	return &Session{repo: repo, log: log.WithComponent("session")}
}

// Restore loads the persisted session pointer. A pointer whose user can no
// longer be found by identifier is cleared.
func (s *Session) Restore(ctx context.Context) error {
	u := s.repo.Session(ctx)
	if u == nil {
		return nil
	}

	for _, stored := range s.repo.LoadUsers(ctx) {
		if stored.ID() == u.ID() {
			s.mu.Lock()
			s.current = &stored
			s.mu.Unlock()
			s.log.WithField("user_id", stored.ID()).Info("Session restored")
			return nil
		}
	}

	s.log.WithField("user_id", u.ID()).Warn("Session references a missing user, clearing")
	return s.repo.ClearSession(ctx)
}

// Current returns a copy of the session user, or nil.
func (s *Session) Current() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

func (s *Session) Set(ctx context.Context, u models.User) error {
	if err := s.repo.SetSession(ctx, u); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = &u
	s.mu.Unlock()
	return nil
}

func (s *Session) Clear(ctx context.Context) error {
	if err := s.repo.ClearSession(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return nil
}

// ClearFor clears the session only if it belongs to userID. It reports
// whether anything was cleared.
func (s *Session) ClearFor(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID() != userID {
		return false, nil
	}
	if err := s.repo.ClearSession(ctx); err != nil {
		return false, err
	}
	s.current = nil
	return true, nil
}

// refresh replaces the session user if it has the given identifier.
func (s *Session) refresh(ctx context.Context, u models.User) error {
	s.mu.RLock()
	matches := s.current != nil && s.current.ID() == u.ID()
	s.mu.RUnlock()
	if !matches {
		return nil
	}
	return s.Set(ctx, u)
}
