package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harentsoaR/medivault-api/internal/logger"
	"github.com/harentsoaR/medivault-api/internal/models"
	"github.com/sirupsen/logrus"
)

// Fixed keys of the four logical collections.
const (
	KeyUsers          = "users"
	KeyCurrentUser    = "current_user"
	KeyPatientReports = "patient_reports"
	KeyBloodDonors    = "blood_donors"
)

// Repository is the narrow persistence contract the services depend on.
// Every Load returns the whole collection and every Save replaces it.
// Loads never fail: a missing or undecodable collection reads as empty.
type Repository interface {
	LoadUsers(ctx context.Context) []models.User
	SaveUsers(ctx context.Context, users []models.User) error
	LoadReports(ctx context.Context) []models.PatientReport
	SaveReports(ctx context.Context, reports []models.PatientReport) error
	LoadDonors(ctx context.Context) []models.BloodDonor
	SaveDonors(ctx context.Context, donors []models.BloodDonor) error

	Session(ctx context.Context) *models.User
	SetSession(ctx context.Context, user models.User) error
	ClearSession(ctx context.Context) error
}

// Store implements Repository by JSON-encoding collections into a Backend.
type Store struct {
	backend Backend
	log     *logrus.Entry
}

func New(backend Backend, log *logger.Logger) *Store {
	return &Store{backend: backend, log: log.WithComponent("store")}
}

func (s *Store) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}

func (s *Store) LoadUsers(ctx context.Context) []models.User {
	return load[models.User](ctx, s, KeyUsers)
}

func (s *Store) SaveUsers(ctx context.Context, users []models.User) error {
	return save(ctx, s, KeyUsers, users)
}

func (s *Store) LoadReports(ctx context.Context) []models.PatientReport {
	return load[models.PatientReport](ctx, s, KeyPatientReports)
}

func (s *Store) SaveReports(ctx context.Context, reports []models.PatientReport) error {
	return save(ctx, s, KeyPatientReports, reports)
}

func (s *Store) LoadDonors(ctx context.Context) []models.BloodDonor {
	return load[models.BloodDonor](ctx, s, KeyBloodDonors)
}

func (s *Store) SaveDonors(ctx context.Context, donors []models.BloodDonor) error {
	return save(ctx, s, KeyBloodDonors, donors)
}

// Session returns the current session user, or nil when none is stored.
func (s *Store) Session(ctx context.Context) *models.User {
	raw, ok := s.read(ctx, KeyCurrentUser)
	if !ok {
		return nil
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		s.log.WithError(err).WithField("key", KeyCurrentUser).Warn("Decode failure, treating session as absent")
		return nil
	}
	return &u
}

func (s *Store) SetSession(ctx context.Context, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyCurrentUser, err)
	}
	return s.backend.Put(ctx, KeyCurrentUser, data)
}

func (s *Store) ClearSession(ctx context.Context) error {
	return s.backend.Delete(ctx, KeyCurrentUser)
}

func (s *Store) read(ctx context.Context, key string) ([]byte, bool) {
	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Read failed, treating as empty")
		return nil, false
	}
	return raw, true
}

func load[T any](ctx context.Context, s *Store, key string) []T {
	raw, ok := s.read(ctx, key)
	if !ok {
		return []T{}
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Decode failure, treating collection as empty")
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

func save[T any](ctx context.Context, s *Store, key string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.backend.Put(ctx, key, data)
}
