package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/harentsoaR/medivault-api/internal/logger"
	"github.com/harentsoaR/medivault-api/internal/models"
	"github.com/harentsoaR/medivault-api/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	backend, err := store.OpenMemory()
	require.NoError(t, err)
	s := store.New(backend, logger.Discard())
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func newTestAuth(t *testing.T, repo store.Repository) (*AuthService, *Session) {
	t.Helper()
	session := NewSession(repo, logger.Discard())
	svc := NewAuthService(repo, session, logger.Discard())
	svc.now = func() time.Time { return fixedNow }
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("user-%d", n)
	}
	return svc, session
}

func newTestRecords(t *testing.T, repo store.Repository) *RecordService {
	t.Helper()
	svc := NewRecordService(repo, NewShareTokens("medivault"), 0, logger.Discard())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func samplePatient() PatientRegistration {
	return PatientRegistration{
		Name:        "Ann Lee",
		Email:       "a@x.com",
		Phone:       "5551234567",
		Password:    "secret1",
		DateOfBirth: "1990-01-01",
		Age:         36,
		Place:       "Springfield",
		BloodGroup:  "O+",
	}
}

func sampleDoctor() DoctorRegistration {
	return DoctorRegistration{
		Name:         "Dr Bo",
		Email:        "doc@x.com",
		UID:          "MD123456",
		Password:     "secret1",
		DateOfBirth:  "1980-05-05",
		Place:        "Shelbyville",
		HospitalName: "City General",
		Speciality:   "Cardiology",
	}
}

func ptr[T any](v T) *T { return &v }

// MockRepository is a mock implementation of store.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) LoadUsers(ctx context.Context) []models.User {
	args := m.Called(ctx)
	return args.Get(0).([]models.User)
}

func (m *MockRepository) SaveUsers(ctx context.Context, users []models.User) error {
	args := m.Called(ctx, users)
	return args.Error(0)
}

func (m *MockRepository) LoadReports(ctx context.Context) []models.PatientReport {
	args := m.Called(ctx)
	return args.Get(0).([]models.PatientReport)
}

func (m *MockRepository) SaveReports(ctx context.Context, reports []models.PatientReport) error {
	args := m.Called(ctx, reports)
	return args.Error(0)
}

func (m *MockRepository) LoadDonors(ctx context.Context) []models.BloodDonor {
	args := m.Called(ctx)
	return args.Get(0).([]models.BloodDonor)
}

func (m *MockRepository) SaveDonors(ctx context.Context, donors []models.BloodDonor) error {
	args := m.Called(ctx, donors)
	return args.Error(0)
}

func (m *MockRepository) Session(ctx context.Context) *models.User {
	args := m.Called(ctx)
	u, _ := args.Get(0).(*models.User)
	return u
}

func (m *MockRepository) SetSession(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) ClearSession(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
