package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harentsoaR/medivault-api/internal/logger"
	"github.com/harentsoaR/medivault-api/internal/models"
	"github.com/harentsoaR/medivault-api/internal/store"
	"github.com/sirupsen/logrus"
)

type PatientRegistration struct {
	Name        string
	Email       string
	Phone       string
	Password    string
	DateOfBirth string
	Age         int
	Place       string
	BloodGroup  string
}

type DoctorRegistration struct {
	Name         string
	Email        string
	UID          string
	Password     string
	DateOfBirth  string
	Place        string
	HospitalName string
	Speciality   string
}

// AuthService registers and authenticates patients and doctors.
//
// Passwords are accepted but never stored or checked: a login succeeds on an
// identifier match alone. Duplicate checks are exact, case-sensitive string
// comparisons.
type AuthService struct {
	repo    store.Repository
	session *Session
	log     *logrus.Entry

	now   func() time.Time
	newID func() string

	// serializes read-modify-write cycles on the users collection
	mu sync.Mutex
}

func NewAuthService(repo store.Repository, session *Session, log *logger.Logger) *AuthService {
	return &AuthService{
		repo:    repo,
		session: session,
		log:     log.WithComponent("auth"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// RegisterPatient stores a new patient. It does not log the patient in.
func (s *AuthService) RegisterPatient(ctx context.Context, data PatientRegistration) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.repo.LoadUsers(ctx)
	for _, u := range users {
		if u.Email() == data.Email || (u.Patient != nil && u.Patient.Phone == data.Phone) {
			s.log.WithField("email", data.Email).Info("Patient registration rejected: duplicate identity")
			return nil, duplicate("Email or phone number already registered")
		}
	}

	p := models.Patient{
		Account: models.Account{
			ID:          s.newID(),
			Type:        models.RolePatient,
			Email:       data.Email,
			Name:        data.Name,
			DateOfBirth: data.DateOfBirth,
			Place:       data.Place,
			CreatedAt:   s.now().UTC(),
		},
		Phone:      data.Phone,
		Age:        data.Age,
		BloodGroup: data.BloodGroup,
	}

	if err := s.repo.SaveUsers(ctx, append(users, models.PatientUser(p))); err != nil {
		return nil, fmt.Errorf("save patient: %w", err)
	}
	s.log.WithField("user_id", p.ID).Info("Patient registered")
	return &p, nil
}

// RegisterDoctor stores a new doctor. It does not log the doctor in.
func (s *AuthService) RegisterDoctor(ctx context.Context, data DoctorRegistration) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.repo.LoadUsers(ctx)
	for _, u := range users {
		if u.Email() == data.Email || (u.Doctor != nil && u.Doctor.UID == data.UID) {
			s.log.WithField("email", data.Email).Info("Doctor registration rejected: duplicate identity")
			return nil, duplicate("Email or UID already registered")
		}
	}

	d := models.Doctor{
		Account: models.Account{
			ID:          s.newID(),
			Type:        models.RoleDoctor,
			Email:       data.Email,
			Name:        data.Name,
			DateOfBirth: data.DateOfBirth,
			Place:       data.Place,
			CreatedAt:   s.now().UTC(),
		},
		UID:          data.UID,
		HospitalName: data.HospitalName,
		Speciality:   data.Speciality,
	}

	if err := s.repo.SaveUsers(ctx, append(users, models.DoctorUser(d))); err != nil {
		return nil, fmt.Errorf("save doctor: %w", err)
	}
	s.log.WithField("user_id", d.ID).Info("Doctor registered")
	return &d, nil
}

// LoginPatient finds a patient whose email or phone equals identifier.
// The password is not verified. The caller sets the session.
func (s *AuthService) LoginPatient(ctx context.Context, identifier, _ string) (*models.Patient, error) {
	for _, u := range s.repo.LoadUsers(ctx) {
		if p := u.Patient; p != nil && (p.Email == identifier || p.Phone == identifier) {
			return p, nil
		}
	}
	return nil, notFound("User not found")
}

// LoginDoctor finds a doctor by UID. The password is not verified.
func (s *AuthService) LoginDoctor(ctx context.Context, uid, _ string) (*models.Doctor, error) {
	for _, u := range s.repo.LoadUsers(ctx) {
		if d := u.Doctor; d != nil && d.UID == uid {
			return d, nil
		}
	}
	return nil, notFound("Doctor not found")
}

// UpdatePatient merges fields onto the stored patient and refreshes the
// session if it points at the same identifier. A merged email or phone that
// belongs to another user is rejected like a duplicate registration.
func (s *AuthService) UpdatePatient(ctx context.Context, patientID string, fields models.PatientUpdate) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.repo.LoadUsers(ctx)
	idx := -1
	for i, u := range users {
		if u.Patient != nil && u.Patient.ID == patientID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, notFound("Patient not found")
	}

	updated := *users[idx].Patient
	fields.Apply(&updated)
	for i, u := range users {
		if i != idx && (u.Email() == updated.Email || (u.Patient != nil && u.Patient.Phone == updated.Phone)) {
			s.log.WithField("user_id", patientID).Info("Patient update rejected: duplicate identity")
			return nil, duplicate("Email or phone number already registered")
		}
	}
	users[idx] = models.PatientUser(updated)

	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("save patient %s: %w", patientID, err)
	}
	if err := s.session.refresh(ctx, users[idx]); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	s.log.WithField("user_id", patientID).Info("Patient profile updated")
	return &updated, nil
}

// User looks up any user by identifier.
func (s *AuthService) User(ctx context.Context, id string) (models.User, error) {
	for _, u := range s.repo.LoadUsers(ctx) {
		if u.ID() == id {
			return u, nil
		}
	}
	return models.User{}, notFound("User not found")
}

// Patient looks up a patient by identifier.
func (s *AuthService) Patient(ctx context.Context, id string) (*models.Patient, error) {
	u, err := s.User(ctx, id)
	if err != nil || u.Patient == nil {
		return nil, notFound("Patient not found")
	}
	return u.Patient, nil
}

func (s *AuthService) CurrentUser() *models.User { return s.session.Current() }

func (s *AuthService) SetCurrentUser(ctx context.Context, u models.User) error {
	return s.session.Set(ctx, u)
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.session.Clear(ctx)
}

// LogoutUser ends the session only when userID owns it.
func (s *AuthService) LogoutUser(ctx context.Context, userID string) error {
	cleared, err := s.session.ClearFor(ctx, userID)
	if err != nil {
		return err
	}
	if cleared {
		s.log.WithField("user_id", userID).Info("Logged out")
	}
	return nil
}
