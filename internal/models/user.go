package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Account holds the fields shared by every user variant.
type Account struct {
	ID          string    `json:"id"`
	Type        Role      `json:"type"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"dateOfBirth"`
	Place       string    `json:"place"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HealthProfile is the optional vitals section a patient fills in after registration.
type HealthProfile struct {
	Height         *float64 `json:"height,omitempty"` // cm
	Weight         *float64 `json:"weight,omitempty"` // kg
	BloodPressure  string   `json:"bloodPressure,omitempty"`
	SpO2           *float64 `json:"spo2,omitempty"`
	EyeSight       string   `json:"eyeSight,omitempty"`
	SleepSchedule  string   `json:"sleepSchedule,omitempty"`
	MedicalHistory string   `json:"medicalHistory,omitempty"`
	Allergies      string   `json:"allergies,omitempty"`
	IsDonor        bool     `json:"isDonor"`
}

type Patient struct {
	Account
	Phone      string `json:"phone"`
	Age        int    `json:"age"`
	BloodGroup string `json:"bloodGroup"`
	HealthProfile
}

type Doctor struct {
	Account
	UID          string `json:"uid"`
	HospitalName string `json:"hospitalName"`
	Speciality   string `json:"speciality"`
}

// User is a tagged union over the two account variants. Exactly one of
// Patient and Doctor is set; the stored form is a flat object discriminated
// by its "type" field.
type User struct {
	Patient *Patient
	Doctor  *Doctor
}

func PatientUser(p Patient) User {
	p.Type = RolePatient
	return User{Patient: &p}
}

func DoctorUser(d Doctor) User {
	d.Type = RoleDoctor
	return User{Doctor: &d}
}

func (u User) Role() Role {
	switch {
	case u.Patient != nil:
		return RolePatient
	case u.Doctor != nil:
		return RoleDoctor
	}
	return ""
}

// Base returns the shared account fields of whichever variant is set.
func (u User) Base() Account {
	switch {
	case u.Patient != nil:
		return u.Patient.Account
	case u.Doctor != nil:
		return u.Doctor.Account
	}
	return Account{}
}

func (u User) ID() string { return u.Base().ID }

func (u User) Email() string { return u.Base().Email }

func (u User) MarshalJSON() ([]byte, error) {
	switch {
	case u.Patient != nil:
		p := *u.Patient
		p.Type = RolePatient
		return json.Marshal(p)
	case u.Doctor != nil:
		d := *u.Doctor
		d.Type = RoleDoctor
		return json.Marshal(d)
	}
	return nil, fmt.Errorf("models: empty user")
}

func (u *User) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type Role `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch probe.Type {
	case RolePatient:
		var p Patient
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*u = User{Patient: &p}
	case RoleDoctor:
		var d Doctor
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		*u = User{Doctor: &d}
	default:
		return fmt.Errorf("models: unknown user type %q", probe.Type)
	}
	return nil
}

// PatientUpdate is a partial field set merged onto a stored patient.
// Nil fields are left untouched.
type PatientUpdate struct {
	Name           *string  `json:"name,omitempty" binding:"omitempty,min=2"`
	Email          *string  `json:"email,omitempty" binding:"omitempty,email"`
	Phone          *string  `json:"phone,omitempty" binding:"omitempty,min=10"`
	DateOfBirth    *string  `json:"dateOfBirth,omitempty"`
	Place          *string  `json:"place,omitempty" binding:"omitempty,min=2"`
	Age            *int     `json:"age,omitempty" binding:"omitempty,min=1,max=120"`
	BloodGroup     *string  `json:"bloodGroup,omitempty" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Height         *float64 `json:"height,omitempty" binding:"omitempty,gte=0"`
	Weight         *float64 `json:"weight,omitempty" binding:"omitempty,gte=0"`
	BloodPressure  *string  `json:"bloodPressure,omitempty"`
	SpO2           *float64 `json:"spo2,omitempty" binding:"omitempty,gte=0,lte=100"`
	EyeSight       *string  `json:"eyeSight,omitempty"`
	SleepSchedule  *string  `json:"sleepSchedule,omitempty"`
	MedicalHistory *string  `json:"medicalHistory,omitempty"`
	Allergies      *string  `json:"allergies,omitempty"`
	IsDonor        *bool    `json:"isDonor,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u PatientUpdate) Empty() bool {
	return u == PatientUpdate{}
}

// Apply merges the update onto p. Later keys overwrite.
func (u PatientUpdate) Apply(p *Patient) {
	setString(&p.Name, u.Name)
	setString(&p.Email, u.Email)
	setString(&p.Phone, u.Phone)
	setString(&p.DateOfBirth, u.DateOfBirth)
	setString(&p.Place, u.Place)
	if u.Age != nil {
		p.Age = *u.Age
	}
	setString(&p.BloodGroup, u.BloodGroup)
	setFloat(&p.Height, u.Height)
	setFloat(&p.Weight, u.Weight)
	setString(&p.BloodPressure, u.BloodPressure)
	setFloat(&p.SpO2, u.SpO2)
	setString(&p.EyeSight, u.EyeSight)
	setString(&p.SleepSchedule, u.SleepSchedule)
	setString(&p.MedicalHistory, u.MedicalHistory)
	setString(&p.Allergies, u.Allergies)
	if u.IsDonor != nil {
		p.IsDonor = *u.IsDonor
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst **float64, v *float64) {
	if v != nil {
		f := *v
		*dst = &f
	}
}
