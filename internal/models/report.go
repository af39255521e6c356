package models

import "time"

const (
	WeightUnderweight = "Underweight"
	WeightNormal      = "Normal"
	WeightOverweight  = "Overweight"
	WeightObese       = "Obese"
	WeightPending     = "Assessment Pending"
)

type BasicInfo struct {
	Name       string   `json:"name"`
	Age        int      `json:"age"`
	BloodGroup string   `json:"bloodGroup"`
	BMI        *float64 `json:"bmi"`
}

type Vitals struct {
	Height        *float64 `json:"height,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
	BloodPressure string   `json:"bloodPressure,omitempty"`
	SpO2          *float64 `json:"spo2,omitempty"`
}

type HealthSummary struct {
	BasicInfo     BasicInfo `json:"basicInfo"`
	Vitals        Vitals    `json:"vitals"`
	OverallHealth string    `json:"overallHealth"`
}

type HealthReport struct {
	PatientID       string        `json:"patientId"`
	GeneratedAt     time.Time     `json:"generatedAt"`
	Summary         HealthSummary `json:"summary"`
	Recommendations []string      `json:"recommendations"`
	RiskFactors     []string      `json:"riskFactors"`
	QRCode          string        `json:"qrCode"`
}

// PatientReport is the stored envelope in the patient_reports collection.
// At most one live entry exists per PatientID.
type PatientReport struct {
	PatientID   string       `json:"patientId"`
	Report      HealthReport `json:"report"`
	GeneratedAt time.Time    `json:"generatedAt"`
	QRCode      string       `json:"qrCode"`
}
