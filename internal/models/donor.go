package models

import "time"

type BloodDonor struct {
	PatientID    string            `json:"patientId"`
	BloodGroup   string            `json:"bloodGroup"`
	Location     string            `json:"location"`
	Name         string            `json:"name,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	RegisteredAt time.Time         `json:"registeredAt"`
}

// DonorDetails is what a patient submits when joining the donor registry.
type DonorDetails struct {
	BloodGroup string            `json:"bloodGroup"`
	Location   string            `json:"location"`
	Name       string            `json:"name,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}
