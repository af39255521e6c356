package models

import "slices"

var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var Specialities = []string{
	"Cardiology", "Dermatology", "Emergency Medicine", "Family Medicine",
	"General Surgery", "Internal Medicine", "Neurology", "Obstetrics and Gynecology",
	"Oncology", "Ophthalmology", "Orthopedics", "Pediatrics", "Psychiatry",
	"Radiology", "Urology", "Other",
}

func IsBloodGroup(s string) bool { return slices.Contains(BloodGroups, s) }

func IsSpeciality(s string) bool { return slices.Contains(Specialities, s) }
