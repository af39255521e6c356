package services

import (
	"context"
	"strings"
	"time"
)

type DocumentKind string

const (
	DocumentPrescription DocumentKind = "prescription"
	DocumentMedicine     DocumentKind = "medicine"
	DocumentReport       DocumentKind = "report"
)

// DocumentExtractor returns canned "extracted text" for an uploaded file.
// The kind is guessed from the file name only; file contents are ignored.
type DocumentExtractor struct {
	delay time.Duration
	now   func() time.Time
}

func NewDocumentExtractor(delay time.Duration) *DocumentExtractor {
	return &DocumentExtractor{delay: delay, now: time.Now}
}

func ClassifyDocument(fileName string) DocumentKind {
	name := strings.ToLower(fileName)
	switch {
	case strings.Contains(name, "rx") || strings.Contains(name, "prescription"):
		return DocumentPrescription
	case strings.Contains(name, "med") || strings.Contains(name, "pill"):
		return DocumentMedicine
	default:
		return DocumentReport
	}
}

func (e *DocumentExtractor) Extract(ctx context.Context, fileName string) (DocumentKind, string, error) {
	if err := simulateLatency(ctx, e.delay); err != nil {
		return "", "", err
	}
	kind := ClassifyDocument(fileName)
	date := e.now().Format("01/02/2006")

	switch kind {
	case DocumentPrescription:
		return kind, strings.ReplaceAll(prescriptionText, "{{date}}", date), nil
	case DocumentMedicine:
		return kind, medicineText, nil
	default:
		return kind, strings.ReplaceAll(medicalReportText, "{{date}}", date), nil
	}
}

const prescriptionText = `PRESCRIPTION

Dr. Sarah Johnson, MD
Internal Medicine
City General Hospital

Patient: John Doe
Date: {{date}}

Rx:
1. Amoxicillin 500mg
   Take 1 tablet three times daily with food
   Duration: 7 days

2. Ibuprofen 400mg
   Take 1 tablet as needed for pain
   Maximum 3 tablets per day

3. Multivitamin
   Take 1 tablet daily with breakfast

Follow-up in 1 week

Dr. Sarah Johnson
License: MD12345`

const medicineText = `MEDICINE INFORMATION

Product Name: Paracetamol 500mg
Manufacturer: PharmaCorp Ltd.
Batch No: PC2024001
Exp. Date: 12/2025

Active Ingredient: Paracetamol 500mg
Excipients: Microcrystalline cellulose, Starch

Indications: Pain relief, Fever reduction
Dosage: Adults - 1-2 tablets every 6-8 hours
Maximum daily dose: 8 tablets

Storage: Store below 30°C in dry place
Keep out of reach of children

MRP: ₹45.00`

const medicalReportText = `MEDICAL REPORT

Patient Information:
Name: John Doe
Age: 32 years
Date of Visit: {{date}}

Chief Complaint: Regular health checkup

Vital Signs:
- Blood Pressure: 120/80 mmHg
- Temperature: 98.6°F
- Pulse: 72 bpm
- Weight: 70 kg
- Height: 175 cm

Physical Examination:
General appearance: Well-developed, well-nourished
Heart: Regular rate and rhythm
Lungs: Clear to auscultation
Abdomen: Soft, non-tender

Assessment: Patient in good health
Plan: Continue current lifestyle, return in 6 months for routine follow-up

Dr. Michael Smith, MD`
