package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/harentsoaR/medivault-api/internal/logger"
	"github.com/harentsoaR/medivault-api/internal/models"
	"github.com/harentsoaR/medivault-api/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	recMeasurements = "Complete your physical measurements for better health assessment"
	recSleep        = "Maintain 7-9 hours of sleep for optimal health"
)

var generalRecommendations = []string{
	"Drink 8-10 glasses of water daily",
	"Engage in 30 minutes of physical activity",
	"Schedule regular health checkups",
	"Eat a balanced diet with fruits, vegetables and lean proteins",
}

// RecordService owns health reports and the blood donor registry.
type RecordService struct {
	repo   store.Repository
	tokens *ShareTokens
	log    *logrus.Entry
	delay  time.Duration

	now func() time.Time

	mu sync.Mutex
}

func NewRecordService(repo store.Repository, tokens *ShareTokens, delay time.Duration, log *logger.Logger) *RecordService {
	return &RecordService{
		repo:   repo,
		tokens: tokens,
		log:    log.WithComponent("records"),
		delay:  delay,
		now:    time.Now,
	}
}

// BMI returns weight / height(m)^2 rounded to one decimal. It is absent
// unless both measurements are present and non-zero.
func BMI(p models.Patient) *float64 {
	if p.Height == nil || p.Weight == nil || *p.Height == 0 || *p.Weight == 0 {
		return nil
	}
	m := *p.Height / 100
	bmi := math.Round(*p.Weight/(m*m)*10) / 10
	return &bmi
}

func WeightStatus(bmi *float64) string {
	switch {
	case bmi == nil:
		return models.WeightPending
	case *bmi < 18.5:
		return models.WeightUnderweight
	case *bmi < 25:
		return models.WeightNormal
	case *bmi < 30:
		return models.WeightOverweight
	default:
		return models.WeightObese
	}
}

// BuildHealthReport derives a report from the patient's profile. It does not
// mint a share-token or touch the store.
func BuildHealthReport(p models.Patient, at time.Time) models.HealthReport {
	bmi := BMI(p)

	recs := make([]string, 0, len(generalRecommendations)+2)
	if p.Height == nil || p.Weight == nil || *p.Height == 0 || *p.Weight == 0 {
		recs = append(recs, recMeasurements)
	}
	if p.SleepSchedule == "" {
		recs = append(recs, recSleep)
	}
	recs = append(recs, generalRecommendations...)

	risks := []string{}
	if p.Allergies != "" {
		risks = append(risks, "Allergies: "+p.Allergies)
	}
	if p.MedicalHistory != "" {
		risks = append(risks, "Medical History: "+p.MedicalHistory)
	}

	return models.HealthReport{
		PatientID:   p.ID,
		GeneratedAt: at,
		Summary: models.HealthSummary{
			BasicInfo: models.BasicInfo{
				Name:       p.Name,
				Age:        p.Age,
				BloodGroup: p.BloodGroup,
				BMI:        bmi,
			},
			Vitals: models.Vitals{
				Height:        p.Height,
				Weight:        p.Weight,
				BloodPressure: p.BloodPressure,
				SpO2:          p.SpO2,
			},
			OverallHealth: WeightStatus(bmi),
		},
		Recommendations: recs,
		RiskFactors:     risks,
	}
}

// GenerateHealthReport builds a report for p, stamps a fresh share-token and
// replaces any report previously stored for the same patient.
func (s *RecordService) GenerateHealthReport(ctx context.Context, p models.Patient) (*models.PatientReport, error) {
	if err := simulateLatency(ctx, s.delay); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	report := BuildHealthReport(p, at)
	report.QRCode, _ = s.tokens.Mint(p.ID, at)

	entry := models.PatientReport{
		PatientID:   p.ID,
		Report:      report,
		GeneratedAt: at,
		QRCode:      report.QRCode,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports := s.repo.LoadReports(ctx)
	reports = upsert(reports, entry, func(r models.PatientReport) string { return r.PatientID })
	if err := s.repo.SaveReports(ctx, reports); err != nil {
		return nil, fmt.Errorf("save report for %s: %w", p.ID, err)
	}

	s.log.WithFields(logrus.Fields{
		"patient_id":     p.ID,
		"overall_health": report.Summary.OverallHealth,
	}).Info("Health report generated")
	return &entry, nil
}

// HealthReport returns the stored report for patientID, or nil.
func (s *RecordService) HealthReport(ctx context.Context, patientID string) *models.PatientReport {
	for _, r := range s.repo.LoadReports(ctx) {
		if r.PatientID == patientID {
			return &r
		}
	}
	return nil
}

// ReportByShareToken resolves a scanned token. Only the latest token of a
// patient resolves; older ones are stale.
func (s *RecordService) ReportByShareToken(ctx context.Context, token string) (*models.PatientReport, error) {
	patientID, _, err := s.tokens.Parse(token)
	if err != nil {
		return nil, notFound("Report not found")
	}
	r := s.HealthReport(ctx, patientID)
	if r == nil || r.QRCode != token {
		return nil, notFound("Report not found")
	}
	return r, nil
}

// RegisterBloodDonor upserts the donor entry for patientID.
func (s *RecordService) RegisterBloodDonor(ctx context.Context, patientID string, details models.DonorDetails) (*models.BloodDonor, error) {
	entry := models.BloodDonor{
		PatientID:    patientID,
		BloodGroup:   details.BloodGroup,
		Location:     details.Location,
		Name:         details.Name,
		Phone:        details.Phone,
		Details:      details.Details,
		RegisteredAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	donors := s.repo.LoadDonors(ctx)
	donors = upsert(donors, entry, func(d models.BloodDonor) string { return d.PatientID })
	if err := s.repo.SaveDonors(ctx, donors); err != nil {
		return nil, fmt.Errorf("save donor %s: %w", patientID, err)
	}
	s.log.WithField("patient_id", patientID).Info("Blood donor registered")
	return &entry, nil
}

// SearchBloodDonors returns donors with exactly bloodGroup whose location
// contains location, ignoring case, in registry order. An empty location
// matches every entry of the group.
func (s *RecordService) SearchBloodDonors(ctx context.Context, bloodGroup, location string) []models.BloodDonor {
	needle := strings.ToLower(location)
	out := []models.BloodDonor{}
	for _, d := range s.repo.LoadDonors(ctx) {
		if d.BloodGroup == bloodGroup && strings.Contains(strings.ToLower(d.Location), needle) {
			out = append(out, d)
		}
	}
	return out
}

// upsert replaces the element with the same key in place, or appends.
func upsert[T any](items []T, item T, key func(T) string) []T {
	k := key(item)
	for i := range items {
		if key(items[i]) == k {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}
