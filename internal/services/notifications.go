package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/harentsoaR/medivault-api/internal/logger"
	"github.com/harentsoaR/medivault-api/internal/models"
	"github.com/sirupsen/logrus"
)

const textbeltURL = "https://textbelt.com/text"

// Notifier tells a patient that something happened to their records.
type Notifier interface {
	Notify(patient *models.Patient, message string)
}

type NotificationService struct {
	log    *logrus.Entry
	sender func(phone, message string)
}

// NewNotificationService logs every notification. With a Textbelt key it
// also sends it as an SMS to the patient's phone.
func NewNotificationService(textbeltKey string, log *logger.Logger) *NotificationService {
	s := &NotificationService{log: log.WithComponent("notifications")}
	if textbeltKey != "" {
		s.sender = func(phone, message string) {
			sendSmsWithTextbelt(s.log, textbeltKey, phone, message)
		}
	}
	return s
}

func (s *NotificationService) Notify(patient *models.Patient, message string) {
	s.log.WithFields(logrus.Fields{
		"patient_id": patient.ID,
		"message":    message,
	}).Info("Notification")

	if s.sender == nil {
		return
	}
	if patient.Phone == "" {
		s.log.WithField("patient_id", patient.ID).Info("SMS not sent: patient has no phone number")
		return
	}
	// Send in a goroutine so it doesn't block the API response
	go s.sender(patient.Phone, message)
}

func ReportGeneratedMessage(p *models.Patient) string {
	return fmt.Sprintf("MediVault: %s, your health report and QR code are ready.", p.Name)
}

func DonorRegisteredMessage(d *models.BloodDonor) string {
	return fmt.Sprintf("MediVault: you are registered as a %s blood donor in %s.", d.BloodGroup, d.Location)
}

func sendSmsWithTextbelt(log *logrus.Entry, key, phone, message string) {
	postBody, _ := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     key,
	})

	resp, err := http.Post(textbeltURL, "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		log.WithError(err).Warn("Failed to send Textbelt request")
		return
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.WithError(err).Warn("Unreadable Textbelt response")
		return
	}
	if !result.Success {
		log.WithField("reason", result.Error).Warn("Textbelt rejected SMS")
		return
	}
	log.Info("SMS sent via Textbelt")
}
