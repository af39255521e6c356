package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medivault-api/internal/middleware"
	"github.com/harentsoaR/medivault-api/internal/models"
	"github.com/harentsoaR/medivault-api/internal/services"
)

type RegisterDonorRequest struct {
	BloodGroup string            `json:"bloodGroup" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Location   string            `json:"location"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone"`
	Details    map[string]string `json:"details"`
}

// RegisterDonor enrolls the calling patient in the donor registry. Missing
// blood group, location, name and phone come from the patient's profile.
func (h *Handler) RegisterDonor(c *gin.Context) {
	var req RegisterDonorRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	p, err := h.Auth.Patient(ctx, middleware.UserID(c))
	if err != nil {
		h.failWith(c, err)
		return
	}

	details := models.DonorDetails{
		BloodGroup: firstNonEmpty(req.BloodGroup, p.BloodGroup),
		Location:   firstNonEmpty(req.Location, p.Place),
		Name:       firstNonEmpty(req.Name, p.Name),
		Phone:      firstNonEmpty(req.Phone, p.Phone),
		Details:    req.Details,
	}
	// Flag first: a registry entry must not exist without it.
	isDonor := true
	if _, err := h.Auth.UpdatePatient(ctx, p.ID, models.PatientUpdate{IsDonor: &isDonor}); err != nil {
		h.failWith(c, err)
		return
	}

	donor, err := h.Records.RegisterBloodDonor(ctx, p.ID, details)
	if err != nil {
		if !p.IsDonor {
			wasDonor := false
			if _, rerr := h.Auth.UpdatePatient(ctx, p.ID, models.PatientUpdate{IsDonor: &wasDonor}); rerr != nil {
				h.log.WithError(rerr).WithField("patient_id", p.ID).Warn("Failed to reset donor flag")
			}
		}
		h.failWith(c, err)
		return
	}
	h.Metrics.DonorsRegistered.Inc()
	h.Notifier.Notify(p, services.DonorRegisteredMessage(donor))

	c.JSON(http.StatusCreated, donor)
}

func (h *Handler) SearchDonors(c *gin.Context) {
	bloodGroup := normalizeBloodGroup(c.Query("bloodGroup"))
	location := c.Query("location")

	c.JSON(http.StatusOK, h.Records.SearchBloodDonors(c.Request.Context(), bloodGroup, location))
}

// normalizeBloodGroup restores a '+' that arrived as a space because the
// client did not escape it in the query string.
func normalizeBloodGroup(s string) string {
	if strings.HasSuffix(s, " ") {
		if fixed := strings.TrimSuffix(s, " ") + "+"; models.IsBloodGroup(fixed) {
			return fixed
		}
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
