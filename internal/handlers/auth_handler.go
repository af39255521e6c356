// internal/handlers/auth_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medivault-api/internal/metrics"
	"github.com/harentsoaR/medivault-api/internal/middleware"
	"github.com/harentsoaR/medivault-api/internal/models"
	"github.com/harentsoaR/medivault-api/internal/services"
)

type RegisterPatientRequest struct {
	Name        string `json:"name" binding:"required,min=2"`
	Phone       string `json:"phone" binding:"required,min=10"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
	Age         int    `json:"age" binding:"required,min=1,max=120"`
	Place       string `json:"place" binding:"required,min=2"`
	BloodGroup  string `json:"bloodGroup" binding:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

type RegisterDoctorRequest struct {
	Name         string `json:"name" binding:"required,min=2"`
	UID          string `json:"uid" binding:"required,min=6"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	DateOfBirth  string `json:"dateOfBirth" binding:"required"`
	Place        string `json:"place" binding:"required,min=2"`
	HospitalName string `json:"hospitalName" binding:"required,min=2"`
	Speciality   string `json:"speciality" binding:"required"`
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Auth.RegisterPatient(c.Request.Context(), services.PatientRegistration{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		DateOfBirth: req.DateOfBirth,
		Age:         req.Age,
		Place:       req.Place,
		BloodGroup:  req.BloodGroup,
	})
	h.Metrics.Registrations.WithLabelValues(string(models.RolePatient), metrics.Outcome(err)).Inc()
	if err != nil {
		h.failWith(c, err)
		return
	}

	c.JSON(http.StatusCreated, Result{Success: true, Message: "Registration successful", User: p})
}

func (h *Handler) RegisterDoctor(c *gin.Context) {
	var req RegisterDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !models.IsSpeciality(req.Speciality) {
		fail(c, http.StatusBadRequest, "Speciality is required")
		return
	}

	d, err := h.Auth.RegisterDoctor(c.Request.Context(), services.DoctorRegistration{
		Name:         req.Name,
		Email:        req.Email,
		UID:          req.UID,
		Password:     req.Password,
		DateOfBirth:  req.DateOfBirth,
		Place:        req.Place,
		HospitalName: req.HospitalName,
		Speciality:   req.Speciality,
	})
	h.Metrics.Registrations.WithLabelValues(string(models.RoleDoctor), metrics.Outcome(err)).Inc()
	if err != nil {
		h.failWith(c, err)
		return
	}

	c.JSON(http.StatusCreated, Result{Success: true, Message: "Registration successful", User: d})
}

// LoginPatient accepts an email or phone number as identifier.
func (h *Handler) LoginPatient(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	p, err := h.Auth.LoginPatient(c.Request.Context(), req.Identifier, req.Password)
	h.Metrics.Logins.WithLabelValues(string(models.RolePatient), metrics.Outcome(err)).Inc()
	if err != nil {
		fail(c, http.StatusUnauthorized, services.Message(err))
		return
	}
	h.startSession(c, models.PatientUser(*p))
}

func (h *Handler) LoginDoctor(c *gin.Context) {
	var req struct {
		UID      string `json:"uid" binding:"required"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	d, err := h.Auth.LoginDoctor(c.Request.Context(), req.UID, req.Password)
	h.Metrics.Logins.WithLabelValues(string(models.RoleDoctor), metrics.Outcome(err)).Inc()
	if err != nil {
		fail(c, http.StatusUnauthorized, services.Message(err))
		return
	}
	h.startSession(c, models.DoctorUser(*d))
}

func (h *Handler) startSession(c *gin.Context, u models.User) {
	if err := h.Auth.SetCurrentUser(c.Request.Context(), u); err != nil {
		h.failWith(c, err)
		return
	}

	token, err := h.Tokens.GenerateJWT(u.ID(), u.Role())
	if err != nil {
		h.failWith(c, err)
		return
	}

	h.log.WithField("user_id", u.ID()).WithField("role", u.Role()).Info("Login successful")
	c.JSON(http.StatusOK, Result{Success: true, Message: "Login successful", User: u, Token: token})
}

// Logout clears the session pointer if the caller owns it.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.LogoutUser(c.Request.Context(), middleware.UserID(c)); err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, Result{Success: true, Message: "Logged out"})
}

// GetSession returns the session user when it is the caller.
func (h *Handler) GetSession(c *gin.Context) {
	u := h.Auth.CurrentUser()
	if u == nil || u.ID() != middleware.UserID(c) {
		fail(c, http.StatusNotFound, "No active session")
		return
	}
	c.JSON(http.StatusOK, Result{Success: true, Message: "Session active", User: *u})
}
