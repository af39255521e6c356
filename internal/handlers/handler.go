package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medivault-api/internal/logger"
	"github.com/harentsoaR/medivault-api/internal/metrics"
	"github.com/harentsoaR/medivault-api/internal/middleware"
	"github.com/harentsoaR/medivault-api/internal/models"
	"github.com/harentsoaR/medivault-api/internal/services"
	"github.com/harentsoaR/medivault-api/internal/utils"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Auth      *services.AuthService
	Records   *services.RecordService
	Assistant *services.Assistant
	Documents *services.DocumentExtractor
	Notifier  services.Notifier
	Tokens    *utils.TokenIssuer
	Metrics   *metrics.Metrics
	log       *logrus.Entry
}

func NewHandler(
	auth *services.AuthService,
	records *services.RecordService,
	assistant *services.Assistant,
	documents *services.DocumentExtractor,
	notifier services.Notifier,
	tokens *utils.TokenIssuer,
	m *metrics.Metrics,
	log *logger.Logger,
) *Handler {
	return &Handler{
		Auth:      auth,
		Records:   records,
		Assistant: assistant,
		Documents: documents,
		Notifier:  notifier,
		Tokens:    tokens,
		Metrics:   m,
		log:       log.WithComponent("handlers"),
	}
}

// Routes mounts the public /auth routes, the token-protected session routes
// and the token-protected /api group.
func (h *Handler) Routes(r gin.IRouter) {
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/patients/register", h.RegisterPatient)
		authRoutes.POST("/doctors/register", h.RegisterDoctor)
		authRoutes.POST("/patients/login", h.LoginPatient)
		authRoutes.POST("/doctors/login", h.LoginDoctor)
	}

	sessionRoutes := r.Group("/auth")
	sessionRoutes.Use(middleware.AuthMiddleware(h.Tokens))
	{
		sessionRoutes.POST("/logout", h.Logout)
		sessionRoutes.GET("/session", h.GetSession)
	}

	apiRoutes := r.Group("/api")
	apiRoutes.Use(middleware.AuthMiddleware(h.Tokens))
	{
		apiRoutes.GET("/user/:id", h.GetUser)
		apiRoutes.PUT("/patients/:id", h.UpdatePatient)

		apiRoutes.POST("/patients/:id/report", h.GenerateReport)
		apiRoutes.GET("/patients/:id/report", h.GetReport)
		apiRoutes.GET("/patients/:id/report/qr.png", h.GetReportQR)
		apiRoutes.GET("/reports/scan", middleware.RequireRole(models.RoleDoctor), h.ScanReport)

		apiRoutes.POST("/donors", middleware.RequireRole(models.RolePatient), h.RegisterDonor)
		apiRoutes.GET("/donors/search", h.SearchDonors)

		apiRoutes.POST("/chat", h.HandleChat)
		apiRoutes.POST("/ocr", h.HandleOCR)
	}
}

// Result is the uniform body of identity operations.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    any    `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, Result{Success: false, Message: message})
}

// failWith maps a service error onto a status and its user-facing message.
func (h *Handler) failWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDuplicateIdentity):
		fail(c, http.StatusConflict, services.Message(err))
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, services.Message(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusRequestTimeout, "Request cancelled. Please try again.")
	default:
		h.log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		fail(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

// canRead allows the patient themself and any doctor.
func canRead(c *gin.Context, patientID string) bool {
	return middleware.Role(c) == models.RoleDoctor || middleware.UserID(c) == patientID
}

// isSelf allows only the patient themself.
func isSelf(c *gin.Context, patientID string) bool {
	return middleware.Role(c) == models.RolePatient && middleware.UserID(c) == patientID
}
