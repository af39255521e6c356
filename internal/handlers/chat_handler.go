// internal/handlers/chat_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medivault-api/internal/middleware"
	"github.com/harentsoaR/medivault-api/internal/models"
)

// HandleChat answers a health question. Patients get answers that mention
// their own profile.
func (h *Handler) HandleChat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request format, expecting {\"message\": \"...\"}")
		return
	}
	if req.Message == "" {
		fail(c, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	var patient *models.Patient
	if middleware.Role(c) == models.RolePatient {
		// A missing profile only means the reply is not personalised.
		patient, _ = h.Auth.Patient(c.Request.Context(), middleware.UserID(c))
	}

	reply, err := h.Assistant.Reply(c.Request.Context(), req.Message, patient)
	if err != nil {
		h.failWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": reply,
	})
}
