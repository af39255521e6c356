package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medivault-api/internal/models"
)

// GetUser returns a user profile. Patients may only read their own.
func (h *Handler) GetUser(c *gin.Context) {
	id := c.Param("id")
	if !canRead(c, id) {
		fail(c, http.StatusForbidden, "Permission denied.")
		return
	}

	u, err := h.Auth.User(c.Request.Context(), id)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdatePatient merges the submitted profile fields onto the caller's own record.
func (h *Handler) UpdatePatient(c *gin.Context) {
	id := c.Param("id")
	if !isSelf(c, id) {
		fail(c, http.StatusForbidden, "Permission denied.")
		return
	}

	var req models.PatientUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Empty() {
		fail(c, http.StatusBadRequest, "No update fields provided")
		return
	}

	p, err := h.Auth.UpdatePatient(c.Request.Context(), id, req)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, Result{Success: true, Message: "Profile updated successfully", User: p})
}
