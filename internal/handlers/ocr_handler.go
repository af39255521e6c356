package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleOCR accepts multipart "files" and returns text for the first one.
func (h *Handler) HandleOCR(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		fail(c, http.StatusBadRequest, "Please select files to process.")
		return
	}
	files := form.File["files"]

	kind, text, err := h.Documents.Extract(c.Request.Context(), files[0].Filename)
	if err != nil {
		h.failWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Successfully extracted text from %d document(s).", len(files)),
		"kind":    kind,
		"text":    text,
	})
}
