package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greenhangar/ghe-billing/internal/http/middleware"
	"github.com/greenhangar/ghe-billing/internal/model"
	"github.com/greenhangar/ghe-billing/internal/service"
)

const maxUploadSize = 10 << 20

func (h *Handler) generateStatement(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	format := model.DocumentFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(model.DocumentFormatPDF)))))
	result, err := h.documents.GenerateStatement(c.Request.Context(), principal, format)
	if err != nil {
		h.handleError(c, err)
		return
	}
	attachment(c, result.FileName, result.ContentType, result.Content)
}

func (h *Handler) generateInvoice(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.documents.GenerateInvoice(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("X-Invoice-Number", result.Payment.InvoiceNumber)
	c.Header("X-Payment-ID", result.Payment.ID.String())
	attachment(c, result.FileName, result.ContentType, result.Content)
}

func (h *Handler) getProfile(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profile})
}

func (h *Handler) updateProfile(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var input service.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profile})
}

func (h *Handler) uploadIdentityDocument(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is unreadable"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is unreadable"})
		return
	}

	side := model.DocumentSide(strings.ToLower(c.Param("side")))
	profile, err := h.profiles.ReplaceIdentityDocument(c.Request.Context(), principal, side, content)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profile})
}

func (h *Handler) getIdentityDocument(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	side := model.DocumentSide(strings.ToLower(c.Param("side")))
	content, err := h.profiles.IdentityDocument(c.Request.Context(), principal, side)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", content)
}

func (h *Handler) listIdentityTypes(c *gin.Context) {
	types, err := h.profiles.ListIdentityTypes(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": types})
}
