package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/greenhangar/ghe-billing/internal/service"
)

// ActionRecorder counts admin actions by outcome.
type ActionRecorder interface {
	ActionHandled(action, outcome string)
}

type Services struct {
	Ledger    *service.LedgerService
	Pricing   *service.PricingService
	Payments  *service.PaymentService
	Selection *service.SelectionService
	Documents *service.DocumentService
	Profiles  *service.ProfileService
}

type Handler struct {
	ledger    *service.LedgerService
	pricing   *service.PricingService
	payments  *service.PaymentService
	selection *service.SelectionService
	documents *service.DocumentService
	profiles  *service.ProfileService
	actions   map[string]actionFunc
	metrics   ActionRecorder
	loc       *time.Location
	log       zerolog.Logger
}

func NewHandler(services Services, metrics ActionRecorder, loc *time.Location, log zerolog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	h := &Handler{
		ledger:    services.Ledger,
		pricing:   services.Pricing,
		payments:  services.Payments,
		selection: services.Selection,
		documents: services.Documents,
		profiles:  services.Profiles,
		metrics:   metrics,
		loc:       loc,
		log:       log,
	}
	h.actions = h.actionTable()
	return h
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc, adminMiddleware gin.HandlerFunc) {
	api := router.Group("/api")
	api.Use(authMiddleware)

	admin := api.Group("/admin")
	admin.Use(adminMiddleware)
	admin.GET("", h.listContracts)
	admin.POST("", h.dispatchAction)
	admin.POST("/documents/statement", h.generateStatement)
	admin.POST("/documents/invoice", h.generateInvoice)

	profile := api.Group("/profile")
	profile.GET("", h.getProfile)
	profile.PUT("", h.updateProfile)
	profile.GET("/documents/:side", h.getIdentityDocument)
	profile.PUT("/documents/:side", h.uploadIdentityDocument)
	profile.GET("/identity-types", h.listIdentityTypes)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var missing *service.MissingFieldsError
	var invalid *service.ValidationError
	switch {
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "missing": missing.Fields})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": invalid.Fields})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRemote):
		h.log.Warn().Err(err).Str("path", c.FullPath()).Msg("store rejected request")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func attachment(c *gin.Context, fileName, contentType string, content []byte) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, contentType, content)
}
