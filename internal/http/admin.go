package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenhangar/ghe-billing/internal/billing"
	"github.com/greenhangar/ghe-billing/internal/http/middleware"
	"github.com/greenhangar/ghe-billing/internal/model"
	"github.com/greenhangar/ghe-billing/internal/selection"
	"github.com/greenhangar/ghe-billing/internal/service"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

type actionRequest struct {
	Action string       `json:"action" binding:"required"`
	Params actionParams `json:"params"`
}

// actionParams keeps values raw so clients may send ids and amounts as
// either JSON strings or numbers.
type actionParams map[string]json.RawMessage

func (p actionParams) String(key string) string {
	raw, ok := p[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	value := strings.TrimSpace(string(raw))
	if value == "null" {
		return ""
	}
	return value
}

func (p actionParams) UUID(key string) (uuid.UUID, error) {
	raw := p.String(key)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", service.ErrInvalidInput, key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", service.ErrInvalidInput, key)
	}
	return id, nil
}

// Int returns nil when the key is absent or empty.
func (p actionParams) Int(key string) (*int, error) {
	raw := p.String(key)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidInput, key)
	}
	return &value, nil
}

type actionFunc func(c *gin.Context, principal model.Principal, params actionParams) (int, gin.H, error)

func (h *Handler) actionTable() map[string]actionFunc {
	return map[string]actionFunc{
		"getPricingRegion":    h.getPricingRegion,
		"getCitiesByRegion":   h.getCitiesByRegion,
		"getPriceByCity":      h.getPriceByCity,
		"getAllPricing":       h.getAllPricing,
		"updatePrice":         h.updatePrice,
		"updateSurcharge":     h.updateSurcharge,
		"updateDiscount":      h.updateDiscount,
		"getPayments":         h.getPayments,
		"createPayment":       h.createPayment,
		"updatePaymentStatus": h.updatePaymentStatus,
		"setMonth":            h.setMonth,
		"toggleContract":      h.toggleContract,
		"selectAllVisible":    h.selectAllVisible,
		"deselectAllVisible":  h.deselectAllVisible,
		"getSelection":        h.getSelection,
		"resetSelection":      h.resetSelection,
		"getLedgerSummary":    h.getLedgerSummary,
	}
}

type contractResponse struct {
	model.Contract
	Total decimal.Decimal `json:"total"`
}

func newContractResponse(c model.Contract) contractResponse {
	return contractResponse{Contract: c, Total: billing.Round(c.Total())}
}

func newContractResponses(contracts []model.Contract) []contractResponse {
	out := make([]contractResponse, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, newContractResponse(c))
	}
	return out
}

func (h *Handler) listContracts(c *gin.Context) {
	rawMonth := strings.TrimSpace(c.Query("month"))
	if rawMonth == "" {
		contracts, err := h.ledger.ListContracts(c.Request.Context())
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": newContractResponses(contracts)})
		return
	}

	month, err := selection.ParseMonth(rawMonth, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}
	page, err := queryInt(c, "page", selection.DefaultPage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	perPage, err := queryInt(c, "per_page", selection.DefaultPerPage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid per_page"})
		return
	}

	contracts, err := h.ledger.ListContractsForMonth(c.Request.Context(), month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	items, meta := selection.Paginate(contracts, page, perPage)
	c.JSON(http.StatusOK, gin.H{
		"data":       newContractResponses(items),
		"month":      month.Format(selection.MonthLayout),
		"pagination": meta,
	})
}

func (h *Handler) dispatchAction(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, ok := h.actions[req.Action]
	if !ok {
		h.recordAction("unknown", outcomeError)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	if req.Params == nil {
		req.Params = actionParams{}
	}

	status, body, err := action(c, principal, req.Params)
	if err != nil {
		h.recordAction(req.Action, outcomeError)
		h.handleError(c, err)
		return
	}
	h.recordAction(req.Action, outcomeOK)
	c.JSON(status, body)
}

func (h *Handler) recordAction(action, outcome string) {
	if h.metrics != nil {
		h.metrics.ActionHandled(action, outcome)
	}
}

func (h *Handler) getPricingRegion(c *gin.Context, _ model.Principal, _ actionParams) (int, gin.H, error) {
	regions, err := h.pricing.ListRegions(c.Request.Context())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"regions": regions}, nil
}

func (h *Handler) getCitiesByRegion(c *gin.Context, _ model.Principal, params actionParams) (int, gin.H, error) {
	regionID, err := params.UUID("region_id")
	if err != nil {
		return 0, nil, err
	}
	cities, err := h.pricing.ListCitiesByRegion(c.Request.Context(), regionID)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"cities": cities}, nil
}

func (h *Handler) getPriceByCity(c *gin.Context, _ model.Principal, params actionParams) (int, gin.H, error) {
	cityID, err := params.UUID("city_id")
	if err != nil {
		return 0, nil, err
	}
	entry, err := h.pricing.GetPriceByCity(c.Request.Context(), cityID)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"price": entry}, nil
}

func (h *Handler) getAllPricing(c *gin.Context, _ model.Principal, params actionParams) (int, gin.H, error) {
	entries, err := h.pricing.ListPricing(c.Request.Context())
	if err != nil {
		return 0, nil, err
	}
	entries = service.FilterPricing(entries, params.String("region"), params.String("city"))
	return http.StatusOK, gin.H{"pricing": entries}, nil
}

func (h *Handler) updatePrice(c *gin.Context, _ model.Principal, params actionParams) (int, gin.H, error) {
	cityID, err := params.UUID("city_id")
	if err != nil {
		return 0, nil, err
	}
	entry, err := h.pricing.UpdatePrice(c.Request.Context(), cityID, params.String("price"))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": entry}, nil
}

func (h *Handler) updateSurcharge(c *gin.Context, _ model.Principal, params actionParams) (int, gin.H, error) {
	id, err := params.UUID("contractId")
	if err != nil {
		return 0, nil, err
	}
	contract, err := h.ledger.SetSurcharge(c.Request.Context(), id, params.String("surcharge"))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": newContractResponse(*contract)}, nil
}

func (h *Handler) updateDiscount(c *gin.Context, _ model.Principal, params actionParams) (int, gin.H, error) {
	id, err := params.UUID("contractId")
	if err != nil {
		return 0, nil, err
	}
	contract, err := h.ledger.SetDiscount(c.Request.Context(), id, params.String("discount"))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": newContractResponse(*contract)}, nil
}

func (h *Handler) getPayments(c *gin.Context, _ model.Principal, _ actionParams) (int, gin.H, error) {
	payments, err := h.payments.ListPayments(c.Request.Context())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": payments}, nil
}

func (h *Handler) createPayment(c *gin.Context, _ model.Principal, params actionParams) (int, gin.H, error) {
	statusID, err := params.Int("payment_status_id")
	if err != nil {
		return 0, nil, err
	}
	payment, err := h.payments.RecordPayment(c.Request.Context(), service.PaymentRecord{
		InvoiceNumber:   params.String("invoice_number"),
		PaymentStatusID: statusID,
		CreatedAt:       params.String("created_at"),
		DueDate:         params.String("due_date"),
		TotalCharge:     params.String("total_charge"),
		InvoiceImage:    params.String("invoice_image"),
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, gin.H{"data": payment}, nil
}

func (h *Handler) updatePaymentStatus(c *gin.Context, _ model.Principal, params actionParams) (int, gin.H, error) {
	id, err := params.UUID("payment_id")
	if err != nil {
		return 0, nil, err
	}
	statusID, err := params.Int("payment_status_id")
	if err != nil {
		return 0, nil, err
	}
	if statusID == nil {
		return 0, nil, &service.MissingFieldsError{Fields: []string{"payment_status_id"}}
	}
	payment, err := h.payments.UpdatePaymentStatus(c.Request.Context(), id, *statusID)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": payment}, nil
}

func (h *Handler) setMonth(c *gin.Context, principal model.Principal, params actionParams) (int, gin.H, error) {
	snapshot, err := h.selection.SetMonth(c.Request.Context(), principal, params.String("month"))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": snapshot}, nil
}

func (h *Handler) toggleContract(c *gin.Context, principal model.Principal, params actionParams) (int, gin.H, error) {
	id, err := params.UUID("contract_id")
	if err != nil {
		return 0, nil, err
	}
	snapshot, err := h.selection.Toggle(c.Request.Context(), principal, id)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": snapshot}, nil
}

func (h *Handler) selectAllVisible(c *gin.Context, principal model.Principal, _ actionParams) (int, gin.H, error) {
	snapshot, err := h.selection.SelectAllVisible(c.Request.Context(), principal)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": snapshot}, nil
}

func (h *Handler) deselectAllVisible(c *gin.Context, principal model.Principal, _ actionParams) (int, gin.H, error) {
	snapshot, err := h.selection.DeselectAllVisible(c.Request.Context(), principal)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": snapshot}, nil
}

func (h *Handler) getSelection(c *gin.Context, principal model.Principal, _ actionParams) (int, gin.H, error) {
	snapshot, err := h.selection.Snapshot(c.Request.Context(), principal)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": snapshot}, nil
}

func (h *Handler) resetSelection(c *gin.Context, principal model.Principal, _ actionParams) (int, gin.H, error) {
	snapshot, err := h.selection.Reset(c.Request.Context(), principal)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": snapshot}, nil
}

// getLedgerSummary defaults to the operator's active month.
func (h *Handler) getLedgerSummary(c *gin.Context, principal model.Principal, params actionParams) (int, gin.H, error) {
	rawMonth := params.String("month")
	if rawMonth == "" {
		snapshot, err := h.selection.Snapshot(c.Request.Context(), principal)
		if err != nil {
			return 0, nil, err
		}
		rawMonth = snapshot.Month
	}
	month, err := selection.ParseMonth(rawMonth, h.loc)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	summary, err := h.ledger.Summarize(c.Request.Context(), month)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"data": summary, "month": month.Format(selection.MonthLayout)}, nil
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
