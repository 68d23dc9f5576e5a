package http

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhangar/ghe-billing/internal/auth"
	"github.com/greenhangar/ghe-billing/internal/config"
	"github.com/greenhangar/ghe-billing/internal/excel"
	"github.com/greenhangar/ghe-billing/internal/http/middleware"
	"github.com/greenhangar/ghe-billing/internal/model"
	"github.com/greenhangar/ghe-billing/internal/pdf"
	"github.com/greenhangar/ghe-billing/internal/repository/memstore"
	"github.com/greenhangar/ghe-billing/internal/selection"
	"github.com/greenhangar/ghe-billing/internal/service"
	"github.com/greenhangar/ghe-billing/internal/storage"
)

const testSecret = "test-secret"

var (
	manila  = mustLocation("Asia/Manila")
	fixedAt = time.Date(2025, 3, 15, 10, 30, 0, 0, manila)
	adminID = uuid.MustParse("5f0c2d7e-8a41-4d7e-9c35-0c1b7f0b9a11")
)

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func clock() time.Time {
	return fixedAt
}

type actionCounter struct {
	calls map[string]int
}

func (a *actionCounter) ActionHandled(action, outcome string) {
	a.calls[action+"/"+outcome]++
}

type testServer struct {
	router  http.Handler
	store   *memstore.Store
	parser  *auth.Parser
	actions *actionCounter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	billingCfg := config.BillingConfig{
		VATAmount:     decimal.RequireFromString("6360.00"),
		Location:      manila,
		Currency:      "PHP",
		IssuerName:    "GREEN HANGAR EMISSION TESTING CENTER",
		BillToName:    "PHILLIPINES AIR ASIA INC.",
		PaymentTerms:  "30 DAYS",
		PaymentMethod: "DOMESTIC FUNDS TRANSFER",
	}

	ledger := service.NewLedgerService(store)
	payments := service.NewPaymentService(store, nil, manila, clock)
	selections := service.NewSelectionService(ledger, selection.NewStore(manila, clock))
	services := Services{
		Ledger:    ledger,
		Pricing:   service.NewPricingService(store, clock),
		Payments:  payments,
		Selection: selections,
		Documents: service.NewDocumentService(selections, payments, pdf.NewGenerator(), excel.NewGenerator(), billingCfg, nil, clock),
		Profiles:  service.NewProfileService(store, storage.NewBlobStore(afero.NewMemMapFs()), 64, zerolog.Nop()),
	}

	parser := auth.NewParser(testSecret)
	actions := &actionCounter{calls: map[string]int{}}
	handler := NewHandler(services, actions, manila, zerolog.Nop())
	router := NewRouter(handler, middleware.Auth(parser), RouterConfig{Environment: "test"}, prometheus.NewRegistry(), zerolog.Nop())

	return &testServer{router: router, store: store, parser: parser, actions: actions}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID, role model.UserRole) string {
	t.Helper()
	raw, err := s.parser.Sign(auth.Claims{UserID: userID.String(), Email: "ops@greenhangar.ph", Role: string(role)})
	require.NoError(t, err)
	return raw
}

func (s *testServer) do(t *testing.T, req *http.Request, role model.UserRole) *httptest.ResponseRecorder {
	t.Helper()
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, adminID, role))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) action(t *testing.T, action string, params map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]any{"action": action, "params": params})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/admin", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req, model.UserRoleAdmin)
}

func (s *testServer) addContract(charge, surcharge, discount, status string, created time.Time) model.Contract {
	return s.store.AddContract(model.Contract{
		DeliveryCharge:  decimal.RequireFromString(charge),
		Surcharge:       decimal.RequireFromString(surcharge),
		Discount:        decimal.RequireFromString(discount),
		Status:          status,
		DropOffLocation: "Blk 4 Lot 2, Paranaque City",
		CreatedAt:       created,
		Luggage: []model.Luggage{
			{ID: uuid.New(), Owner: "Juan Dela Cruz", FlightNumber: "Z2 431"},
		},
	})
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Missing    []string        `json:"missing"`
	Pagination selection.Meta  `json:"pagination"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/admin", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/admin", nil), model.UserRoleContractor)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListContracts_ComputesTotal(t *testing.T) {
	srv := newTestServer(t)
	srv.addContract("1000", "100", "10", model.ContractStatusDelivered, time.Date(2025, 3, 3, 9, 0, 0, 0, manila))

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/admin", nil), model.UserRoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	var contracts []struct {
		Total decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &contracts))
	require.Len(t, contracts, 1)
	assertDecimal(t, "990", contracts[0].Total)
}

func TestListContracts_MonthPagination(t *testing.T) {
	srv := newTestServer(t)
	srv.addContract("500", "0", "0", model.ContractStatusDelivered, time.Date(2025, 3, 3, 9, 0, 0, 0, manila))
	srv.addContract("700", "0", "0", model.ContractStatusDelivered, time.Date(2025, 3, 20, 9, 0, 0, 0, manila))
	srv.addContract("900", "0", "0", model.ContractStatusDelivered, time.Date(2025, 4, 1, 0, 0, 0, 0, manila))

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/admin?month=2025-03&per_page=1", nil), model.UserRoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 2, body.Pagination.Total)
	assert.True(t, body.Pagination.HasNext)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/admin?month=2025-03&page=9223372036854775807", nil), model.UserRoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", string(decode(t, rec).Data))

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/admin?month=March", nil), model.UserRoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAction_UpdateSurchargeAndDiscount(t *testing.T) {
	srv := newTestServer(t)
	contract := srv.addContract("1000", "0", "0", model.ContractStatusDelivered, time.Date(2025, 3, 3, 9, 0, 0, 0, manila))

	rec := srv.action(t, "updateSurcharge", map[string]any{"contractId": contract.ID, "surcharge": 150})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.action(t, "updateDiscount", map[string]any{"contractId": contract.ID, "discount": "10"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated struct {
		Surcharge decimal.Decimal `json:"surcharge"`
		Total     decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &updated))
	assertDecimal(t, "150", updated.Surcharge)
	assertDecimal(t, "1035", updated.Total)

	rec = srv.action(t, "updateDiscount", map[string]any{"contractId": contract.ID, "discount": 101})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.action(t, "updateSurcharge", map[string]any{"contractId": contract.ID, "surcharge": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.action(t, "updateSurcharge", map[string]any{"contractId": uuid.New(), "surcharge": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 2, srv.actions.calls["updateSurcharge/error"])
	assert.Equal(t, 1, srv.actions.calls["updateSurcharge/ok"])
}

func TestAction_Pricing(t *testing.T) {
	srv := newTestServer(t)
	ncr := srv.store.AddRegion("NCR")
	pasay := srv.store.AddCity(ncr, "Pasay City", decimal.RequireFromString("450"), fixedAt.Add(-time.Hour))
	srv.store.AddCity(srv.store.AddRegion("Region IV-A"), "Bacoor", decimal.RequireFromString("800"), fixedAt.Add(-time.Hour))

	rec := srv.action(t, "getPricingRegion", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "NCR")

	rec = srv.action(t, "getCitiesByRegion", map[string]any{"region_id": ncr.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pasay City")
	assert.NotContains(t, rec.Body.String(), "Bacoor")

	rec = srv.action(t, "getAllPricing", map[string]any{"region": "NCR"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Bacoor")

	rec = srv.action(t, "updatePrice", map[string]any{"city_id": pasay.ID, "price": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.action(t, "updatePrice", map[string]any{"city_id": pasay.ID, "price": 475.5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var entry model.PricingEntry
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &entry))
	assertDecimal(t, "475.5", entry.Price)

	rec = srv.action(t, "getPriceByCity", map[string]any{"city_id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAction_CreatePayment_MissingFields(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.action(t, "createPayment", map[string]any{"invoice_image": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"invoice_number", "payment_status_id", "created_at", "due_date", "total_charge"}, decode(t, rec).Missing)
}

func TestAction_PaymentLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.action(t, "createPayment", map[string]any{
		"invoice_number":    "20250315",
		"payment_status_id": 1,
		"created_at":        "2025-03-15",
		"due_date":          "2025-03-31",
		"total_charge":      "7360",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var payment model.Payment
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &payment))
	assert.Equal(t, model.PaymentStatusUnpaid, payment.Status)

	rec = srv.action(t, "updatePaymentStatus", map[string]any{"payment_id": payment.ID, "payment_status_id": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.action(t, "updatePaymentStatus", map[string]any{"payment_id": payment.ID, "payment_status_id": "2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.action(t, "updatePaymentStatus", map[string]any{"payment_id": payment.ID, "payment_status_id": 2})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.action(t, "getPayments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var payments []model.Payment
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &payments))
	require.Len(t, payments, 1)
	assert.True(t, payments[0].IsPaid())
}

func TestAction_Unknown(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.action(t, "dropTables", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown action", decode(t, rec).Error)
	assert.Equal(t, 1, srv.actions.calls["unknown/error"])
}

func TestAction_SelectionAndSummary(t *testing.T) {
	srv := newTestServer(t)
	first := srv.addContract("1000", "0", "0", model.ContractStatusDelivered, time.Date(2025, 3, 3, 9, 0, 0, 0, manila))
	srv.addContract("300", "0", "0", model.ContractStatusCancelled, time.Date(2025, 3, 4, 9, 0, 0, 0, manila))
	february := srv.addContract("200", "0", "0", model.ContractStatusDelivered, time.Date(2025, 2, 4, 9, 0, 0, 0, manila))

	rec := srv.action(t, "setMonth", map[string]any{"month": "2025-03"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.action(t, "toggleContract", map[string]any{"contract_id": first.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.action(t, "toggleContract", map[string]any{"contract_id": february.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.action(t, "getSelection", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot selection.Snapshot
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &snapshot))
	assert.Equal(t, "2025-03", snapshot.Month)
	assert.Equal(t, []uuid.UUID{first.ID}, snapshot.ContractIDs)

	rec = srv.action(t, "selectAllVisible", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &snapshot))
	assert.Equal(t, 2, snapshot.Count)

	rec = srv.action(t, "deselectAllVisible", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &snapshot))
	assert.Equal(t, 0, snapshot.Count)

	require.Equal(t, http.StatusOK, srv.action(t, "setMonth", map[string]any{"month": "2025-02"}).Code)
	rec = srv.action(t, "resetSelection", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &snapshot))
	assert.Equal(t, "2025-03", snapshot.Month)

	rec = srv.action(t, "getLedgerSummary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Contracts int `json:"contracts"`
		Cancelled int `json:"cancelled"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &summary))
	assert.Equal(t, 2, summary.Contracts)
	assert.Equal(t, 1, summary.Cancelled)
}

func TestDocuments_Statement(t *testing.T) {
	srv := newTestServer(t)
	contract := srv.addContract("1000", "0", "0", model.ContractStatusDelivered, time.Date(2025, 3, 3, 9, 0, 0, 0, manila))
	require.Equal(t, http.StatusOK, srv.action(t, "toggleContract", map[string]any{"contract_id": contract.ID}).Code)

	rec := srv.do(t, httptest.NewRequest(http.MethodPost, "/api/admin/documents/statement?format=xlsx", nil), model.UserRoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="GHE-Transmittal-Report-March-2025.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = srv.do(t, httptest.NewRequest(http.MethodPost, "/api/admin/documents/statement", nil), model.UserRoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = srv.do(t, httptest.NewRequest(http.MethodPost, "/api/admin/documents/statement?format=docx", nil), model.UserRoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocuments_Invoice(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, httptest.NewRequest(http.MethodPost, "/api/admin/documents/invoice", nil), model.UserRoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	srv.addContract("1000", "0", "0", model.ContractStatusDelivered, time.Date(2025, 3, 3, 9, 0, 0, 0, manila))
	rec = srv.do(t, httptest.NewRequest(http.MethodPost, "/api/admin/documents/invoice", nil), model.UserRoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "20250315", rec.Header().Get("X-Invoice-Number"))
	assert.Equal(t, `attachment; filename="Invoice-March-2025.pdf"`, rec.Header().Get("Content-Disposition"))

	payments, err := srv.store.ListPayments(t.Context())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assertDecimal(t, "1000", payments[0].TotalCharge)
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 96, 24))
	for x := 0; x < 96; x++ {
		img.Set(x, x%24, color.RGBA{G: 180, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProfile(t *testing.T) {
	srv := newTestServer(t)
	riderID := uuid.New()
	srv.store.AddProfile(model.Profile{ID: riderID, Email: "rider@greenhangar.ph", FirstName: "Maria", LastName: "Santos"})
	srv.store.AddIdentityType("Driver's License")
	bearer := "Bearer " + srv.token(t, riderID, model.UserRoleContractor)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", bearer)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Maria")

	req = httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"first_name":"M","last_name":"Santos"}`))
	req.Header.Set("Authorization", bearer)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "first_name")

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "front.png")
	require.NoError(t, err)
	_, err = part.Write(samplePNG(t))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req = httptest.NewRequest(http.MethodPut, "/api/profile/documents/front", &body)
	req.Header.Set("Authorization", bearer)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile model.Profile
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &profile))
	assert.True(t, strings.HasPrefix(profile.GovIDProof, "gov-id/"+riderID.String()+"/front-"))

	req = httptest.NewRequest(http.MethodGet, "/api/profile/documents/front", nil)
	req.Header.Set("Authorization", bearer)
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	_, format, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	req = httptest.NewRequest(http.MethodGet, "/api/profile/documents/back", nil)
	req.Header.Set("Authorization", bearer)
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/profile/identity-types", nil)
	req.Header.Set("Authorization", bearer)
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Driver's License")

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/profile", nil), model.UserRoleAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"https://ops.greenhangar.ph"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, []string{"https://ops.greenhangar.ph"}, cfg.AllowOrigins)
}
