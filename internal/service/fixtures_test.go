package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/greenhangar/ghe-billing/internal/config"
	"github.com/greenhangar/ghe-billing/internal/model"
	"github.com/greenhangar/ghe-billing/internal/repository/memstore"
	"github.com/greenhangar/ghe-billing/internal/selection"
)

var (
	manila  = mustLocation("Asia/Manila")
	fixedAt = time.Date(2025, 3, 15, 10, 30, 0, 0, manila)
	errBoom = errors.New("connection reset by peer")
	admin   = model.Principal{UserID: uuid.MustParse("5f0c2d7e-8a41-4d7e-9c35-0c1b7f0b9a11"), Email: "ops@greenhangar.ph", Role: model.UserRoleAdmin}
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

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func billingConfig() config.BillingConfig {
	return config.BillingConfig{
		VATAmount:     dec("6360.00"),
		Timezone:      "Asia/Manila",
		Location:      manila,
		Currency:      "PHP",
		IssuerName:    "GREEN HANGAR EMISSION TESTING CENTER",
		IssuerAddress: "Pasay City, Metro Manila",
		IssuerTIN:     "000-123-456-000",
		BillToName:    "PHILLIPINES AIR ASIA INC.",
		BillToAddress: "NAIA Terminal 3, Pasay City",
		BillToTIN:     "000-654-321-000",
		PaymentTerms:  "30 DAYS",
		PaymentMethod: "DOMESTIC FUNDS TRANSFER",
	}
}

type contractFixture struct {
	charge    string
	surcharge string
	discount  string
	status    string
	created   time.Time
	delivered *time.Time
}

func addContract(store *memstore.Store, fx contractFixture) model.Contract {
	if fx.surcharge == "" {
		fx.surcharge = "0"
	}
	if fx.discount == "" {
		fx.discount = "0"
	}
	if fx.status == "" {
		fx.status = model.ContractStatusDelivered
	}
	if fx.created.IsZero() {
		fx.created = time.Date(2025, 3, 3, 9, 0, 0, 0, manila)
	}
	return store.AddContract(model.Contract{
		DeliveryCharge:  dec(fx.charge),
		Surcharge:       dec(fx.surcharge),
		Discount:        dec(fx.discount),
		Status:          fx.status,
		DropOffLocation: "Blk 4 Lot 2, Paranaque City",
		CreatedAt:       fx.created,
		DeliveredAt:     fx.delivered,
		Luggage: []model.Luggage{
			{ID: uuid.New(), Owner: "Juan Dela Cruz", FlightNumber: "Z2 431", CaseNumber: "MNLZ200123"},
		},
	})
}

type fakeRecorder struct {
	documents map[string]int
	created   int
	paid      int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{documents: make(map[string]int)}
}

func (r *fakeRecorder) DocumentGenerated(kind string) { r.documents[kind]++ }
func (r *fakeRecorder) PaymentCreated()               { r.created++ }
func (r *fakeRecorder) PaymentMarkedPaid()            { r.paid++ }

type stubRenderer struct {
	statements []model.Statement
	invoices   []model.Invoice
	err        error
}

func (r *stubRenderer) Statement(stmt model.Statement) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.statements = append(r.statements, stmt)
	return []byte("statement"), nil
}

func (r *stubRenderer) Invoice(inv model.Invoice) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.invoices = append(r.invoices, inv)
	return []byte("invoice"), nil
}

type documentFixture struct {
	store     *memstore.Store
	recorder  *fakeRecorder
	pdf       *stubRenderer
	excel     *stubRenderer
	selection *SelectionService
	payments  *PaymentService
	documents *DocumentService
}

func newDocumentFixture() *documentFixture {
	return newDocumentFixtureAt(clock)
}

func newDocumentFixtureAt(now func() time.Time) *documentFixture {
	store := memstore.New()
	recorder := newFakeRecorder()
	pdf := &stubRenderer{}
	excel := &stubRenderer{}
	ledger := NewLedgerService(store)
	selectionService := NewSelectionService(ledger, selection.NewStore(manila, now))
	payments := NewPaymentService(store, recorder, manila, now)
	return &documentFixture{
		store:     store,
		recorder:  recorder,
		pdf:       pdf,
		excel:     excel,
		selection: selectionService,
		payments:  payments,
		documents: NewDocumentService(selectionService, payments, pdf, excel, billingConfig(), recorder, now),
	}
}

// sequenceClock returns the given instants in order and then repeats the last.
func sequenceClock(instants ...time.Time) func() time.Time {
	var mu sync.Mutex
	next := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		at := instants[next]
		if next < len(instants)-1 {
			next++
		}
		return at
	}
}
