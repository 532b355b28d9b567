package purchasing_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/application/catalog"
	"github.com/jhoicas/Compras-api/internal/application/inventory"
	"github.com/jhoicas/Compras-api/internal/application/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
	"github.com/jhoicas/Compras-api/internal/infrastructure/memory"
	"github.com/jhoicas/Compras-api/pkg/config"
)

// ── Dobles de prueba ─────────────────────────────────────────────────────────

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeRenderer struct {
	err   error
	calls []purchasing.DocumentData
}

func (r *fakeRenderer) Render(_ context.Context, data purchasing.DocumentData) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, data)
	return []byte("%PDF-1.4 pedido"), nil
}

type fakeFiles struct {
	saveErr error
	files   map[string][]byte
}

func (f *fakeFiles) Ref(segments ...string) string { return strings.Join(segments, "/") }

func (f *fakeFiles) Exists(_ context.Context, ref string) (bool, error) {
	_, ok := f.files[ref]
	return ok, nil
}

func (f *fakeFiles) Save(_ context.Context, ref string, content []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.files[ref] = content
	return nil
}

func (f *fakeFiles) Load(_ context.Context, ref string) ([]byte, error) {
	b, ok := f.files[ref]
	if !ok {
		return nil, errors.New("no existe")
	}
	return b, nil
}

type fakeMailer struct {
	err    error
	sent   []purchasing.Message
	onSend func()
}

func (m *fakeMailer) Send(_ context.Context, msg purchasing.Message) error {
	if m.err != nil {
		return m.err
	}
	if m.onSend != nil {
		m.onSend()
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeCredentials struct{}

func (fakeCredentials) Password(_ context.Context, sender string) (string, error) {
	return "secreto-" + sender, nil
}

// ── Entorno ──────────────────────────────────────────────────────────────────

type env struct {
	ctx      context.Context
	store    *memory.Store
	repos    repository.Repositories
	clock    *fakeClock
	ledger   *inventory.LedgerUseCase
	pricing  *catalog.PricingUseCase
	builder  *purchasing.CandidateBuilder
	orders   *purchasing.OrderUseCase
	docs     *purchasing.DocumentUseCase
	recon    *purchasing.ReconciliationUseCase
	renderer *fakeRenderer
	files    *fakeFiles
	mailer   *fakeMailer
}

func testConfig() *config.Config {
	return &config.Config{
		Purchasing: config.PurchasingConfig{DuplicateWindowSeconds: 120, BusinessTimezone: "UTC"},
		SMTP: config.SMTPConfig{
			Server: "smtp.example.com",
			Port:   587,
			Accounts: []config.MailAccount{
				{Key: "shared", Sender: "po@example.com", DisplayName: "購買窓口"},
				{Key: "kimura", Sender: "kimura@example.com", DisplayName: "木村 太郎", Departments: []string{"総務"}},
			},
			DepartmentDefaults: map[string]string{"製造": "shared"},
		},
		Company: config.CompanyProfile{
			Name:             "テスト株式会社",
			Address:          "東京都千代田区1-1",
			URL:              "https://example.com",
			DefaultPhone:     "03-1234-5678",
			DepartmentPhones: map[string]string{"総務": "内線 12"},
		},
	}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := testConfig()
	store := memory.NewStore()
	repos := store.Repositories()
	clock := &fakeClock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	log := zerolog.Nop()

	ledger := inventory.NewLedgerUseCase(store, repos, time.UTC, log)
	ledger.SetClock(clock.Now)
	pricing := catalog.NewPricingUseCase(store, repos, log)
	pricing.SetClock(clock.Now)
	builder := purchasing.NewCandidateBuilder(repos, pricing)
	orders := purchasing.NewOrderUseCase(store, repos, pricing, ledger, builder, cfg.Purchasing, log)
	orders.SetClock(clock.Now)

	e := &env{
		ctx:      context.Background(),
		store:    store,
		repos:    repos,
		clock:    clock,
		ledger:   ledger,
		pricing:  pricing,
		builder:  builder,
		orders:   orders,
		renderer: &fakeRenderer{},
		files:    &fakeFiles{files: map[string][]byte{}},
		mailer:   &fakeMailer{},
	}
	e.docs = purchasing.NewDocumentUseCase(store, repos, pricing, purchasing.DocumentDeps{
		Renderer:    e.renderer,
		Store:       e.files,
		Mailer:      e.mailer,
		Credentials: fakeCredentials{},
	}, cfg, log)
	e.docs.SetClock(clock.Now)
	e.recon = purchasing.NewReconciliationUseCase(store, repos, orders, log)
	e.recon.SetClock(clock.Now)
	return e
}

func (e *env) supplier(t *testing.T, name, email, cc string) *entity.Supplier {
	t.Helper()
	s := &entity.Supplier{Name: name, Email: email, AssistantEmail: cc, ContactPerson: "田中"}
	require.NoError(t, e.repos.Suppliers.Create(e.ctx, s))
	return s
}

// item crea un artículo activo con existencias iniciales registradas en el libro.
func (e *env) item(t *testing.T, code, dept string, reorder, onHand int, supplierID *int64, price string) *entity.Item {
	t.Helper()
	it := &entity.Item{
		Code:                 code,
		Name:                 "Artículo " + code,
		Department:           dept,
		ReorderPoint:         reorder,
		DefaultOrderQuantity: 10,
		SupplierID:           supplierID,
		AccountName:          "消耗品費",
		ExpenseItemName:      "事務用品",
		Unit:                 "個",
		IsActive:             true,
	}
	if price != "" {
		it.UnitPrice = dec(price)
	}
	require.NoError(t, e.repos.Items.Create(e.ctx, it))
	require.NoError(t, e.repos.Inventory.Upsert(e.ctx, &entity.InventoryItem{ItemID: it.ID}))
	if onHand > 0 {
		_, err := e.ledger.RecordMovement(e.ctx, inventory.MovementInput{ItemID: it.ID, Type: entity.TransactionReceipt, Quantity: onHand})
		require.NoError(t, err)
	}
	return it
}

func (e *env) onHand(t *testing.T, itemID int64) int {
	t.Helper()
	onHand, sum, err := e.ledger.VerifyLedger(e.ctx, itemID)
	require.NoError(t, err)
	require.Equal(t, onHand, sum, "existencias == suma del libro")
	return onHand
}

func (e *env) order(t *testing.T, id int64) *entity.PurchaseOrder {
	t.Helper()
	o, err := e.repos.Orders.GetByID(e.ctx, id)
	require.NoError(t, err)
	return o
}

// setStatus fuerza el estado sin pasar por la máquina de estados (preparación de escenarios).
func (e *env) setStatus(t *testing.T, id int64, status entity.OrderStatus) {
	t.Helper()
	o := e.order(t, id)
	require.NotNil(t, o)
	o.Status = status
	require.NoError(t, e.repos.Orders.Update(e.ctx, o))
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func ptr[T any](v T) *T { return &v }

func inventoryIssue(itemID int64, qty int) inventory.MovementInput {
	return inventory.MovementInput{ItemID: itemID, Type: entity.TransactionIssue, Quantity: qty, Actor: "almacen"}
}

func itemKey(id int64) string { return strconv.FormatInt(id, 10) }
