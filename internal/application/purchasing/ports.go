package purchasing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
	rules "github.com/jhoicas/Compras-api/internal/domain/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Todas las operaciones de pedidos se ejecutan en una única transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// Ledger entradas de inventario dentro de la transacción del caller.
type Ledger interface {
	ReceiveInTx(ctx context.Context, repos repository.Repositories, itemID int64, qty int, reason, note, actor, batchID string) error
}

// Pricing resolución de precios artículo-proveedor dentro de la transacción del caller.
type Pricing interface {
	ResolveInTx(ctx context.Context, repos repository.Repositories, item *entity.Item, supplierID int64, override *decimal.Decimal) (*decimal.Decimal, error)
	ChoicesInTx(ctx context.Context, repos repository.Repositories, item *entity.Item) ([]rules.SupplierChoice, error)
	ApplyOverrideInTx(ctx context.Context, repos repository.Repositories, item *entity.Item, supplierID int64, override *decimal.Decimal, changedBy string, lineID int64) (*decimal.Decimal, error)
	EnsureRowsInTx(ctx context.Context, repos repository.Repositories, itemIDs []int64, supplierID int64) (int, error)
}

// ── Documento ────────────────────────────────────────────────────────────────

// DocumentData contenido del pedido de compra impreso.
type DocumentData struct {
	OrderID    int64
	IssuedDate time.Time
	Department string
	OrderedBy  string
	Supplier   entity.Supplier
	Company    CompanyInfo
	Lines      []DocumentLine
	Total      *decimal.Decimal // nil si alguna línea no tiene precio
}

// DocumentLine línea impresa.
type DocumentLine struct {
	No               int
	Code             string
	Name             string
	Maker            string
	Quantity         int
	Unit             string
	UnitPrice        *decimal.Decimal
	Amount           *decimal.Decimal
	ReplyDueDate     *time.Time
	UsageDestination string
	Note             string
}

// CompanyInfo datos del emisor.
type CompanyInfo struct {
	Name        string
	Address     string
	Phone       string
	URL         string
	SenderEmail string
}

// DocumentRenderer genera el PDF del pedido.
type DocumentRenderer interface {
	Render(ctx context.Context, data DocumentData) ([]byte, error)
}

// DocumentStore archivo de documentos. Ref arma la referencia a partir de segmentos ya saneados.
type DocumentStore interface {
	Ref(segments ...string) string
	Exists(ctx context.Context, ref string) (bool, error)
	Save(ctx context.Context, ref string, content []byte) error
	Load(ctx context.Context, ref string) ([]byte, error)
}

// ── Correo ───────────────────────────────────────────────────────────────────

// Message correo saliente con el PDF adjunto.
type Message struct {
	From           string
	FromName       string
	Password       string
	To             []string
	CC             []string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// Mailer transporte SMTP.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// CredentialLookup contraseña SMTP de una cuenta remitente.
type CredentialLookup interface {
	Password(ctx context.Context, sender string) (string, error)
}
