package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/application/catalog"
	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/inventory"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	rules "github.com/jhoicas/Compras-api/internal/domain/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// Tipos de candidato.
const (
	CandidateManaged   = "managed"   // artículo bajo mínimos
	CandidateUnmanaged = "unmanaged" // solicitud fuera de catálogo preparada con proveedor
)

// UnsetDepartmentLabel se muestra cuando el artículo no tiene departamento.
const UnsetDepartmentLabel = "未設定"

// Candidate fila de la lista de trabajo de compras.
type Candidate struct {
	Type          string
	Item          *entity.Item
	Request       *entity.UnmanagedOrderRequest
	Code          string
	Name          string
	Department    string // tal como está guardado (puede ser vacío)
	Maker         string
	SupplierID    *int64
	SupplierName  string
	UnitPrice     *decimal.Decimal
	Choices       []rules.SupplierChoice
	OnHand        *int
	ReorderPoint  *int
	Gap           *int
	OrderQuantity int
	Note          string
	Usage         string
	ReplyDueDate  *time.Time
}

// Key clave usada por la creación masiva: id del artículo o "unmanaged_<id>".
func (c Candidate) Key() string {
	if c.Type == CandidateUnmanaged {
		return fmt.Sprintf("unmanaged_%d", c.Request.ID)
	}
	return fmt.Sprintf("%d", c.Item.ID)
}

// CandidateBuilder cruza existencias, pedidos firmes y solicitudes preparadas.
type CandidateBuilder struct {
	repos   repository.Repositories
	pricing Pricing
}

// NewCandidateBuilder construye el generador de candidatos.
func NewCandidateBuilder(repos repository.Repositories, pricing Pricing) *CandidateBuilder {
	return &CandidateBuilder{repos: repos, pricing: pricing}
}

// Build lista de trabajo para la API. department vacío = todos.
func (b *CandidateBuilder) Build(ctx context.Context, department string) ([]dto.CandidateResponse, error) {
	list, err := b.BuildInTx(ctx, b.repos, strings.TrimSpace(department))
	if err != nil {
		return nil, err
	}
	out := make([]dto.CandidateResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCandidateResponse(c))
	}
	return out, nil
}

// BuildInTx arma los candidatos con los repositorios recibidos:
//  1. artículos con reorder_point > 0 y on_hand <= reorder_point, salvo los que ya están
//     en pedidos CONFIRMED, SENT o WAITING;
//  2. solicitudes PENDING preparadas con proveedor, por fecha de solicitud.
func (b *CandidateBuilder) BuildInTx(ctx context.Context, repos repository.Repositories, department string) ([]Candidate, error) {
	committed, err := repos.Orders.ItemIDsInStatuses(ctx, rules.CommittedStatuses)
	if err != nil {
		return nil, err
	}
	shortfalls, err := inventory.FindShortfalls(ctx, repos, department, committed)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(shortfalls))
	for _, s := range shortfalls {
		choices, err := b.pricing.ChoicesInTx(ctx, repos, s.Item)
		if err != nil {
			return nil, err
		}
		onHand, reorder, gap := s.OnHand, s.Item.ReorderPoint, s.Gap
		c := Candidate{
			Type:          CandidateManaged,
			Item:          s.Item,
			Code:          s.Item.Code,
			Name:          s.Item.Name,
			Department:    s.Item.Department,
			Maker:         s.Item.Manufacturer,
			Choices:       choices,
			OnHand:        &onHand,
			ReorderPoint:  &reorder,
			Gap:           &gap,
			OrderQuantity: s.Item.OrderQuantity(),
		}
		if def, ok := defaultChoice(choices); ok {
			id := def.SupplierID
			c.SupplierID = &id
			c.SupplierName = def.SupplierName
			c.UnitPrice = def.UnitPrice
		}
		out = append(out, c)
	}

	requests, err := repos.Requests.List(ctx, repository.RequestFilter{OnlyStaged: true, Department: department})
	if err != nil {
		return nil, err
	}
	for _, req := range requests {
		c, err := b.requestCandidate(ctx, repos, req)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (b *CandidateBuilder) requestCandidate(ctx context.Context, repos repository.Repositories, req *entity.UnmanagedOrderRequest) (Candidate, error) {
	c := Candidate{
		Type:          CandidateUnmanaged,
		Request:       req,
		Code:          req.ItemCodeFree,
		Name:          req.ItemCodeFree,
		Department:    req.RequestedDepartment,
		Maker:         req.Manufacturer,
		SupplierID:    req.StagedSupplierID,
		OrderQuantity: max(1, req.Quantity),
		Note:          req.Note,
		Usage:         req.UsageDestination,
		ReplyDueDate:  req.VendorReplyDueDate,
	}
	staged := *req.StagedSupplierID

	if req.ItemID != nil {
		item, err := repos.Items.GetByID(ctx, *req.ItemID)
		if err != nil {
			return c, err
		}
		if item != nil {
			c.Item = item
			c.Code = item.Code
			c.Name = item.Name
			if c.Maker == "" {
				c.Maker = item.Manufacturer
			}
			choices, err := b.pricing.ChoicesInTx(ctx, repos, item)
			if err != nil {
				return c, err
			}
			c.Choices = choices
			if ch, ok := rules.ChoiceFor(choices, staged); ok {
				c.SupplierName = ch.SupplierName
				c.UnitPrice = ch.UnitPrice
			}
			return c, nil
		}
	}

	// Texto libre: la única opción es el proveedor preparado, sin precio conocido.
	sup, err := repos.Suppliers.GetByID(ctx, staged)
	if err != nil {
		return c, err
	}
	if sup != nil {
		c.SupplierName = sup.Name
		c.Choices = []rules.SupplierChoice{{SupplierID: sup.ID, SupplierName: sup.Name, Registered: true}}
	}
	return c, nil
}

// defaultChoice primera opción registrada (la más barata con precio, o el proveedor por defecto).
func defaultChoice(choices []rules.SupplierChoice) (rules.SupplierChoice, bool) {
	for _, c := range choices {
		if c.Registered {
			return c, true
		}
	}
	return rules.SupplierChoice{}, false
}

func toCandidateResponse(c Candidate) dto.CandidateResponse {
	dept := c.Department
	if dept == "" {
		dept = UnsetDepartmentLabel
	}
	out := dto.CandidateResponse{
		CandidateType:      c.Type,
		ItemCode:           c.Code,
		Name:               c.Name,
		Department:         dept,
		Maker:              c.Maker,
		SupplierID:         c.SupplierID,
		SupplierName:       c.SupplierName,
		UnitPrice:          c.UnitPrice,
		Suppliers:          catalog.ChoiceResponses(c.Choices),
		SuppliersWithPrice: catalog.ChoiceResponses(rules.PricedChoices(c.Choices)),
		OnHand:             c.OnHand,
		ReorderPoint:       c.ReorderPoint,
		Gap:                c.Gap,
		OrderQuantity:      c.OrderQuantity,
		Note:               c.Note,
		UsageDestination:   c.Usage,
		VendorReplyDueDate: formatDate(c.ReplyDueDate),
	}
	if c.Item != nil {
		id := c.Item.ID
		out.ItemID = &id
	}
	if c.Request != nil {
		id := c.Request.ID
		out.UnmanagedRequestID = &id
	}
	if c.Gap != nil {
		out.GapLabel = fmt.Sprintf("%+d", *c.Gap)
	}
	return out
}

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
