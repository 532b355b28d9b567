package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	rules "github.com/jhoicas/Compras-api/internal/domain/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
	"github.com/jhoicas/Compras-api/pkg/config"
)

// OrderUseCase ciclo de vida del pedido de compra: creación con deduplicación, creación masiva
// desde candidatos, máquina de estados, recepción parcial y fechas de respuesta del proveedor.
type OrderUseCase struct {
	txRunner   TxRunner
	repos      repository.Repositories
	pricing    Pricing
	ledger     Ledger
	candidates *CandidateBuilder
	window     time.Duration
	loc        *time.Location
	now        func() time.Time
	log        zerolog.Logger
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(
	txRunner TxRunner,
	repos repository.Repositories,
	pricing Pricing,
	ledger Ledger,
	candidates *CandidateBuilder,
	cfg config.PurchasingConfig,
	log zerolog.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		txRunner:   txRunner,
		repos:      repos,
		pricing:    pricing,
		ledger:     ledger,
		candidates: candidates,
		window:     cfg.DuplicateWindow(),
		loc:        cfg.Location(),
		now:        time.Now,
		log:        log,
	}
}

// SetClock reemplaza el reloj (tests de la ventana de deduplicación).
func (uc *OrderUseCase) SetClock(now func() time.Time) { uc.now = now }

func (uc *OrderUseCase) clock() time.Time { return uc.now().In(uc.loc) }

// ── Creación ─────────────────────────────────────────────────────────────────

// orderInput entrada interna de creación (compartida por la API, la creación masiva y la conversión).
type orderInput struct {
	Lines                  []dto.OrderLineRequest
	OrderedBy              string
	Department             string
	SupplierIDForFreeLines *int64
}

type orderOutcome struct {
	Order    *entity.PurchaseOrder
	Supplier *entity.Supplier
	Reused   bool
}

type draftLine struct {
	line       entity.PurchaseOrderLine
	request    *entity.UnmanagedOrderRequest
	supplierID *int64
	item       *entity.Item
}

// CreateOrder crea un pedido DRAFT o, si el mismo usuario envió un pedido idéntico dentro de la
// ventana de deduplicación, devuelve ese pedido con reused=true.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, orderedBy string, in dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	var out *orderOutcome
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		var err error
		out, err = uc.createOrderInTx(ctx, repos, orderInput{
			Lines:                  in.Lines,
			OrderedBy:              orderedBy,
			Department:             in.Department,
			SupplierIDForFreeLines: in.SupplierIDForFreeLines,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return toCreateOrderResponse(out), nil
}

func (uc *OrderUseCase) createOrderInTx(ctx context.Context, repos repository.Repositories, in orderInput) (*orderOutcome, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: el pedido no tiene líneas", domain.ErrInvalidLine)
	}

	drafts := make([]draftLine, 0, len(in.Lines))
	firstItemDept, requestDept := "", ""
	for i, l := range in.Lines {
		d, err := uc.normalizeLine(ctx, repos, i+1, l)
		if err != nil {
			return nil, err
		}
		if d.item != nil && firstItemDept == "" {
			firstItemDept = d.item.Department
		}
		if d.request != nil && requestDept == "" {
			requestDept = strings.TrimSpace(d.request.RequestedDepartment)
		}
		drafts = append(drafts, d)
	}

	supplier, err := resolveSupplier(ctx, repos, drafts, in.SupplierIDForFreeLines)
	if err != nil {
		return nil, err
	}

	department := strings.TrimSpace(in.Department)
	if department == "" {
		department = firstItemDept
	}
	// solo solicitudes libres: el departamento solicitante
	if department == "" {
		department = requestDept
	}
	orderedBy := strings.TrimSpace(in.OrderedBy)
	now := uc.clock()

	// Deduplicación: mismo proveedor, departamento y usuario, mismas líneas, dentro de la ventana.
	sig := draftSignature(drafts)
	recent, err := repos.Orders.FindRecent(ctx, repository.DuplicateQuery{
		SupplierID:    supplier.ID,
		Department:    department,
		OrderedByUser: orderedBy,
		CreatedSince:  now.Add(-uc.window),
	})
	if err != nil {
		return nil, err
	}
	for _, o := range recent {
		if !rules.OrderSignature(o).Equal(sig) {
			continue
		}
		if err := linkRequestsToExisting(ctx, repos, o, drafts); err != nil {
			return nil, err
		}
		uc.log.Info().Int64("order_id", o.ID).Str("status", string(o.Status)).Bool("reused", true).Msg("pedido duplicado reutilizado")
		return &orderOutcome{Order: o, Supplier: supplier, Reused: true}, nil
	}

	ids, err := repos.Orders.IDs(ctx)
	if err != nil {
		return nil, err
	}
	order := &entity.PurchaseOrder{
		ID:            rules.LowestUnusedID(ids),
		SupplierID:    supplier.ID,
		Department:    department,
		OrderedByUser: orderedBy,
		Status:        entity.OrderStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
		Lines:         make([]entity.PurchaseOrderLine, 0, len(drafts)),
	}
	for _, d := range drafts {
		order.Lines = append(order.Lines, d.line)
	}
	if err := repos.Orders.Create(ctx, order); err != nil {
		return nil, err
	}

	for i, d := range drafts {
		if d.request == nil {
			continue
		}
		if err := convertRequest(ctx, repos, d.request, order.ID, order.Lines[i].ID); err != nil {
			return nil, err
		}
	}

	uc.log.Info().
		Int64("order_id", order.ID).
		Int64("supplier_id", supplier.ID).
		Str("department", department).
		Int("lines", len(order.Lines)).
		Bool("reused", false).
		Msg("pedido creado")
	return &orderOutcome{Order: order, Supplier: supplier}, nil
}

// normalizeLine convierte una línea de entrada en línea de pedido (solicitud, catálogo o texto libre).
func (uc *OrderUseCase) normalizeLine(ctx context.Context, repos repository.Repositories, no int, l dto.OrderLineRequest) (draftLine, error) {
	d := draftLine{
		line: entity.PurchaseOrderLine{
			Maker:            strings.TrimSpace(l.Maker),
			Quantity:         l.Quantity,
			Note:             strings.TrimSpace(l.Note),
			UsageDestination: strings.TrimSpace(l.UsageDestination),
		},
		supplierID: l.SupplierID,
	}
	// el precio de la línea solo se valida: la fila artículo-proveedor cambia al recibir
	if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
		return d, fmt.Errorf("%w: línea %d con precio negativo", domain.ErrInvalidLine, no)
	}

	switch {
	case l.UnmanagedRequestID != nil:
		req, err := repos.Requests.GetByID(ctx, *l.UnmanagedRequestID)
		if err != nil {
			return d, err
		}
		if req == nil {
			return d, fmt.Errorf("%w: solicitud %d no existe", domain.ErrNotEligible, *l.UnmanagedRequestID)
		}
		if req.Status != entity.RequestStatusPending || !req.IsStaged() {
			return d, fmt.Errorf("%w: solicitud %d en estado %s sin preparar", domain.ErrNotEligible, req.ID, req.Status)
		}
		d.request = req
		if d.line.Quantity == 0 {
			d.line.Quantity = req.Quantity
		}
		if d.line.Note == "" {
			d.line.Note = strings.TrimSpace(req.Note)
		}
		if d.line.UsageDestination == "" {
			d.line.UsageDestination = strings.TrimSpace(req.UsageDestination)
		}
		if d.supplierID == nil {
			d.supplierID = req.StagedSupplierID
		}
		if d.line.Maker == "" {
			d.line.Maker = strings.TrimSpace(req.Manufacturer)
		}
		if req.ItemID != nil {
			item, err := lookupItem(ctx, repos, *req.ItemID)
			if err != nil {
				return d, err
			}
			d.item = item
			id := item.ID
			d.line.ItemID = &id
			if d.line.Maker == "" {
				d.line.Maker = item.Manufacturer
			}
		} else {
			d.line.ItemNameFree = strings.TrimSpace(req.ItemCodeFree)
			if d.line.ItemNameFree == "" {
				return d, fmt.Errorf("%w: solicitud %d sin artículo ni descripción", domain.ErrInvalidLine, req.ID)
			}
		}

	case l.ItemID != nil && *l.ItemID > 0:
		item, err := lookupItem(ctx, repos, *l.ItemID)
		if err != nil {
			return d, err
		}
		d.item = item
		id := item.ID
		d.line.ItemID = &id
		if d.supplierID == nil {
			d.supplierID = item.SupplierID
		}
		if d.supplierID == nil {
			return d, fmt.Errorf("%w: línea %d (%s)", domain.ErrSupplierRequired, no, item.Code)
		}
		if d.line.Maker == "" {
			d.line.Maker = item.Manufacturer
		}
		due, err := parseOptionalDate(l.VendorReplyDueDate)
		if err != nil {
			return d, err
		}
		d.line.VendorReplyDueDate = due

	default:
		d.line.ItemNameFree = strings.TrimSpace(l.ItemNameFree)
		if d.line.ItemNameFree == "" {
			return d, fmt.Errorf("%w: línea %d sin artículo ni descripción", domain.ErrInvalidLine, no)
		}
		due, err := parseOptionalDate(l.VendorReplyDueDate)
		if err != nil {
			return d, err
		}
		d.line.VendorReplyDueDate = due
	}

	if d.line.Quantity < 1 {
		return d, fmt.Errorf("%w: línea %d con cantidad %d", domain.ErrInvalidQuantity, no, d.line.Quantity)
	}
	return d, nil
}

// resolveSupplier un pedido tiene un único proveedor; las líneas sin proveedor usan supplierForFree.
func resolveSupplier(ctx context.Context, repos repository.Repositories, drafts []draftLine, supplierForFree *int64) (*entity.Supplier, error) {
	ids := map[int64]bool{}
	missing := false
	for _, d := range drafts {
		if d.supplierID == nil {
			missing = true
			continue
		}
		ids[*d.supplierID] = true
	}
	if missing && supplierForFree != nil {
		ids[*supplierForFree] = true
	}
	// Las líneas libres sin proveedor acompañan al único proveedor del resto del pedido.
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: indique un proveedor para las líneas libres", domain.ErrSupplierRequired)
	}
	if len(ids) > 1 {
		return nil, fmt.Errorf("%w: %d proveedores distintos", domain.ErrMixedSupplier, len(ids))
	}
	var id int64
	for k := range ids {
		id = k
	}
	sup, err := repos.Suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		return nil, fmt.Errorf("%w: proveedor %d", domain.ErrNotFound, id)
	}
	return sup, nil
}

func draftSignature(drafts []draftLine) rules.Signature {
	lines := make([]rules.SignatureLine, 0, len(drafts))
	for _, d := range drafts {
		lines = append(lines, signatureLine(d.line))
	}
	return rules.NewSignature(lines)
}

func signatureLine(l entity.PurchaseOrderLine) rules.SignatureLine {
	return rules.SignatureLine{
		ItemID:   l.ItemID,
		FreeText: l.ItemNameFree,
		Maker:    l.Maker,
		Quantity: l.Quantity,
		Note:     l.Note,
	}
}

// linkRequestsToExisting cuando se reutiliza un pedido, las solicitudes de la nueva petición
// se enlazan a las líneas equivalentes del pedido existente (en orden de id).
func linkRequestsToExisting(ctx context.Context, repos repository.Repositories, order *entity.PurchaseOrder, drafts []draftLine) error {
	claimed := make(map[int64]bool, len(order.Lines))
	for _, d := range drafts {
		if d.request == nil {
			continue
		}
		want := rules.NewSignature([]rules.SignatureLine{signatureLine(d.line)})
		for _, l := range order.Lines {
			if claimed[l.ID] || !rules.NewSignature([]rules.SignatureLine{signatureLine(l)}).Equal(want) {
				continue
			}
			claimed[l.ID] = true
			if err := convertRequest(ctx, repos, d.request, order.ID, l.ID); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

func convertRequest(ctx context.Context, repos repository.Repositories, req *entity.UnmanagedOrderRequest, orderID, lineID int64) error {
	oid, lid := orderID, lineID
	req.Status = entity.RequestStatusConverted
	req.PurchaseOrderID = &oid
	req.PurchaseOrderLineID = &lid
	req.ClearStaging()
	return repos.Requests.Update(ctx, req)
}

func lookupItem(ctx context.Context, repos repository.Repositories, id int64) (*entity.Item, error) {
	item, err := repos.Items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrUnknownItem, id)
	}
	return item, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q (formato YYYY-MM-DD)", domain.ErrInvalidInput, raw)
	}
	return &t, nil
}

// ── Creación masiva ──────────────────────────────────────────────────────────

// CreateBulkOrdersFromCandidates agrupa los candidatos por proveedor efectivo (el elegido en
// overrides o el de por defecto) y crea un pedido por grupo. Los candidatos sin proveedor se omiten.
// Todos los grupos van en la misma transacción: si uno falla no queda ningún pedido.
func (uc *OrderUseCase) CreateBulkOrdersFromCandidates(ctx context.Context, orderedBy string, in dto.BulkOrderRequest) (*dto.BulkOrderResponse, error) {
	department := strings.TrimSpace(in.Department)
	var resp *dto.BulkOrderResponse
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		candidates, err := uc.candidates.BuildInTx(ctx, repos, department)
		if err != nil {
			return err
		}
		groups := groupCandidates(candidates, in.Overrides)

		resp = &dto.BulkOrderResponse{OrderIDs: make([]int64, 0, len(groups))}
		for _, g := range groups {
			out, err := uc.createOrderInTx(ctx, repos, orderInput{
				Lines:                  g.lines,
				OrderedBy:              orderedBy,
				Department:             g.department,
				SupplierIDForFreeLines: &g.supplierID,
			})
			if err != nil {
				return fmt.Errorf("proveedor %d: %w", g.supplierID, err)
			}
			if out.Reused {
				resp.ReusedCount++
			} else {
				resp.CreatedCount++
			}
			resp.OrderIDs = append(resp.OrderIDs, out.Order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

type bulkGroup struct {
	supplierID int64
	department string
	lines      []dto.OrderLineRequest
}

// groupCandidates un grupo por proveedor efectivo, en el orden en que aparece cada proveedor.
func groupCandidates(candidates []Candidate, overrides map[string]dto.CandidateOverride) []*bulkGroup {
	groups := make([]*bulkGroup, 0)
	bySupplier := map[int64]*bulkGroup{}
	for _, c := range candidates {
		ov := overrides[c.Key()]
		supplierID := c.SupplierID
		if ov.SupplierID != nil {
			supplierID = ov.SupplierID
		}
		if supplierID == nil {
			continue
		}
		qty := c.OrderQuantity
		if ov.Quantity != nil {
			qty = *ov.Quantity
		}
		note := c.Note
		if ov.Note != nil {
			note = *ov.Note
		}
		sid := *supplierID
		line := dto.OrderLineRequest{
			Quantity:         max(1, qty),
			Note:             note,
			Maker:            c.Maker,
			UsageDestination: c.Usage,
			SupplierID:       &sid,
			UnitPrice:        ov.UnitPrice,
		}
		if c.Type == CandidateUnmanaged {
			rid := c.Request.ID
			line.UnmanagedRequestID = &rid
		} else {
			iid := c.Item.ID
			line.ItemID = &iid
		}
		g, ok := bySupplier[sid]
		if !ok {
			g = &bulkGroup{supplierID: sid, department: c.Department}
			if strings.TrimSpace(g.department) == "" {
				g.department = UnsetDepartmentLabel
			}
			bySupplier[sid] = g
			groups = append(groups, g)
		}
		g.lines = append(g.lines, line)
	}
	return groups
}

// ── Consultas ────────────────────────────────────────────────────────────────

// ListOrders pedidos no cancelados, más recientes primero, con sus líneas valoradas.
func (uc *OrderUseCase) ListOrders(ctx context.Context, department string) ([]dto.OrderResponse, error) {
	orders, err := uc.repos.Orders.List(ctx, repository.OrderFilter{
		Department:      strings.TrimSpace(department),
		ExcludeStatuses: []entity.OrderStatus{entity.OrderStatusCancelled},
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		view, err := uc.orderView(ctx, o)
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	return out, nil
}

// GetOrder un pedido con sus líneas.
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID int64) (*dto.OrderResponse, error) {
	o, err := uc.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("%w: pedido %d", domain.ErrNotFound, orderID)
	}
	return uc.orderView(ctx, o)
}

func (uc *OrderUseCase) orderView(ctx context.Context, o *entity.PurchaseOrder) (*dto.OrderResponse, error) {
	repos := uc.repos
	view := &dto.OrderResponse{
		ID:            o.ID,
		SupplierID:    o.SupplierID,
		Department:    o.Department,
		OrderedByUser: o.OrderedByUser,
		Status:        string(o.Status),
		IssuedDate:    formatDate(o.IssuedDate),
		CreatedAt:     o.CreatedAt,
		Lines:         make([]dto.OrderLineResponse, 0, len(o.Lines)),
	}
	sup, err := repos.Suppliers.GetByID(ctx, o.SupplierID)
	if err != nil {
		return nil, err
	}
	if sup != nil {
		view.SupplierName = sup.Name
	}
	doc, err := repos.Orders.GetDocument(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		view.DocumentRef = doc.Path
	}
	for _, l := range o.Lines {
		lv := dto.OrderLineResponse{
			ID:                 l.ID,
			ItemID:             l.ItemID,
			ItemName:           l.ItemNameFree,
			Maker:              l.Maker,
			Quantity:           l.Quantity,
			ReceivedQuantity:   l.ReceivedQuantity,
			RemainingQuantity:  l.Remaining(),
			VendorReplyDueDate: formatDate(l.VendorReplyDueDate),
			UsageDestination:   l.UsageDestination,
			Note:               l.Note,
		}
		if l.ItemID != nil {
			item, err := repos.Items.GetByID(ctx, *l.ItemID)
			if err != nil {
				return nil, err
			}
			if item != nil {
				lv.ItemCode = item.Code
				lv.ItemName = item.Name
				lv.UnitPrice, err = uc.pricing.ResolveInTx(ctx, repos, item, o.SupplierID, nil)
				if err != nil {
					return nil, err
				}
			}
		}
		view.Lines = append(view.Lines, lv)
	}
	return view, nil
}

func toCreateOrderResponse(out *orderOutcome) *dto.CreateOrderResponse {
	return &dto.CreateOrderResponse{
		OrderID:      out.Order.ID,
		Status:       string(out.Order.Status),
		SupplierName: out.Supplier.Name,
		Department:   out.Order.Department,
		Reused:       out.Reused,
	}
}
