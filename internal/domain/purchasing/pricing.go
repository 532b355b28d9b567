package purchasing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// ResolveUnitPrice precedencia: precio explícito > fila artículo-proveedor > precio por defecto del artículo > nil.
// Una fila con precio nil no corta la cadena.
func ResolveUnitPrice(override *decimal.Decimal, row *entity.ItemSupplier, item *entity.Item) *decimal.Decimal {
	if override != nil {
		return copyDecimal(override)
	}
	if row != nil && row.UnitPrice != nil {
		return copyDecimal(row.UnitPrice)
	}
	if item != nil && item.UnitPrice != nil {
		return copyDecimal(item.UnitPrice)
	}
	return nil
}

// LineAmount precio × cantidad; nil si el precio no se conoce.
func LineAmount(price *decimal.Decimal, qty int) *decimal.Decimal {
	if price == nil {
		return nil
	}
	amount := price.Mul(decimal.NewFromInt(int64(qty)))
	return &amount
}

// PriceEqual compara precios opcionales (nil == nil).
func PriceEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// SupplierChoice opción de proveedor para un candidato.
type SupplierChoice struct {
	SupplierID   int64
	SupplierName string
	UnitPrice    *decimal.Decimal
	Registered   bool // existe precio registrado (o es el proveedor por defecto del artículo)
}

// BuildSupplierChoices ordena las opciones de proveedor de un artículo:
// primero las registradas por precio ascendente (sin precio al final), luego el resto alfabético.
// El proveedor por defecto del artículo cuenta como registrado y, si su fila no tiene precio,
// hereda el precio por defecto del artículo. El primer elemento es la opción por defecto.
func BuildSupplierChoices(item *entity.Item, rows []entity.ItemSupplier, suppliers []entity.Supplier) []SupplierChoice {
	names := make(map[int64]string, len(suppliers))
	for _, s := range suppliers {
		names[s.ID] = s.Name
	}

	registered := make([]SupplierChoice, 0, len(rows)+1)
	seen := make(map[int64]bool, len(rows)+1)
	for _, r := range rows {
		name, ok := names[r.SupplierID]
		if !ok || seen[r.SupplierID] {
			continue
		}
		seen[r.SupplierID] = true
		price := copyDecimal(r.UnitPrice)
		if price == nil && item.SupplierID != nil && *item.SupplierID == r.SupplierID {
			price = copyDecimal(item.UnitPrice)
		}
		registered = append(registered, SupplierChoice{SupplierID: r.SupplierID, SupplierName: name, UnitPrice: price, Registered: true})
	}
	if item.SupplierID != nil && !seen[*item.SupplierID] {
		if name, ok := names[*item.SupplierID]; ok {
			seen[*item.SupplierID] = true
			registered = append(registered, SupplierChoice{
				SupplierID: *item.SupplierID, SupplierName: name, UnitPrice: copyDecimal(item.UnitPrice), Registered: true,
			})
		}
	}
	sort.SliceStable(registered, func(i, j int) bool {
		a, b := registered[i], registered[j]
		if (a.UnitPrice == nil) != (b.UnitPrice == nil) {
			return a.UnitPrice != nil
		}
		if a.UnitPrice != nil && !a.UnitPrice.Equal(*b.UnitPrice) {
			return a.UnitPrice.LessThan(*b.UnitPrice)
		}
		return a.SupplierName < b.SupplierName
	})

	others := make([]SupplierChoice, 0, len(suppliers))
	for _, s := range suppliers {
		if seen[s.ID] {
			continue
		}
		others = append(others, SupplierChoice{SupplierID: s.ID, SupplierName: s.Name})
	}
	sort.SliceStable(others, func(i, j int) bool { return others[i].SupplierName < others[j].SupplierName })

	return append(registered, others...)
}

// PricedChoices filtra las opciones con precio (vista de comparación de precios).
func PricedChoices(choices []SupplierChoice) []SupplierChoice {
	out := make([]SupplierChoice, 0, len(choices))
	for _, c := range choices {
		if c.UnitPrice != nil {
			out = append(out, c)
		}
	}
	return out
}

// ChoiceFor busca la opción de un proveedor concreto.
func ChoiceFor(choices []SupplierChoice, supplierID int64) (SupplierChoice, bool) {
	for _, c := range choices {
		if c.SupplierID == supplierID {
			return c, true
		}
	}
	return SupplierChoice{}, false
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
