package purchasing

import (
	"sort"
	"strings"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// SignatureLine componente de la firma de un pedido.
type SignatureLine struct {
	ItemID   *int64
	FreeText string
	Maker    string
	Quantity int
	Note     string
}

// Signature multiconjunto ordenado de líneas; dos pedidos con las mismas líneas
// en distinto orden tienen la misma firma.
type Signature []SignatureLine

// NewSignature normaliza (trim) y ordena las líneas: primero las de catálogo por id, luego las libres.
func NewSignature(lines []SignatureLine) Signature {
	sig := make(Signature, len(lines))
	for i, l := range lines {
		sig[i] = SignatureLine{
			ItemID:   l.ItemID,
			FreeText: strings.TrimSpace(l.FreeText),
			Maker:    strings.TrimSpace(l.Maker),
			Quantity: l.Quantity,
			Note:     strings.TrimSpace(l.Note),
		}
	}
	sort.SliceStable(sig, func(i, j int) bool { return sig[i].less(sig[j]) })
	return sig
}

// OrderSignature firma de un pedido ya guardado.
func OrderSignature(order *entity.PurchaseOrder) Signature {
	lines := make([]SignatureLine, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, SignatureLine{
			ItemID:   l.ItemID,
			FreeText: l.ItemNameFree,
			Maker:    l.Maker,
			Quantity: l.Quantity,
			Note:     l.Note,
		})
	}
	return NewSignature(lines)
}

// Equal compara dos firmas ya normalizadas.
func (s Signature) Equal(o Signature) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i].compare(o[i]) != 0 {
			return false
		}
	}
	return true
}

func (a SignatureLine) less(b SignatureLine) bool { return a.compare(b) < 0 }

func (a SignatureLine) compare(b SignatureLine) int {
	switch {
	case a.ItemID == nil && b.ItemID != nil:
		return 1
	case a.ItemID != nil && b.ItemID == nil:
		return -1
	case a.ItemID != nil && b.ItemID != nil && *a.ItemID != *b.ItemID:
		if *a.ItemID < *b.ItemID {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.FreeText, b.FreeText); c != 0 {
		return c
	}
	if c := strings.Compare(a.Maker, b.Maker); c != 0 {
		return c
	}
	if a.Quantity != b.Quantity {
		if a.Quantity < b.Quantity {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Note, b.Note)
}
