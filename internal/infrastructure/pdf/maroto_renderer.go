// Package pdf genera el documento impreso del pedido de compra (注文書).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  TÍTULO 注文書                     │  N° pedido + fecha      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PROVEEDOR 御中 + contacto   │  EMISOR: empresa / tel / mail │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: No | Código | Nombre | Fabricante | Cant | Precio… │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL (o "未定" si alguna línea no tiene precio)            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/application/purchasing"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

const fontFamilyJP = "jp"

// ── Renderer ──────────────────────────────────────────────────────────────────

var _ purchasing.DocumentRenderer = (*MarotoRenderer)(nil)

// MarotoRenderer implementa purchasing.DocumentRenderer con Maroto v2.
// Con FontPath (TTF con glifos japoneses, p. ej. IPAexGothic) el texto se imprime con esa fuente;
// sin ella se usa helvetica y los caracteres fuera de Latin-1 no se ven.
type MarotoRenderer struct {
	FontPath string
}

// NewMarotoRenderer construye el renderer.
func NewMarotoRenderer(fontPath string) *MarotoRenderer {
	return &MarotoRenderer{FontPath: strings.TrimSpace(fontPath)}
}

// Render genera el PDF y devuelve sus bytes.
func (g *MarotoRenderer) Render(ctx context.Context, data purchasing.DocumentData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	builder := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithTitle(fmt.Sprintf("注文書 %d", data.OrderID), true).
		WithAuthor(data.Company.Name, true)

	family := "helvetica"
	if g.FontPath != "" {
		fonts, err := repository.New().
			AddUTF8Font(fontFamilyJP, fontstyle.Normal, g.FontPath).
			AddUTF8Font(fontFamilyJP, fontstyle.Bold, g.FontPath).
			Load()
		if err != nil {
			return nil, fmt.Errorf("pdf: cargar fuente %s: %w", g.FontPath, err)
		}
		builder = builder.WithCustomFonts(fonts)
		family = fontFamilyJP
	}
	m := maroto.New(builder.WithDefaultFont(&props.Font{Family: family, Size: 9}).Build())

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(data.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(data.Total))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(data purchasing.DocumentData) core.Row {
	issued := "-"
	if !data.IssuedDate.IsZero() {
		issued = data.IssuedDate.Format("2006年01月02日")
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("注文書", props.Text{
				Style: fontstyle.Bold, Size: 16, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("発注番号: %d", data.OrderID), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 2,
			}),
			text.New("発行日: "+issued, props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// partiesRow proveedor (izq) y empresa emisora con el responsable del pedido (der).
func partiesRow(data purchasing.DocumentData) core.Row {
	s := data.Supplier
	c := data.Company
	return row.New(28).Add(
		col.New(6).Add(
			text.New(s.Name+" 御中", props.Text{Style: fontstyle.Bold, Size: 12, Top: 2}),
			text.New("ご担当: "+nonEmpty(s.ContactPerson, "-"), props.Text{Size: 8, Top: 10, Color: colorGray}),
			text.New(fmt.Sprintf("TEL: %s   FAX: %s", nonEmpty(s.Phone, "-"), nonEmpty(s.Fax, "-")), props.Text{
				Size: 8, Top: 15, Color: colorGray,
			}),
			text.New("下記の通り注文いたします。", props.Text{Size: 8, Top: 21}),
		),
		col.New(6).Add(
			text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 2}),
			text.New(c.Address, props.Text{Size: 8, Align: align.Right, Top: 8, Color: colorGray}),
			text.New("TEL: "+nonEmpty(c.Phone, "-"), props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
			text.New(nonEmpty(c.SenderEmail, c.URL), props.Text{Size: 8, Align: align.Right, Top: 18, Color: colorGray}),
			text.New(fmt.Sprintf("%s  %s", data.Department, data.OrderedBy), props.Text{
				Size: 8, Align: align.Right, Top: 23,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: a,
			Color: colorPrimary, Top: 2, Left: 0.5, Right: 0.5,
		}))
	}
	return row.New(8).Add(
		h("No", 1, align.Center),
		h("品番 / 品名", 3, align.Left),
		h("メーカー", 2, align.Left),
		h("数量", 1, align.Right),
		h("単価", 1, align.Right),
		h("金額", 1, align.Right),
		h("回答納期", 1, align.Center),
		h("用途 / 備考", 2, align.Left),
	)
}

// tableDetailRows una fila por línea; precio y monto "-" cuando no se conocen.
func tableDetailRows(lines []purchasing.DocumentLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	small := func(s string, a align.Type) core.Component {
		return text.New(s, props.Text{Size: 7, Align: a, Top: 1, Left: 0.5, Right: 0.5})
	}
	for _, l := range lines {
		name := l.Name
		if l.Code != "" {
			name = l.Code + "\n" + l.Name
		}
		qty := fmt.Sprintf("%d", l.Quantity)
		if l.Unit != "" {
			qty += " " + l.Unit
		}
		reply := "-"
		if l.ReplyDueDate != nil {
			reply = l.ReplyDueDate.Format("2006/01/02")
		}
		result = append(result, row.New(9).Add(
			col.New(1).Add(small(fmt.Sprintf("%d", l.No), align.Center)),
			col.New(3).Add(small(name, align.Left)),
			col.New(2).Add(small(nonEmpty(l.Maker, "-"), align.Left)),
			col.New(1).Add(small(qty, align.Right)),
			col.New(1).Add(small(yen(l.UnitPrice), align.Right)),
			col.New(1).Add(small(yen(l.Amount), align.Right)),
			col.New(1).Add(small(reply, align.Center)),
			col.New(2).Add(small(joinNonEmpty(" / ", l.UsageDestination, l.Note), align.Left)),
		))
	}
	return result
}

func totalRow(total *decimal.Decimal) core.Row {
	value := "未定"
	if total != nil {
		value = yen(total)
	}
	return row.New(12).Add(
		col.New(6),
		col.New(3).Add(text.New("合計金額（税抜）", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 2, Right: 2,
		})),
		col.New(3).Add(text.New(value, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 2, Right: 1,
		})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, sep)
}

// yen "¥1,234" redondeado a entero; "-" si el importe no se conoce.
func yen(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	s := d.Round(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	return "¥" + sign + formatThousands(s)
}

// formatThousands inserta comas de miles en un string numérico sin decimales.
// Ej: "25000" → "25,000", "1000000" → "1,000,000"
func formatThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
