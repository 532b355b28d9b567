package pdf_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/application/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/infrastructure/pdf"
)

func sampleDocument() purchasing.DocumentData {
	price := decimal.NewFromInt(1250)
	amount := decimal.NewFromInt(5000)
	due := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	return purchasing.DocumentData{
		OrderID:    7,
		IssuedDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Department: "Seizo",
		OrderedBy:  "Seizo Yamada",
		Supplier:   entity.Supplier{ID: 1, Name: "Acme Trading", Phone: "03-0000-0000"},
		Company:    purchasing.CompanyInfo{Name: "Example Works", Address: "Tokyo", Phone: "03-1111-2222"},
		Lines: []purchasing.DocumentLine{
			{No: 1, Code: "R-1", Name: "Bolt M6", Quantity: 4, Unit: "pcs", UnitPrice: &price, Amount: &amount, ReplyDueDate: &due},
			{No: 2, Name: "Custom jig", Quantity: 1},
		},
	}
}

func TestMarotoRenderer_GeneraPDF(t *testing.T) {
	out, err := pdf.NewMarotoRenderer("").Render(context.Background(), sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "el resultado debe ser un PDF")
}

func TestMarotoRenderer_FuenteInexistente(t *testing.T) {
	r := pdf.NewMarotoRenderer(filepath.Join(t.TempDir(), "no-existe.ttf"))
	_, err := r.Render(context.Background(), sampleDocument())
	assert.Error(t, err)
}

func TestMarotoRenderer_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pdf.NewMarotoRenderer("").Render(ctx, sampleDocument())
	assert.ErrorIs(t, err, context.Canceled)
}
