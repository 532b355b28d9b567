package export_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/infrastructure/export"
)

func TestWriteResults_FilasYCeldasVacias(t *testing.T) {
	price := decimal.NewFromInt(120)
	amount := decimal.NewFromInt(720)
	rows := []dto.PurchaseResultResponse{
		{DeliveryDate: "2026-05-02", SupplierName: "A社", DeliveryNoteNumber: "N-2", ItemCode: "R-1", ItemName: "ボルト",
			Quantity: 6, UnitPrice: &price, Amount: &amount, PurchaseMonth: "2605", AccountName: "消耗品費", SourceOrderID: 1},
		{DeliveryDate: "2026-05-02", SupplierName: "A社", ItemNameFree: "特注治具", Quantity: 2, PurchaseMonth: "2605", SourceOrderID: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteResults(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(export.SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "納品日", header)

	got, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "ボルト", got[1][4])
	assert.Equal(t, "6", got[1][5])
	assert.Equal(t, "消耗品費", got[1][9])
	assert.Equal(t, "特注治具", got[2][4], "sin artículo se usa el nombre libre")

	unit, err := f.GetCellValue(export.SheetName, "G3")
	require.NoError(t, err)
	assert.Empty(t, unit, "precio desconocido queda vacío")
}

func TestWriteResults_SinFilas(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteResults(&buf, nil))
	assert.NotZero(t, buf.Len())
}
