// Package export genera el libro Excel del registro de compras.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Compras-api/internal/application/dto"
)

// SheetName hoja del registro de compras.
const SheetName = "購入実績"

var headers = []string{
	"納品日", "仕入先", "納品書番号", "品番", "品名", "数量", "単価", "金額",
	"計上月", "勘定科目", "費目", "購入者", "備考", "発注番号",
}

// WriteResults escribe una fila por resultado. Precio y monto vacíos cuando no se conocen.
func WriteResults(w io.Writer, rows []dto.PurchaseResultResponse) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: hoja: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: estilo: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return fmt.Errorf("export: estilo: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("export: cabecera: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("export: cabecera: %w", err)
	}

	for i, r := range rows {
		name := r.ItemName
		if name == "" {
			name = r.ItemNameFree
		}
		values := []interface{}{
			r.DeliveryDate, r.SupplierName, r.DeliveryNoteNumber, r.ItemCode, name, r.Quantity,
			nil, nil, r.PurchaseMonth, r.AccountName, r.ExpenseItemName, r.PurchaserName, r.Note,
			r.SourceOrderID,
		}
		if r.UnitPrice != nil {
			values[6] = r.UnitPrice.InexactFloat64()
		}
		if r.Amount != nil {
			values[7] = r.Amount.InexactFloat64()
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("export: fila %d: %w", i+2, err)
		}
	}
	if len(rows) > 0 {
		from, _ := excelize.CoordinatesToCellName(7, 2)
		to, _ := excelize.CoordinatesToCellName(8, len(rows)+1)
		if err := f.SetCellStyle(SheetName, from, to, money); err != nil {
			return fmt.Errorf("export: formato: %w", err)
		}
	}
	_ = f.SetColWidth(SheetName, "B", "B", 24)
	_ = f.SetColWidth(SheetName, "E", "E", 32)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: escribir: %w", err)
	}
	return nil
}
