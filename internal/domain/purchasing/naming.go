package purchasing

import (
	"fmt"
	"strings"
	"time"
)

const invalidSegmentChars = `\/:*?"<>|`

var reservedSegmentNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Valores usados cuando el pedido no tiene departamento o proveedor.
const (
	UnsetDepartment = "未設定部署"
	UnsetSupplier   = "未設定仕入先"
)

// SanitizePathSegment limpia un nombre para usarlo como carpeta en un recurso compartido Windows.
func SanitizePathSegment(value string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidSegmentChars, r) {
			return -1
		}
		return r
	}, value)
	cleaned = strings.TrimRight(strings.TrimSpace(cleaned), " .")
	if cleaned == "" {
		return "UNKNOWN"
	}
	if reservedSegmentNames[strings.ToUpper(cleaned)] {
		cleaned += "_"
	}
	return cleaned
}

// DocumentFileName PO_<id>_<YYYYMMDD>.pdf; version >= 2 añade _v<n>.
func DocumentFileName(orderID int64, issued time.Time, version int) string {
	base := fmt.Sprintf("PO_%d_%s", orderID, issued.Format("20060102"))
	if version >= 2 {
		return fmt.Sprintf("%s_v%d.pdf", base, version)
	}
	return base + ".pdf"
}

// PurchaseMonth token "YYMM" de la fecha de entrega (2026-02-01 -> "2602").
func PurchaseMonth(delivery time.Time) string {
	return delivery.Format("0601")
}
