package purchasing

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/pkg/config"
)

// EmailSubject asunto fijo del correo de pedido.
const EmailSubject = "注文書送付の件"

var (
	phonePattern    = regexp.MustCompile(`\d{2,4}\s*[-−ー]\s*\d{2,4}\s*[-−ー]\s*\d{3,4}`)
	nonDigit        = regexp.MustCompile(`\D`)
	addressSplitter = regexp.MustCompile(`[;,]`)
)

// normalizeSpaces pliega el ancho (espacio ideográfico, ASCII de ancho completo) y colapsa los blancos.
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(width.Fold.String(s)), " ")
}

func compactName(s string) string {
	return strings.Join(strings.Fields(width.Fold.String(s)), "")
}

// resolveSender elige la cuenta remitente para un pedido:
//  1. display name igual a la parte de nombre de ordered_by ("部署 表示名"), respetando los
//     departamentos de la cuenta;
//  2. ordered_by es la clave de una cuenta;
//  3. cuenta por defecto del departamento;
//  4. primera cuenta configurada.
func resolveSender(cfg config.SMTPConfig, order *entity.PurchaseOrder) (config.MailAccount, error) {
	orderedBy := strings.TrimSpace(order.OrderedByUser)
	department := strings.TrimSpace(order.Department)

	orderedDept, displayPart := department, orderedBy
	if normalized := normalizeSpaces(orderedBy); strings.Contains(normalized, " ") {
		parts := strings.SplitN(normalized, " ", 2)
		if d := strings.TrimSpace(parts[0]); d != "" {
			orderedDept = d
		}
		displayPart = strings.TrimSpace(parts[1])
	}
	if compact := compactName(displayPart); compact != "" {
		for _, acc := range cfg.Accounts {
			if compactName(acc.DisplayName) != compact {
				continue
			}
			if len(acc.Departments) > 0 {
				if orderedDept != "" && !containsString(acc.Departments, orderedDept) {
					continue
				}
				if department != "" && !containsString(acc.Departments, department) {
					continue
				}
			}
			return acc, nil
		}
	}

	// viper baja a minúsculas las claves de mapas: se comparan sin distinguir mayúsculas.
	for _, acc := range cfg.Accounts {
		if orderedBy != "" && strings.EqualFold(acc.Key, orderedBy) {
			return acc, nil
		}
	}
	if key, ok := lookupFold(cfg.DepartmentDefaults, department); ok {
		for _, acc := range cfg.Accounts {
			if strings.EqualFold(acc.Key, key) {
				return acc, nil
			}
		}
	}
	if len(cfg.Accounts) > 0 {
		return cfg.Accounts[0], nil
	}
	return config.MailAccount{}, fmt.Errorf("%w: no hay cuentas remitentes configuradas", domain.ErrEmailSend)
}

// companyPhone teléfono impreso: el del departamento si parece un número completo; si es
// solo una indicación (p. ej. "内線 123") se añade entre paréntesis al teléfono general.
func companyPhone(company config.CompanyProfile, department string) string {
	def := strings.TrimSpace(company.DefaultPhone)
	dept, _ := lookupFold(company.DepartmentPhones, department)
	dept = strings.TrimSpace(dept)
	switch {
	case dept == "" && def == "":
		return "未設定"
	case dept == "":
		return def
	case def == "":
		return dept
	}
	if phonePattern.MatchString(dept) || len(nonDigit.ReplaceAllString(dept, "")) >= 10 {
		return dept
	}
	if strings.HasPrefix(dept, "（") && strings.HasSuffix(dept, "）") {
		return def + dept
	}
	return def + "（" + dept + "）"
}

// emailBody cuerpo de texto plano del correo al proveedor.
func emailBody(order *entity.PurchaseOrder, supplier *entity.Supplier, company config.CompanyProfile, senderEmail string) string {
	contact := strings.TrimSpace(supplier.ContactPerson)
	if contact == "" {
		contact = "ご担当者"
	}
	orderedBy := strings.TrimSpace(order.OrderedByUser)
	if orderedBy == "" {
		orderedBy = "未設定"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s 様\n\n", supplier.Name, contact)
	b.WriteString("いつもお世話になっております。\n")
	b.WriteString("注文書を送付いたします。ご確認のうえご対応をお願いいたします。\n")
	b.WriteString("回答納期欄にご記入いただき、ご返信ください。\n\n")
	fmt.Fprintf(&b, "%s\n", company.Name)
	fmt.Fprintf(&b, "発注担当: %s\n", orderedBy)
	fmt.Fprintf(&b, "住所: %s\n", company.Address)
	fmt.Fprintf(&b, "Email: %s\n", senderEmail)
	fmt.Fprintf(&b, "TEL: %s\n", companyPhone(company, order.Department))
	fmt.Fprintf(&b, "URL: %s\n", company.URL)
	return b.String()
}

// splitAddresses separa una lista de direcciones por ';' o ','.
func splitAddresses(raw string) []string {
	out := make([]string, 0, 2)
	for _, a := range addressSplitter.Split(raw, -1) {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if width.Fold.String(strings.TrimSpace(s)) == width.Fold.String(v) {
			return true
		}
	}
	return false
}

func lookupFold(m map[string]string, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
