package purchasing

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	rules "github.com/jhoicas/Compras-api/internal/domain/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
	"github.com/jhoicas/Compras-api/pkg/config"
)

// DocumentUseCase genera y archiva el PDF del pedido y lo envía por correo al proveedor.
// Las llamadas externas (render, archivo, SMTP) se hacen fuera de la transacción; el cambio
// de estado solo se confirma después de que tengan éxito.
type DocumentUseCase struct {
	txRunner TxRunner
	repos    repository.Repositories
	pricing  Pricing
	renderer DocumentRenderer
	store    DocumentStore
	mailer   Mailer
	creds    CredentialLookup
	smtp     config.SMTPConfig
	company  config.CompanyProfile
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

// DocumentDeps dependencias externas del caso de uso.
type DocumentDeps struct {
	Renderer    DocumentRenderer
	Store       DocumentStore
	Mailer      Mailer
	Credentials CredentialLookup
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(txRunner TxRunner, repos repository.Repositories, pricing Pricing, deps DocumentDeps, cfg *config.Config, log zerolog.Logger) *DocumentUseCase {
	return &DocumentUseCase{
		txRunner: txRunner,
		repos:    repos,
		pricing:  pricing,
		renderer: deps.Renderer,
		store:    deps.Store,
		mailer:   deps.Mailer,
		creds:    deps.Credentials,
		smtp:     cfg.SMTP,
		company:  cfg.Company,
		loc:      cfg.Purchasing.Location(),
		now:      time.Now,
		log:      log,
	}
}

// SetClock reemplaza el reloj (tests).
func (uc *DocumentUseCase) SetClock(now func() time.Time) { uc.now = now }

func (uc *DocumentUseCase) today() time.Time {
	n := uc.now().In(uc.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, uc.loc)
}

// ── Documento ────────────────────────────────────────────────────────────────

// GenerateDocument genera el PDF del pedido. Sin regenerate, si ya existe se reutiliza.
// La primera generación fija la fecha de emisión y pasa DRAFT a CONFIRMED.
func (uc *DocumentUseCase) GenerateDocument(ctx context.Context, orderID int64, generatedBy string, regenerate bool) (*dto.DocumentResponse, error) {
	generatedBy = strings.TrimSpace(generatedBy)
	order, err := uc.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == entity.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: pedido %d cancelado", domain.ErrInvalidState, orderID)
	}

	if !regenerate {
		doc, ok, err := uc.existingDocument(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if ok {
			status, err := uc.markIssued(ctx, orderID, nil)
			if err != nil {
				return nil, err
			}
			return &dto.DocumentResponse{OrderID: orderID, Status: string(status), DocumentRef: doc.Path, Reused: true}, nil
		}
	}

	issued := uc.today()
	if order.IssuedDate != nil {
		issued = *order.IssuedDate
	}
	data, err := uc.documentData(ctx, order, issued)
	if err != nil {
		return nil, err
	}
	content, err := uc.renderer.Render(ctx, *data)
	if err != nil {
		uc.log.Error().Err(err).Int64("order_id", orderID).Msg("fallo al generar el PDF")
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentRender, err)
	}

	ref, err := uc.destination(ctx, order, data.Supplier.Name, issued, regenerate)
	if err != nil {
		return nil, err
	}
	if err := uc.store.Save(ctx, ref, content); err != nil {
		msg := fmt.Sprintf("PDF生成は成功しましたがNAS保存に失敗しました: %v", err)
		uc.logFailure(ctx, order, generatedBy, "", "", ref, msg)
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentRender, msg)
	}

	doc := &entity.PurchaseOrderDocument{PurchaseOrderID: orderID, Path: ref, GeneratedAt: uc.now(), GeneratedBy: generatedBy}
	status, err := uc.markIssued(ctx, orderID, doc)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("order_id", orderID).Str("ref", ref).Bool("regenerate", regenerate).Msg("documento generado")
	return &dto.DocumentResponse{OrderID: orderID, Status: string(status), DocumentRef: ref}, nil
}

// markIssued fija la fecha de emisión si falta, pasa DRAFT a CONFIRMED y guarda el documento (si se pasa).
func (uc *DocumentUseCase) markIssued(ctx context.Context, orderID int64, doc *entity.PurchaseOrderDocument) (entity.OrderStatus, error) {
	var status entity.OrderStatus
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		order, err := lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if order.IssuedDate == nil {
			d := uc.today()
			order.IssuedDate = &d
		}
		if order.Status == entity.OrderStatusDraft {
			order.Status = entity.OrderStatusConfirmed
		}
		order.UpdatedAt = uc.now()
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
		if doc != nil {
			if err := repos.Orders.UpsertDocument(ctx, doc); err != nil {
				return err
			}
		}
		status = order.Status
		return nil
	})
	return status, err
}

func (uc *DocumentUseCase) existingDocument(ctx context.Context, orderID int64) (*entity.PurchaseOrderDocument, bool, error) {
	doc, err := uc.repos.Orders.GetDocument(ctx, orderID)
	if err != nil || doc == nil {
		return nil, false, err
	}
	ok, err := uc.store.Exists(ctx, doc.Path)
	if err != nil {
		return nil, false, err
	}
	return doc, ok, nil
}

// destination <departamento>/<proveedor>/PO_<id>_<fecha>.pdf; al regenerar, la primera versión _vN libre.
func (uc *DocumentUseCase) destination(ctx context.Context, order *entity.PurchaseOrder, supplierName string, issued time.Time, regenerate bool) (string, error) {
	dept := order.Department
	if strings.TrimSpace(dept) == "" {
		dept = rules.UnsetDepartment
	}
	if strings.TrimSpace(supplierName) == "" {
		supplierName = rules.UnsetSupplier
	}
	dir := []string{rules.SanitizePathSegment(dept), rules.SanitizePathSegment(supplierName)}
	if !regenerate {
		return uc.store.Ref(append(dir, rules.DocumentFileName(order.ID, issued, 0))...), nil
	}
	for version := 2; ; version++ {
		ref := uc.store.Ref(append(dir, rules.DocumentFileName(order.ID, issued, version))...)
		exists, err := uc.store.Exists(ctx, ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}
}

func (uc *DocumentUseCase) documentData(ctx context.Context, order *entity.PurchaseOrder, issued time.Time) (*DocumentData, error) {
	repos := uc.repos
	supplier, err := repos.Suppliers.GetByID(ctx, order.SupplierID)
	if err != nil {
		return nil, err
	}
	data := &DocumentData{
		OrderID:    order.ID,
		IssuedDate: issued,
		Department: order.Department,
		OrderedBy:  order.OrderedByUser,
		Company: CompanyInfo{
			Name:    uc.company.Name,
			Address: uc.company.Address,
			Phone:   companyPhone(uc.company, order.Department),
			URL:     uc.company.URL,
		},
		Lines: make([]DocumentLine, 0, len(order.Lines)),
	}
	if supplier != nil {
		data.Supplier = *supplier
		if acc, err := resolveSender(uc.smtp, order); err == nil {
			data.Company.SenderEmail = acc.Sender
		}
	}

	total := decimal.Zero
	priced := true
	for i, l := range order.Lines {
		dl := DocumentLine{
			No:               i + 1,
			Name:             l.ItemNameFree,
			Maker:            l.Maker,
			Quantity:         l.Quantity,
			ReplyDueDate:     l.VendorReplyDueDate,
			UsageDestination: l.UsageDestination,
			Note:             l.Note,
		}
		if l.ItemID != nil {
			item, err := repos.Items.GetByID(ctx, *l.ItemID)
			if err != nil {
				return nil, err
			}
			if item != nil {
				dl.Code = item.Code
				dl.Name = item.Name
				dl.Unit = item.Unit
				if dl.Maker == "" {
					dl.Maker = item.Manufacturer
				}
				if dl.UnitPrice, err = uc.pricing.ResolveInTx(ctx, repos, item, order.SupplierID, nil); err != nil {
					return nil, err
				}
			}
		}
		dl.Amount = rules.LineAmount(dl.UnitPrice, l.Quantity)
		if dl.Amount == nil {
			priced = false
		} else {
			total = total.Add(*dl.Amount)
		}
		data.Lines = append(data.Lines, dl)
	}
	if priced && len(data.Lines) > 0 {
		data.Total = &total
	}
	return data, nil
}

// ── Correo ───────────────────────────────────────────────────────────────────

type emailDraft struct {
	order    *entity.PurchaseOrder
	supplier *entity.Supplier
	sender   config.MailAccount
	to       string
	cc       string
	subject  string
	body     string
	ref      string
}

// EmailPreview contenido del correo que se enviaría. Requiere documento generado.
func (uc *DocumentUseCase) EmailPreview(ctx context.Context, orderID int64) (*dto.EmailPreviewResponse, error) {
	d, err := uc.draft(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &dto.EmailPreviewResponse{
		OrderID:        orderID,
		Status:         string(d.order.Status),
		To:             d.to,
		CC:             d.cc,
		Subject:        d.subject,
		Body:           d.body,
		AttachmentPath: d.ref,
		SenderEmail:    d.sender.Sender,
	}, nil
}

func (uc *DocumentUseCase) draft(ctx context.Context, orderID int64) (*emailDraft, error) {
	order, err := uc.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	doc, err := uc.repos.Orders.GetDocument(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: pedido %d sin documento generado", domain.ErrInvalidState, orderID)
	}
	supplier, err := uc.repos.Suppliers.GetByID(ctx, order.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, fmt.Errorf("%w: proveedor %d", domain.ErrNotFound, order.SupplierID)
	}
	sender, err := resolveSender(uc.smtp, order)
	if err != nil {
		return nil, err
	}
	return &emailDraft{
		order:    order,
		supplier: supplier,
		sender:   sender,
		to:       strings.TrimSpace(supplier.Email),
		cc:       strings.TrimSpace(supplier.AssistantEmail),
		subject:  EmailSubject,
		body:     emailBody(order, supplier, uc.company, sender.Sender),
		ref:      doc.Path,
	}, nil
}

// SendEmail envía el pedido al proveedor con el PDF adjunto (generándolo si hace falta).
// Éxito: el pedido pasa a WAITING y se crean sin precio las filas artículo-proveedor que falten.
// Fallo: queda registrado en el log de envíos y el estado no cambia.
func (uc *DocumentUseCase) SendEmail(ctx context.Context, orderID int64, sentBy string, regenerate bool) (*dto.SendEmailResponse, error) {
	sentBy = strings.TrimSpace(sentBy)
	order, err := uc.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == entity.OrderStatusCancelled || order.Status == entity.OrderStatusReceived {
		return nil, fmt.Errorf("%w: pedido %d en estado %s", domain.ErrInvalidState, orderID, order.Status)
	}
	_, hasDoc, err := uc.existingDocument(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if regenerate || !hasDoc {
		if _, err := uc.GenerateDocument(ctx, orderID, sentBy, regenerate); err != nil {
			return nil, err
		}
	}

	d, err := uc.draft(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if d.to == "" {
		msg := "仕入先メールアドレス未登録のため送信できません。"
		uc.logFailure(ctx, d.order, sentBy, d.subject, d.body, d.ref, msg)
		return nil, fmt.Errorf("%w: %s", domain.ErrEmailSend, msg)
	}
	password, err := uc.creds.Password(ctx, d.sender.Sender)
	if err != nil {
		return nil, fmt.Errorf("%w: credenciales de %s: %v", domain.ErrEmailSend, d.sender.Sender, err)
	}
	attachment, err := uc.store.Load(ctx, d.ref)
	if err != nil {
		return nil, fmt.Errorf("%w: adjunto %s: %v", domain.ErrEmailSend, d.ref, err)
	}

	msg := Message{
		From:           d.sender.Sender,
		FromName:       d.sender.DisplayName,
		Password:       password,
		To:             []string{d.to},
		CC:             splitAddresses(d.cc),
		Subject:        d.subject,
		Body:           d.body,
		AttachmentName: path.Base(d.ref),
		Attachment:     attachment,
	}
	if err := uc.mailer.Send(ctx, msg); err != nil {
		uc.logFailure(ctx, d.order, sentBy, d.subject, d.body, d.ref, fmt.Sprintf("SMTP送信失敗: %v", err))
		uc.log.Error().Err(err).Int64("order_id", orderID).Str("to", d.to).Msg("fallo SMTP")
		return nil, fmt.Errorf("%w: %v", domain.ErrEmailSend, err)
	}

	var status entity.OrderStatus
	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		order, err := lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		// el pedido pudo cambiar mientras se enviaba el correo
		if !rules.IsCommitted(order.Status) {
			uc.log.Warn().Int64("order_id", orderID).Str("status", string(order.Status)).Msg("correo enviado pero el pedido ya no admite WAITING")
			return fmt.Errorf("%w: pedido %d en estado %s", domain.ErrInvalidState, orderID, order.Status)
		}
		order.Status = entity.OrderStatusWaiting
		order.UpdatedAt = uc.now()
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
		if err := repos.Orders.AddEmailLog(ctx, &entity.EmailSendLog{
			PurchaseOrderID: orderID,
			SentBy:          sentBy,
			SentAt:          uc.now(),
			To:              d.to,
			CC:              d.cc,
			Subject:         d.subject,
			Body:            d.body,
			AttachmentPath:  d.ref,
			Success:         true,
		}); err != nil {
			return err
		}
		itemIDs := make([]int64, 0, len(order.Lines))
		for _, l := range order.Lines {
			if l.ItemID != nil {
				itemIDs = append(itemIDs, *l.ItemID)
			}
		}
		if _, err := uc.pricing.EnsureRowsInTx(ctx, repos, itemIDs, order.SupplierID); err != nil {
			return err
		}
		status = order.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("order_id", orderID).Str("to", d.to).Str("cc", d.cc).Msg("pedido enviado por correo")
	return &dto.SendEmailResponse{OrderID: orderID, Status: string(status), SentTo: d.to, SentCC: d.cc}, nil
}

// EmailLogs historial de envíos de un pedido.
func (uc *DocumentUseCase) EmailLogs(ctx context.Context, orderID int64) ([]entity.EmailSendLog, error) {
	return uc.repos.Orders.ListEmailLogs(ctx, orderID)
}

// logFailure registra un envío fallido en su propia transacción (no depende de la del caller).
func (uc *DocumentUseCase) logFailure(ctx context.Context, order *entity.PurchaseOrder, by, subject, body, ref, message string) {
	entry := &entity.EmailSendLog{
		PurchaseOrderID: order.ID,
		SentBy:          by,
		SentAt:          uc.now(),
		Subject:         subject,
		Body:            body,
		AttachmentPath:  ref,
		ErrorMessage:    message,
	}
	if subject == "" {
		entry.Subject = EmailSubject
	}
	if sup, err := uc.repos.Suppliers.GetByID(ctx, order.SupplierID); err == nil && sup != nil {
		entry.To = strings.TrimSpace(sup.Email)
		entry.CC = strings.TrimSpace(sup.AssistantEmail)
	}
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		return repos.Orders.AddEmailLog(ctx, entry)
	})
	if err != nil {
		uc.log.Error().Err(err).Int64("order_id", order.ID).Msg("no se pudo registrar el envío fallido")
	}
	uc.log.Warn().Int64("order_id", order.ID).Str("error", message).Msg("envío fallido registrado")
}

func (uc *DocumentUseCase) loadOrder(ctx context.Context, orderID int64) (*entity.PurchaseOrder, error) {
	order, err := uc.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: pedido %d", domain.ErrNotFound, orderID)
	}
	return order, nil
}
