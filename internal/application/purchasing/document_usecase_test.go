package purchasing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// draftOrder pedido DRAFT de 総務 hecho por "総務 木村太郎".
func draftOrder(t *testing.T, e *env, email, cc string) (*entity.PurchaseOrder, *entity.Supplier) {
	t.Helper()
	sup := e.supplier(t, "B商事", email, cc)
	it := e.item(t, "S-1", "総務", 0, 0, &sup.ID, "250")
	res, err := e.orders.CreateOrder(e.ctx, "総務 木村太郎", dto.CreateOrderRequest{
		Lines: []dto.OrderLineRequest{{ItemID: &it.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	return e.order(t, res.OrderID), sup
}

func TestGenerateDocument_ReutilizaYVersiona(t *testing.T) {
	e := newEnv(t)
	order, _ := draftOrder(t, e, "b@example.com", "")
	base := "総務/B商事/PO_1_20260401"

	first, err := e.docs.GenerateDocument(e.ctx, order.ID, "kimura", false)
	require.NoError(t, err)
	assert.Equal(t, base+".pdf", first.DocumentRef)
	assert.Equal(t, "CONFIRMED", first.Status)
	assert.False(t, first.Reused)
	require.Len(t, e.renderer.calls, 1)

	data := e.renderer.calls[0]
	require.Len(t, data.Lines, 1)
	assert.Equal(t, "S-1", data.Lines[0].Code)
	assert.True(t, data.Total.Equal(*dec("1000")))
	assert.Equal(t, "03-1234-5678（内線 12）", data.Company.Phone)
	assert.Equal(t, "kimura@example.com", data.Company.SenderEmail)

	// Otro día: la fecha de emisión ya fijada se conserva.
	e.clock.Advance(48 * time.Hour)
	again, err := e.docs.GenerateDocument(e.ctx, order.ID, "kimura", false)
	require.NoError(t, err)
	assert.True(t, again.Reused)
	assert.Equal(t, first.DocumentRef, again.DocumentRef)
	assert.Len(t, e.renderer.calls, 1, "reutilizar no vuelve a generar")

	v2, err := e.docs.GenerateDocument(e.ctx, order.ID, "kimura", true)
	require.NoError(t, err)
	assert.Equal(t, base+"_v2.pdf", v2.DocumentRef)
	v3, err := e.docs.GenerateDocument(e.ctx, order.ID, "kimura", true)
	require.NoError(t, err)
	assert.Equal(t, base+"_v3.pdf", v3.DocumentRef)

	doc, err := e.repos.Orders.GetDocument(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, v3.DocumentRef, doc.Path, "el documento vigente es la última versión")
}

func TestGenerateDocument_FalloAlGuardar(t *testing.T) {
	e := newEnv(t)
	order, _ := draftOrder(t, e, "b@example.com", "")
	e.files.saveErr = errors.New("NAS no disponible")

	_, err := e.docs.GenerateDocument(e.ctx, order.ID, "kimura", false)
	require.ErrorIs(t, err, domain.ErrDocumentRender)

	assert.Equal(t, entity.OrderStatusDraft, e.order(t, order.ID).Status)
	logs, err := e.docs.EmailLogs(e.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	assert.Contains(t, logs[0].ErrorMessage, "NAS保存に失敗しました")
	assert.Contains(t, logs[0].ErrorMessage, "NAS no disponible")
}

func TestGenerateDocument_Rechazos(t *testing.T) {
	e := newEnv(t)
	_, err := e.docs.GenerateDocument(e.ctx, 77, "kimura", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	order, _ := draftOrder(t, e, "b@example.com", "")
	e.renderer.err = errors.New("fuente no encontrada")
	_, err = e.docs.GenerateDocument(e.ctx, order.ID, "kimura", false)
	assert.ErrorIs(t, err, domain.ErrDocumentRender)
	assert.Empty(t, e.files.files)

	e.setStatus(t, order.ID, entity.OrderStatusCancelled)
	_, err = e.docs.GenerateDocument(e.ctx, order.ID, "kimura", false)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestEmailPreview(t *testing.T) {
	e := newEnv(t)
	order, _ := draftOrder(t, e, "b@example.com", "c@example.com")

	_, err := e.docs.EmailPreview(e.ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "sin documento no hay vista previa")

	doc, err := e.docs.GenerateDocument(e.ctx, order.ID, "kimura", false)
	require.NoError(t, err)
	p, err := e.docs.EmailPreview(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", p.To)
	assert.Equal(t, "c@example.com", p.CC)
	assert.Equal(t, "注文書送付の件", p.Subject)
	assert.Equal(t, doc.DocumentRef, p.AttachmentPath)
	assert.Equal(t, "kimura@example.com", p.SenderEmail)
	assert.Contains(t, p.Body, "B商事\n田中 様")
	assert.Contains(t, p.Body, "発注担当: 総務 木村太郎")
	assert.Contains(t, p.Body, "TEL: 03-1234-5678（内線 12）")
}

func TestSendEmail_Exito(t *testing.T) {
	e := newEnv(t)
	order, sup := draftOrder(t, e, "b@example.com", "c@example.com; d@example.com")

	res, err := e.docs.SendEmail(e.ctx, order.ID, "kimura", false)
	require.NoError(t, err)
	assert.Equal(t, "WAITING", res.Status)
	assert.Equal(t, "b@example.com", res.SentTo)

	require.Len(t, e.mailer.sent, 1)
	msg := e.mailer.sent[0]
	assert.Equal(t, "kimura@example.com", msg.From)
	assert.Equal(t, "木村 太郎", msg.FromName)
	assert.Equal(t, "secreto-kimura@example.com", msg.Password)
	assert.Equal(t, []string{"b@example.com"}, msg.To)
	assert.Equal(t, []string{"c@example.com", "d@example.com"}, msg.CC)
	assert.Equal(t, "PO_1_20260401.pdf", msg.AttachmentName)
	assert.NotEmpty(t, msg.Attachment)

	logs, err := e.docs.EmailLogs(e.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Success)

	choices, err := e.pricing.SupplierChoices(e.ctx, *order.Lines[0].ItemID)
	require.NoError(t, err)
	var registered bool
	for _, c := range choices {
		if c.SupplierID == sup.ID {
			registered = c.Registered
		}
	}
	assert.True(t, registered, "la relación artículo-proveedor queda registrada")

	_, err = e.docs.SendEmail(e.ctx, order.ID, "kimura", false)
	require.NoError(t, err, "un pedido WAITING puede reenviarse")
	assert.Len(t, e.renderer.calls, 1, "el reenvío reutiliza el PDF")
}

func TestSendEmail_PedidoRecibidoDuranteElEnvio(t *testing.T) {
	e := newEnv(t)
	order, _ := draftOrder(t, e, "b@example.com", "")
	e.mailer.onSend = func() { e.setStatus(t, order.ID, entity.OrderStatusReceived) }

	_, err := e.docs.SendEmail(e.ctx, order.ID, "kimura", false)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Len(t, e.mailer.sent, 1)
	assert.Equal(t, entity.OrderStatusReceived, e.order(t, order.ID).Status, "no vuelve a WAITING")
}

func TestSendEmail_SinDestinatario(t *testing.T) {
	e := newEnv(t)
	order, _ := draftOrder(t, e, "  ", "")

	_, err := e.docs.SendEmail(e.ctx, order.ID, "kimura", false)
	require.ErrorIs(t, err, domain.ErrEmailSend)
	assert.Empty(t, e.mailer.sent)

	// El PDF se generó (CONFIRMED) pero el envío no movió el pedido a WAITING.
	assert.Equal(t, entity.OrderStatusConfirmed, e.order(t, order.ID).Status)
	logs, err := e.docs.EmailLogs(e.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "仕入先メールアドレス未登録のため送信できません。", logs[0].ErrorMessage)
}

func TestSendEmail_FalloSMTP(t *testing.T) {
	e := newEnv(t)
	order, _ := draftOrder(t, e, "b@example.com", "")
	e.mailer.err = errors.New("535 authentication failed")

	_, err := e.docs.SendEmail(e.ctx, order.ID, "kimura", false)
	require.ErrorIs(t, err, domain.ErrEmailSend)
	assert.Equal(t, entity.OrderStatusConfirmed, e.order(t, order.ID).Status)

	logs, _ := e.docs.EmailLogs(e.ctx, order.ID)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	assert.Contains(t, logs[0].ErrorMessage, "SMTP送信失敗")
	assert.Equal(t, "b@example.com", logs[0].To)

	e.setStatus(t, order.ID, entity.OrderStatusReceived)
	_, err = e.docs.SendEmail(e.ctx, order.ID, "kimura", false)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSendEmail_RemitentePorDepartamento(t *testing.T) {
	e := newEnv(t)
	sup := e.supplier(t, "C工業", "c@example.com", "")
	it := e.item(t, "M-1", "製造", 0, 0, &sup.ID, "")
	res, err := e.orders.CreateOrder(e.ctx, "suzuki", dto.CreateOrderRequest{
		Lines: []dto.OrderLineRequest{{ItemID: &it.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = e.docs.SendEmail(e.ctx, res.OrderID, "suzuki", false)
	require.NoError(t, err)
	require.Len(t, e.mailer.sent, 1)
	assert.Equal(t, "po@example.com", e.mailer.sent[0].From)
	require.Len(t, e.renderer.calls, 1)
	assert.Nil(t, e.renderer.calls[0].Total, "sin precio no hay total")
	assert.Equal(t, "03-1234-5678", e.renderer.calls[0].Company.Phone)
}
