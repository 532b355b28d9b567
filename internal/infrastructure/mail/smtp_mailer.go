// Package mail envía los pedidos de compra por SMTP (gomail).
package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/Compras-api/internal/application/purchasing"
	"github.com/jhoicas/Compras-api/pkg/config"
)

var _ purchasing.Mailer = (*SMTPMailer)(nil)

// DialFunc abre la sesión SMTP autenticada con la cuenta remitente.
type DialFunc func(host string, port int, username, password string) (gomail.SendCloser, error)

// SMTPMailer transporte SMTP; una conexión por envío.
type SMTPMailer struct {
	host    string
	port    int
	timeout time.Duration
	dial    DialFunc
}

// NewSMTPMailer construye el transporte con la configuración SMTP.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		host:    cfg.Server,
		port:    cfg.Port,
		timeout: cfg.Timeout,
		dial: func(host string, port int, username, password string) (gomail.SendCloser, error) {
			return gomail.NewDialer(host, port, username, password).Dial()
		},
	}
}

// WithDialer reemplaza la apertura de la sesión (tests).
func (m *SMTPMailer) WithDialer(dial DialFunc) *SMTPMailer {
	m.dial = dial
	return m
}

// Send arma el mensaje con el PDF adjunto y lo entrega. Respeta ctx y el timeout configurado.
func (m *SMTPMailer) Send(ctx context.Context, msg purchasing.Message) error {
	if m.host == "" {
		return errors.New("mail: servidor SMTP no configurado")
	}
	if len(msg.To) == 0 {
		return errors.New("mail: sin destinatarios")
	}
	gm := BuildMessage(msg)

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		s, err := m.dial(m.host, m.port, msg.From, msg.Password)
		if err != nil {
			done <- fmt.Errorf("mail: conectar %s:%d: %w", m.host, m.port, err)
			return
		}
		defer s.Close()
		if err := gomail.Send(s, gm); err != nil {
			done <- fmt.Errorf("mail: enviar: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("mail: %w", ctx.Err())
	}
}

// BuildMessage convierte el mensaje de la aplicación al formato gomail.
func BuildMessage(msg purchasing.Message) *gomail.Message {
	gm := gomail.NewMessage()
	if msg.FromName != "" {
		gm.SetAddressHeader("From", msg.From, msg.FromName)
	} else {
		gm.SetHeader("From", msg.From)
	}
	gm.SetHeader("To", msg.To...)
	if len(msg.CC) > 0 {
		gm.SetHeader("Cc", msg.CC...)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	if len(msg.Attachment) > 0 {
		content := msg.Attachment
		gm.Attach(msg.AttachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}
	return gm
}
