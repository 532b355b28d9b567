package mail_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/Compras-api/internal/application/purchasing"
	"github.com/jhoicas/Compras-api/internal/infrastructure/mail"
	"github.com/jhoicas/Compras-api/pkg/config"
)

type captureSender struct {
	from   string
	to     []string
	raw    bytes.Buffer
	closed bool
	block  chan struct{}
}

func (c *captureSender) Send(from string, to []string, msg io.WriterTo) error {
	if c.block != nil {
		<-c.block
	}
	c.from, c.to = from, to
	_, err := msg.WriteTo(&c.raw)
	return err
}

func (c *captureSender) Close() error {
	c.closed = true
	return nil
}

func sample() purchasing.Message {
	return purchasing.Message{
		From:           "kimura@example.com",
		FromName:       "Kimura Taro",
		Password:       "secreto",
		To:             []string{"sales@supplier.example"},
		CC:             []string{"a@example.com", "b@example.com"},
		Subject:        "PO",
		Body:           "body",
		AttachmentName: "PO_1_20260401.pdf",
		Attachment:     []byte("%PDF-1.3"),
	}
}

func TestSMTPMailer_EnviaConAdjunto(t *testing.T) {
	sender := &captureSender{}
	var gotUser, gotPass string
	m := mail.NewSMTPMailer(config.SMTPConfig{Server: "smtp.example.com", Port: 587, Timeout: time.Second}).
		WithDialer(func(host string, port int, user, pass string) (gomail.SendCloser, error) {
			gotUser, gotPass = user, pass
			return sender, nil
		})

	require.NoError(t, m.Send(context.Background(), sample()))
	assert.Equal(t, "kimura@example.com", gotUser)
	assert.Equal(t, "secreto", gotPass)
	assert.Equal(t, "kimura@example.com", sender.from)
	assert.ElementsMatch(t, []string{"sales@supplier.example", "a@example.com", "b@example.com"}, sender.to)
	assert.True(t, sender.closed)
	assert.Contains(t, sender.raw.String(), `filename="PO_1_20260401.pdf"`)
}

func TestSMTPMailer_ErrorDeConexion(t *testing.T) {
	m := mail.NewSMTPMailer(config.SMTPConfig{Server: "smtp.example.com", Port: 587}).
		WithDialer(func(string, int, string, string) (gomail.SendCloser, error) {
			return nil, errors.New("connection refused")
		})
	err := m.Send(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPMailer_Timeout(t *testing.T) {
	sender := &captureSender{block: make(chan struct{})}
	defer close(sender.block)
	m := mail.NewSMTPMailer(config.SMTPConfig{Server: "smtp.example.com", Port: 587, Timeout: 20 * time.Millisecond}).
		WithDialer(func(string, int, string, string) (gomail.SendCloser, error) { return sender, nil })

	err := m.Send(context.Background(), sample())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSMTPMailer_SinServidorNiDestinatarios(t *testing.T) {
	err := mail.NewSMTPMailer(config.SMTPConfig{}).Send(context.Background(), sample())
	assert.Error(t, err)

	msg := sample()
	msg.To = nil
	err = mail.NewSMTPMailer(config.SMTPConfig{Server: "smtp.example.com"}).Send(context.Background(), msg)
	assert.Error(t, err)
}
