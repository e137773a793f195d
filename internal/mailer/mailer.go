// Package mailer delivers messages over SMTP.
package mailer

import (
	"context"
	"fmt"

	"bookshelf/internal/models"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SendMessage sends msg right away. It satisfies the same interface as the
// RabbitMQ publisher, so the server can mail without the queue.
func (m *Mailer) SendMessage(ctx context.Context, msg models.Message) error {
	const op = "mailer.SendMessage"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := dialer.DialAndSend(m.compose(msg)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *Mailer) compose(msg models.Message) *gomail.Message {
	from := m.From
	if from == "" {
		from = m.Username
	}

	gm := gomail.NewMessage()
	gm.SetHeader("To", msg.Email)
	gm.SetHeader("From", from)
	gm.SetHeader("Subject", msg.Subject)

	// * text/plain первым, html как альтернатива
	text := msg.Text
	if text == "" {
		text = msg.Link
	}
	gm.SetBody("text/plain", text)

	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	return gm
}
