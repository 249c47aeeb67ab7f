package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const fromName = "Juridibot"
const fromAddress = "contato@juridibot.com.br"

// EmailNotifier sends transactional email through sendgrid
type EmailNotifier struct {
	apiKey string
}

// NewEmailNotifier creates an EmailNotifier. An empty api key turns sends
// into logged no-ops, useful for local runs.
func NewEmailNotifier(apiKey string) *EmailNotifier {
	return &EmailNotifier{apiKey: apiKey}
}

// SendWelcomeEmail delivers the intake confirmation after the AI registers a
// new client
func (n *EmailNotifier) SendWelcomeEmail(ctx context.Context, name, email string) error {
	if n.apiKey == "" {
		zap.S().Infow("sendgrid disabled, skipping welcome email", "email", email)
		return nil
	}

	from := mail.NewEmail(fromName, fromAddress)
	to := mail.NewEmail(name, email)
	subject := "Recebemos seu contato"
	plain := fmt.Sprintf("Olá %s,\n\nSeu cadastro foi criado e sua conversa está registrada. "+
		"Um de nossos advogados continuará o atendimento se necessário.\n\nEquipe Juridibot", name)
	html := fmt.Sprintf("<p>Olá %s,</p><p>Seu cadastro foi criado e sua conversa está registrada. "+
		"Um de nossos advogados continuará o atendimento se necessário.</p><p>Equipe Juridibot</p>", name)

	message := mail.NewSingleEmail(from, subject, to, plain, html)
	client := sendgrid.NewSendClient(n.apiKey)
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
