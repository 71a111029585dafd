package services

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"inmobiliaria/internal/config"
	"inmobiliaria/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Template names understood by RenderTemplate
const (
	TemplateWelcome        = "welcome"
	TemplatePasswordReset  = "password_reset"
	TemplateRentalApproved = "rental_approved"
	TemplateSaleFinalized  = "sale_finalized"
)

var mailTemplates = map[string]string{
	TemplateWelcome: `Hola {{.Name}},

Tu cuenta en {{.App}} fue creada correctamente. Ya podés iniciar sesión con {{.Email}}.`,
	TemplatePasswordReset: `Hola {{.Name}},

Recibimos un pedido para restablecer tu contraseña. Usá el siguiente enlace, válido por {{.TTL}}:

{{.Link}}

Si no fuiste vos, ignorá este mensaje.`,
	TemplateRentalApproved: `Hola {{.Name}},

Tu solicitud de alquiler para {{.Address}} fue aprobada. Vigencia: {{.Start}} al {{.End}}.`,
	TemplateSaleFinalized: `Hola {{.Name}},

La compra de {{.Address}} quedó finalizada por un total de {{.Amount}}.`,
}

// NotificationService sends email. SendEmail is synchronous and reports
// failures; SendEmailAsync only logs them.
type NotificationService interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
	SendEmailAsync(recipient, subject, body string)
	RenderTemplate(name string, data map[string]interface{}) (string, error)
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type notificationService struct {
	sender    mailSender // nil when SMTP is not configured
	from      string
	templates map[string]*template.Template
	log       *logger.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg config.SMTPConfig, log *logger.Logger) NotificationService {
	var sender mailSender
	if cfg.Enabled() {
		sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return newNotificationService(sender, cfg.From, log)
}

func newNotificationService(sender mailSender, from string, log *logger.Logger) *notificationService {
	templates := make(map[string]*template.Template, len(mailTemplates))
	for name, body := range mailTemplates {
		templates[name] = template.Must(template.New(name).Parse(body))
	}
	return &notificationService{
		sender:    sender,
		from:      from,
		templates: templates,
		log:       log.Named("mailer"),
	}
}

func (s *notificationService) SendEmail(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.sender == nil {
		// SMTP not configured: log the email that would be sent
		s.log.Info("[EMAIL] delivery disabled",
			zap.String("to", recipient),
			zap.String("subject", subject),
		)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.Info("Email sent", zap.String("to", recipient), zap.String("subject", subject))
	return nil
}

func (s *notificationService) SendEmailAsync(recipient, subject, body string) {
	go func() {
		if err := s.SendEmail(context.Background(), recipient, subject, body); err != nil {
			s.log.Warn("Async email failed",
				zap.String("to", recipient),
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}()
}

func (s *notificationService) RenderTemplate(name string, data map[string]interface{}) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %v", err)
	}
	return buf.String(), nil
}
