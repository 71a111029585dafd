package services

import (
	"context"
	"errors"
	"testing"

	"inmobiliaria/internal/config"
	"inmobiliaria/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) DialAndSend(msgs ...*gomail.Message) error {
	args := m.Called(msgs)
	return args.Error(0)
}

func TestSendEmail_SetsHeaders(t *testing.T) {
	sender := &MockMailSender{}
	sender.On("DialAndSend", mock.MatchedBy(func(msgs []*gomail.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		m := msgs[0]
		return m.GetHeader("From")[0] == "no-reply@inmo.test" &&
			m.GetHeader("To")[0] == "ana@example.com" &&
			m.GetHeader("Subject")[0] == "Hola"
	})).Return(nil)

	svc := newNotificationService(sender, "no-reply@inmo.test", logger.NewNop())
	err := svc.SendEmail(context.Background(), "ana@example.com", "Hola", "body")

	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestSendEmail_WrapsSenderError(t *testing.T) {
	sender := &MockMailSender{}
	sender.On("DialAndSend", mock.Anything).Return(errors.New("535 auth failed"))

	svc := newNotificationService(sender, "no-reply@inmo.test", logger.NewNop())
	err := svc.SendEmail(context.Background(), "ana@example.com", "Hola", "body")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send email")
}

func TestSendEmail_DisabledWithoutSMTP(t *testing.T) {
	svc := NewNotificationService(config.SMTPConfig{}, logger.NewNop())
	assert.NoError(t, svc.SendEmail(context.Background(), "ana@example.com", "Hola", "body"))
}

func TestSendEmail_CancelledContext(t *testing.T) {
	sender := &MockMailSender{}
	svc := newNotificationService(sender, "no-reply@inmo.test", logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, svc.SendEmail(ctx, "ana@example.com", "Hola", "body"), context.Canceled)
	sender.AssertNotCalled(t, "DialAndSend", mock.Anything)
}

func TestRenderTemplate(t *testing.T) {
	svc := newNotificationService(nil, "", logger.NewNop())

	body, err := svc.RenderTemplate(TemplatePasswordReset, map[string]interface{}{
		"Name": "Ana",
		"Link": "http://front.test/recuperar-contraseña?token=abc",
		"TTL":  "1h0m0s",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Hola Ana")
	assert.Contains(t, body, "token=abc")
	assert.Contains(t, body, "1h0m0s")

	_, err = svc.RenderTemplate("missing", nil)
	assert.Error(t, err)
}

func TestRenderTemplate_AllTemplatesParse(t *testing.T) {
	svc := newNotificationService(nil, "", logger.NewNop())
	for name := range mailTemplates {
		_, err := svc.RenderTemplate(name, map[string]interface{}{})
		assert.NoError(t, err, name)
	}
}
