package notification

//go:generate go run go.uber.org/mock/mockgen -source=./mailer.go -destination=./mocks/mailer_mock.go -package=mocks

import (
	"context"
	"fmt"
	"net/smtp"
	"roamstay/config"
	"roamstay/infras/otel"
	"roamstay/shared/constant"
	"strings"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, email Email) error
}

type smtpSender struct {
	cfg  *config.Config
	otel otel.Otel
}

func NewSender(cfg *config.Config, otel otel.Otel) Sender {
	return &smtpSender{
		cfg:  cfg,
		otel: otel,
	}
}

func (s *smtpSender) Send(ctx context.Context, email Email) (err error) {
	_, scope := s.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".smtp.Send")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute("email.subject", email.Subject)

	smtpCfg := s.cfg.SMTP

	var builder strings.Builder

	builder.WriteString("From: " + smtpCfg.From + "\r\n")
	builder.WriteString("To: " + email.To + "\r\n")
	builder.WriteString("Subject: " + email.Subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(email.Body)

	addr := smtpCfg.Host + ":" + smtpCfg.Port

	var auth smtp.Auth
	if smtpCfg.Username != constant.Empty {
		auth = smtp.PlainAuth(constant.Empty, smtpCfg.Username, smtpCfg.Password, smtpCfg.Host)
	}

	if err = smtp.SendMail(addr, auth, smtpCfg.From, []string{email.To}, []byte(builder.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
