package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/andrewbot/andrewbot/pkg/log"
)

// Mailer delivers a verification code to an address. There are exactly two
// implementations: real SMTP delivery and a print-only stub for local runs,
// selected at configuration time.
type Mailer interface {
	Send(toAddr string, code string, name string) error
}

const subject = "Email Verification Code from AndrewBot"

func buildMessage(toAddr, fromAddr, code string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", fromAddr),
		fmt.Sprintf("To: %s", toAddr),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		fmt.Sprintf("Your verification code is %s.", code),
	}
	return []byte(strings.Join(headers, "\r\n"))
}

// SMTPMailer sends mail through an SMTP relay with PLAIN auth. SendMail
// upgrades the connection with STARTTLS when the server offers it.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	FromAddr string
}

func (m *SMTPMailer) Send(toAddr string, code string, name string) error {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	log.Info("Sending verification mail for %v via %v", name, m.Host)
	return smtp.SendMail(addr, auth, m.FromAddr, []string{toAddr}, buildMessage(toAddr, m.FromAddr, code))
}

// PrintMailer logs the message instead of sending it.
type PrintMailer struct{}

func (PrintMailer) Send(toAddr string, code string, name string) error {
	log.Info("Sending fake email for %v:\n%s", name, buildMessage(toAddr, "test@example.com", code))
	return nil
}
