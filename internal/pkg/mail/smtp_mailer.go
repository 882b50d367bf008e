package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/NicolasMarrai/healthmed/internal/pkg/env"
)

// SendMail sends an HTML email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendWelcomeMail greets a freshly registered user and points them at the
// checkout page. Failures are the caller's business to ignore.
func SendWelcomeMail(to string, name string) error {
	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	body := fmt.Sprintf(
		"<p>Ola %s,</p>"+
			"<p>Bem-vindo ao HealthMed! Sua conta foi criada.</p>"+
			"<p>Para liberar o acesso as aulas, conclua o pagamento em <a href=\"%s/payment\">%s/payment</a>.</p>",
		name, base, base,
	)
	return SendMail(to, "Bem-vindo ao HealthMed", body)
}
