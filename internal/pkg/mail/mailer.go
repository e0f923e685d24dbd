package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/picflux/picflux/internal/pkg/env"
)

// SendMail delivers an HTML email via SMTP.
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

// SendActivationMail sends the account activation link after registration.
func SendActivationMail(to, name, token string) error {
	domain := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	link := fmt.Sprintf("%s/activate?token=%s", domain, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>welcome to PicFlux! Please confirm your email address:</p>"+
			"<p><a href=\"%s\">Activate account</a></p>",
		name, link,
	)
	return SendMail(to, "Activate your PicFlux account", body)
}

// SendPaymentConfirmationMail notifies the customer that credits were added.
func SendPaymentConfirmationMail(to, plan string, credits int) error {
	body := fmt.Sprintf(
		"<p>Thank you for your purchase!</p><p>Your <strong>%s</strong> plan is active and "+
			"<strong>%d credits</strong> were added to your account.</p>",
		plan, credits,
	)
	return SendMail(to, "Your PicFlux purchase", body)
}
