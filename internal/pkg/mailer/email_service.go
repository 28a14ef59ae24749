// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendAlert(toEmail, metric, description, severity string, value, threshold float64, at time.Time) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
	}
}

func (s *emailService) SendAlert(toEmail, metric, description, severity string, value, threshold float64, at time.Time) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("[%s] %s threshold crossed", strings.ToUpper(severity), metric))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Threshold crossing: %s</h2>
			<p>%s</p>
			<table style="border-collapse: collapse;">
				<tr><td style="padding: 4px 12px 4px 0;"><b>Metric</b></td><td>%s</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;"><b>Severity</b></td><td>%s</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;"><b>Value</b></td><td>%.4f</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;"><b>Threshold</b></td><td>%.4f</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;"><b>At</b></td><td>%s</td></tr>
			</table>
			<p>Open the dashboard for the live view.</p>
		</div>
	`, metric, description, metric, severity, value, threshold, at.Format(time.RFC3339))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send alert mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Alert mail sent to %s\n", toEmail)
	return nil
}
