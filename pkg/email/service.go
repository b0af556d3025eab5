// Package email delivers transactional mail. With a SendGrid key configured
// it sends for real; without one it logs the message so local runs still
// show what would have gone out.
package email

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Service handles email sending.
type Service struct {
	fromEmail   string
	fromName    string
	baseURL     string
	sendGridKey string
	useSendGrid bool
}

// NewService creates a new email service. An empty sendGridAPIKey switches
// the service to console-only mode.
func NewService(fromEmail, fromName, baseURL, sendGridAPIKey string) *Service {
	useSendGrid := sendGridAPIKey != ""
	if useSendGrid {
		log.Printf("✅ Email service initialized with SendGrid")
	} else {
		log.Printf("⚠️  Email service in console-only mode (set SENDGRID_API_KEY for production)")
	}

	return &Service{
		fromEmail:   fromEmail,
		fromName:    fromName,
		baseURL:     baseURL,
		sendGridKey: sendGridAPIKey,
		useSendGrid: useSendGrid,
	}
}

// SendCommitmentReminder nudges a consultant who has no commitment logged
// for the given week.
func (s *Service) SendCommitmentReminder(toEmail, toName string, weekNumber, year int) error {
	subject := fmt.Sprintf("Reminder: log your commitments for week %d", weekNumber)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Weekly Commitment Reminder</h2>
			<p>Hi %s,</p>
			<p>You have not logged any commitments for week %d of %d yet.</p>
			<p>Please record this week's commitments so your team lead can plan follow-ups.</p>
			<p><a href="%s/commitments" style="background-color: #4CAF50; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Log Commitments</a></p>
			<p>Thanks,<br>The CommitDB Team</p>
		</body>
		</html>
	`, toName, weekNumber, year, s.baseURL)

	plainText := fmt.Sprintf(`
Hi %s,

You have not logged any commitments for week %d of %d yet.

Please record this week's commitments so your team lead can plan follow-ups:

%s/commitments

Thanks,
The CommitDB Team
	`, toName, weekNumber, year, s.baseURL)

	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, body, plainText)
	}

	return s.logEmailToConsole(toEmail, toName, subject, fmt.Sprintf("%s/commitments", s.baseURL))
}

// SendWelcomeEmail greets a newly registered user.
func (s *Service) SendWelcomeEmail(toEmail, toName string) error {
	subject := "Welcome to CommitDB"
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Welcome to CommitDB!</h2>
			<p>Hi %s,</p>
			<p>Your account is ready. CommitDB tracks your weekly sales commitments and rolls them up for your team.</p>
			<h3>Get started:</h3>
			<ul>
				<li>Log your commitments for the current week</li>
				<li>Update lead stages as prospects move through the pipeline</li>
				<li>Check the dashboard for your achievement rate</li>
			</ul>
			<p><a href="%s/dashboard" style="background-color: #4CAF50; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Go to Dashboard</a></p>
			<p>Thanks,<br>The CommitDB Team</p>
		</body>
		</html>
	`, toName, s.baseURL)

	plainText := fmt.Sprintf(`
Hi %s,

Your account is ready. CommitDB tracks your weekly sales commitments and rolls them up for your team.

Get started:
- Log your commitments for the current week
- Update lead stages as prospects move through the pipeline
- Check the dashboard for your achievement rate

Visit your dashboard: %s/dashboard

Thanks,
The CommitDB Team
	`, toName, s.baseURL)

	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, body, plainText)
	}

	log.Printf("📧 [EMAIL] Welcome email to: %s <%s>", toName, toEmail)
	return nil
}

// sendViaSendGrid sends email using the SendGrid API.
func (s *Service) sendViaSendGrid(toEmail, toName, subject, htmlBody, plainTextBody string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)

	message := mail.NewSingleEmail(from, subject, to, plainTextBody, htmlBody)

	client := sendgrid.NewSendClient(s.sendGridKey)
	response, err := client.Send(message)

	if err != nil {
		log.Printf("❌ SendGrid error: %v", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		log.Printf("❌ SendGrid returned error status %d: %s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid returned error status: %d", response.StatusCode)
	}

	log.Printf("✅ Email sent successfully to %s (SendGrid status: %d)", toEmail, response.StatusCode)
	return nil
}

// logEmailToConsole logs email details in console-only mode.
func (s *Service) logEmailToConsole(toEmail, toName, subject, actionURL string) error {
	log.Printf("📧 [EMAIL] %s", subject)
	log.Printf("   To: %s <%s>", toName, toEmail)
	log.Printf("   From: %s <%s>", s.fromName, s.fromEmail)
	log.Printf("   Action URL: %s", actionURL)
	log.Printf("   ⚠️  Email NOT sent (console-only mode)")
	return nil
}
