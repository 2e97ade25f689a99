package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

type ReminderEmail struct {
	ToEmail  string
	FullName string
	DaysAway int
	// Upsell adds the upgrade line for free-tier users.
	Upsell bool
}

type IEmailService interface {
	SendReminder(r ReminderEmail) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	clientURL   string
}

func NewEmailService(host string, port int, username, password, senderName, clientURL string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
		clientURL:   clientURL,
	}
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hi {{.Name}}, your coach misses you</h2>
			<p>It has been {{.DaysAway}} days since your last check-in. A two minute reflection today keeps the habit alive.</p>
			<a href="{{.Link}}" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Continue the conversation</a>
			{{if .Upsell}}<p>Upgrade to Basic or Premium and your coach will remember what you talked about.</p>{{end}}
			<p>You can turn these reminders off in your settings.</p>
		</div>
	`))

func (s *emailService) renderReminder(r ReminderEmail) (string, error) {
	name := r.FullName
	if name == "" {
		name = "there"
	}

	var body bytes.Buffer
	err := reminderTemplate.Execute(&body, map[string]interface{}{
		"Name":     name,
		"DaysAway": r.DaysAway,
		"Link":     s.clientURL + "/chat",
		"Upsell":   r.Upsell,
	})
	if err != nil {
		return "", fmt.Errorf("render reminder: %w", err)
	}
	return body.String(), nil
}

func (s *emailService) buildReminder(r ReminderEmail) (*gomail.Message, error) {
	body, err := s.renderReminder(r)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", r.ToEmail)
	m.SetHeader("Subject", "Time for a quick check-in")
	m.SetBody("text/html", body)
	return m, nil
}

func (s *emailService) SendReminder(r ReminderEmail) error {
	m, err := s.buildReminder(r)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send reminder to %s: %w", r.ToEmail, err)
	}
	return nil
}
