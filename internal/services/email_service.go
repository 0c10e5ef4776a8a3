package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, username string) error
	SendLevelUpEmail(email, username, newLevel string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendWelcomeEmail(email, username string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to Task Rewarder!")

	body := fmt.Sprintf(`
		<h2>Welcome to Task Rewarder, %s!</h2>
		<p>Thank you for registering. Your account has been successfully created.</p>
		<p>Take tasks, earn tokens, level up.</p>
		<p>Best regards,<br>The Task Rewarder Team</p>
	`, username)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	return nil
}

func (s *emailService) SendLevelUpEmail(email, username, newLevel string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Level up!")

	body := fmt.Sprintf(`
		<h3>Congratulations, %s!</h3>
		<p>Your volunteer level is now <strong>%s</strong>.</p>
		<p>Harder tasks with bigger rewards are now open to you.</p>
	`, username, newLevel)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send level-up email: %w", err)
	}

	return nil
}
