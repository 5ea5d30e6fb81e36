package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/Dan9191/shop-service/internal/config"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendFineNotice tells a customer that an installment is overdue and a fine is accruing
func (s *Sender) SendFineNotice(to, username string, dueDate time.Time, total, fine decimal.Decimal) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Overdue Installment Notification"

	body := fmt.Sprintf("Dear %s,\n\n", username)
	body += fmt.Sprintf(
		"Your installment payment of %s was due on %s and is now overdue.\n"+
			"A late fee of %s has been applied and grows every day until the payment is made.\n"+
			"The late fee never exceeds the installment amount.\n",
		total.StringFixed(2), dueDate.Format("2006-01-02"), fine.StringFixed(2),
	)
	body += "\nBest regards,\nShop Service"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
