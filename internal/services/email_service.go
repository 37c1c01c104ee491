package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"opsdesk/internal/models"
)

type EmailService interface {
	SendApprovalOutcome(email, requesterName string, po *models.PurchaseOrderRequest) error
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

// SendApprovalOutcome mails the requester the outcome of their PO request.
// Callers treat failures as best-effort, same as notifications.
func (s *emailService) SendApprovalOutcome(email, requesterName string, po *models.PurchaseOrderRequest) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)

	var subject, outcome string
	switch po.Status {
	case models.ApprovalApproved:
		subject = fmt.Sprintf("PO request %s approved", po.RequestNumber)
		outcome = fmt.Sprintf("approved by %s", po.Approval.ApprovedByName)
	case models.ApprovalRejected:
		subject = fmt.Sprintf("PO request %s rejected", po.RequestNumber)
		outcome = fmt.Sprintf("rejected by %s: %s", po.Approval.RejectedByName, po.Approval.RejectionReason)
	default:
		return nil
	}
	m.SetHeader("Subject", subject)

	body := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>Your purchase-order request <strong>%s</strong> (%s, total %.2f %s) was %s.</p>
	`, requesterName, po.RequestNumber, po.VendorName, po.Total, po.Currency, outcome)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send approval outcome email: %w", err)
	}
	return nil
}
