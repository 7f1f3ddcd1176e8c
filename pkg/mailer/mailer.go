package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/campushq/records-api/pkg/config"
)

// Event identifies a notification template.
type Event string

const (
	EventLeaveStatus       Event = "leave_status"
	EventAdmissionStage    Event = "admission_stage"
	EventEnrollment        Event = "enrollment_credentials"
	EventGrievanceUpdate   Event = "grievance_update"
	EventThesisDecision    Event = "thesis_decision"
	EventFeePayment        Event = "fee_payment"
	EventPasswordReset     Event = "password_reset"
	EventAccountProvision  Event = "account_provisioned"
)

// Templates are deliberately plain text; placeholders are filled from the
// data map with %s-style substitution keyed by field order in fields.
var templates = map[Event]struct {
	subject string
	body    string
	fields  []string
}{
	EventLeaveStatus: {
		subject: "Leave request %s",
		body:    "Your leave request from %s to %s is now %s.",
		fields:  []string{"start_date", "end_date", "status"},
	},
	EventAdmissionStage: {
		subject: "Admission application %s",
		body:    "Application %s has moved to stage %s.",
		fields:  []string{"application_number", "status"},
	},
	EventEnrollment: {
		subject: "Enrollment confirmed",
		body:    "Welcome aboard. Your registration number is %s. A temporary password has been set: %s. Please change it after your first login.",
		fields:  []string{"registration_number", "temporary_password"},
	},
	EventGrievanceUpdate: {
		subject: "Grievance %s",
		body:    "Your grievance %q is now %s.",
		fields:  []string{"subject", "status"},
	},
	EventThesisDecision: {
		subject: "Thesis status update",
		body:    "Your thesis %q is now %s.",
		fields:  []string{"title", "status"},
	},
	EventFeePayment: {
		subject: "Fee payment recorded",
		body:    "A payment of %s was recorded. Your fee is now %s.",
		fields:  []string{"amount", "status"},
	},
	EventPasswordReset: {
		subject: "Password reset requested",
		body:    "Use this token to reset your password: %s. It expires in %s and can be used once.",
		fields:  []string{"token", "expires_in"},
	},
	EventAccountProvision: {
		subject: "Your account is ready",
		body:    "An account has been created for you. Temporary password: %s. Please change it after your first login.",
		fields:  []string{"temporary_password"},
	},
}

// Mailer sends templated notification emails over SMTP. With empty
// credentials it logs the message instead of sending, which keeps local
// development working without a mail relay.
type Mailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// New constructs a Mailer.
func New(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Configured reports whether a real SMTP transport is available.
func (m *Mailer) Configured() bool {
	return m.cfg.Username != "" && m.cfg.Password != ""
}

// Send renders the template for the event and dispatches it to the recipient.
func (m *Mailer) Send(event Event, recipient string, data map[string]string) error {
	tpl, ok := templates[event]
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}

	args := make([]interface{}, 0, len(tpl.fields))
	for _, field := range tpl.fields {
		args = append(args, data[field])
	}
	body := fmt.Sprintf(tpl.body, args...)

	subject := tpl.subject
	if strings.Contains(subject, "%s") {
		subject = fmt.Sprintf(subject, data["status"])
	}

	if !m.Configured() {
		m.logger.Info("smtp not configured, logging notification instead",
			zap.String("event", string(event)),
			zap.String("to", recipient),
			zap.String("subject", subject),
			zap.String("body", body),
		)
		return nil
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", m.cfg.FromName, m.cfg.FromEmail),
		fmt.Sprintf("To: %s", recipient),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("send %s mail: %w", event, err)
	}
	return nil
}
