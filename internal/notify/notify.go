// Package notify delivers run outcome notifications to operators.
package notify

import (
	"fmt"

	"github.com/merchpilot/merchpilot/internal/domain"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Notification represents a notification to be sent
type Notification struct {
	Title       string
	Message     string
	Type        NotificationType
	ExecutionID string // Optional run reference
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// FromSummary builds the run-completion notification. Runs with
// infrastructure failures warn even when designs were approved.
func FromSummary(s *domain.RunSummary) Notification {
	typ := NotifySuccess
	switch {
	case s.InfraFailures > 0:
		typ = NotifyWarning
	case s.Approved == 0:
		typ = NotifyInfo
	}
	return Notification{
		Title: fmt.Sprintf("Pipeline run: %d approved of %d generated", s.Approved, s.CandidatesGenerated),
		Message: fmt.Sprintf(
			"niches %d/%d retained, ip flagged %d, compliance flagged %d, quality rejected %d, infra failures %d, %.1f approved/hour",
			s.NichesRetained, s.NichesResearched,
			s.IPFlagged, s.ComplianceFlagged, s.QualityRejected,
			s.InfraFailures, s.ApprovedPerHour),
		Type:        typ,
		ExecutionID: s.ExecutionID,
	}
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier does nothing (for testing or disabled notifications)
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }
