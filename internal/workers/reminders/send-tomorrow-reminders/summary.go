package sendtomorrowreminders

import (
	"context"
	"fmt"
	"strings"

	"clinic-notify-workers/internal/common/logger"
)

// SummaryBody renders the ops email for a finished run.
func SummaryBody(out *Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reminder sweep %s for %s\n", out.RunID, out.Tomorrow)
	fmt.Fprintf(&b, "Sent %d/%d\n\n", out.Sent, out.Total)
	for _, r := range out.Results {
		status := "sent"
		if !r.Sent {
			status = "skipped"
		}
		if r.Reason != "" {
			fmt.Fprintf(&b, "%s\t%s\t%s\n", r.ID, status, r.Reason)
		} else {
			fmt.Fprintf(&b, "%s\t%s\n", r.ID, status)
		}
	}
	return b.String()
}

func (s *Service) sendSummary(ctx context.Context, log logger.Logger, out *Output) {
	if s.mailer == nil || !s.config.Summary.Enabled {
		return
	}
	subject := fmt.Sprintf("Appointment reminders %s: %d/%d sent", out.Tomorrow, out.Sent, out.Total)
	if _, err := s.mailer.SendText(ctx, s.config.Summary.From, s.config.Summary.To, subject, SummaryBody(out)); err != nil {
		log.Warn("Failed to send reminder summary email", map[string]interface{}{"error": err})
	}
}
