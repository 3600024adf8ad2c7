package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/feedback-hub/pkg/mailer"
	mailtpl "github.com/oksasatya/feedback-hub/pkg/mailer/templates"
)

// SubjectForTemplate is the fallback subject when a job carries none
func SubjectForTemplate(name string) string {
	switch strings.ToLower(name) {
	case mailtpl.FeedbackReceived:
		return "You received new feedback"
	case mailtpl.Welcome:
		return "Welcome"
	default:
		return "Notification"
	}
}

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
