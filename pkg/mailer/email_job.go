package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template+Data or Subject+Text (HTML optional) must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "feedback_received", "welcome"
	Data     map[string]any `json:"data,omitempty"`
}

// MessageType labels the queue message, e.g. "email.welcome".
func (j EmailJob) MessageType() string {
	if j.Template == "" {
		return "email.raw"
	}
	return "email." + j.Template
}
