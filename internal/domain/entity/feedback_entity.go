package entity

import "time"

const (
	MinGrade = 1
	MaxGrade = 5
)

// Feedback is one reviewer's graded comment about a recipient.
// FeedbackID is the push key it is stored under (feedbacks/{FeedbackID});
// Timestamp is milliseconds since the Unix epoch.
type Feedback struct {
	FeedbackID   string `json:"feedbackId"`
	ReviewerID   int64  `json:"reviewerId"`
	RecipientID  int64  `json:"recipientId"`
	FeedbackText string `json:"feedbackText"`
	Grade        int    `json:"grade"`
	Timestamp    int64  `json:"timestamp"`
}

// CreatedAt returns Timestamp as a UTC time
func (f *Feedback) CreatedAt() time.Time {
	return time.UnixMilli(f.Timestamp).UTC()
}

// ValidGrade reports whether g lies within MinGrade..MaxGrade
func ValidGrade(g int) bool { return g >= MinGrade && g <= MaxGrade }
