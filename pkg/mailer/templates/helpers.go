package templates

import (
	"strings"
	"time"
)

// Branding is the company information stamped on every email
type Branding struct {
	AppName        string
	CompanyName    string
	CompanyAddress string
	LogoURL        string
	SupportURL     string
}

type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithUserID(id int64) Option { return func(d *EmailData) { d.UserID = id } }

func WithFeedback(id string, reviewerID int64, grade int, text string) Option {
	return func(d *EmailData) {
		d.FeedbackID = id
		d.ReviewerID = reviewerID
		d.Grade = grade
		d.FeedbackText = strings.TrimSpace(text)
	}
}

func WithRating(avg float64, n int) Option {
	return func(d *EmailData) {
		d.AverageRating = avg
		d.NumberReviewers = n
	}
}

// NewBaseEmailData fills the common fields from b, then applies opts
func NewBaseEmailData(b Branding, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    b.CompanyName,
		CompanyAddress: b.CompanyAddress,
		AppName:        b.AppName,
		LogoURL:        b.LogoURL,
		SupportURL:     b.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewFeedbackReceivedData(b Branding, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(b, FeedbackReceived, name, email, opts...))
}

func NewWelcomeData(b Branding, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(b, Welcome, name, email, opts...))
}
