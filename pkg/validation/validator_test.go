package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type feedbackReq struct {
	ReviewerID  int64  `json:"reviewerId" validate:"required,userid"`
	RecipientID int64  `json:"recipientId" validate:"required,userid,nefield=ReviewerID"`
	Grade       int    `json:"grade" validate:"grade"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Configure(v)
	return v
}

func TestToDetails_FieldMessages(t *testing.T) {
	err := newValidator().Struct(feedbackReq{ReviewerID: 3, RecipientID: 3, Grade: 6, Email: "nope"})

	details := ToDetails(err)
	assert.Equal(t, "must not be equal to ReviewerID field", details["recipientId"])
	assert.Equal(t, "must be between 1 and 5", details["grade"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.NotContains(t, details, "reviewerId")
}

func TestToDetails_Valid(t *testing.T) {
	err := newValidator().Struct(feedbackReq{ReviewerID: 1, RecipientID: 2, Grade: 5})
	assert.NoError(t, err)
	assert.Nil(t, ToDetails(err))
}

func TestToDetails_InvalidJSON(t *testing.T) {
	var dst feedbackReq
	err := json.Unmarshal([]byte(`{"grade":`), &dst)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
}
