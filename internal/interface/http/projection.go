package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	"github.com/oksasatya/feedback-hub/pkg/response"
	"github.com/oksasatya/feedback-hub/pkg/validation"
)

// userResponse is the public user shape; the password hash is never exposed.
type userResponse struct {
	UserID          int64   `json:"userId"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	PhoneNumber     string  `json:"phoneNumber"`
	Role            string  `json:"role"`
	AverageRating   float64 `json:"averageRating"`
	NumberReviewers int     `json:"numberReviewers"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		UserID:          u.UserID,
		Email:           u.Email,
		Name:            u.Name,
		PhoneNumber:     u.PhoneNumber,
		Role:            string(u.Role),
		AverageRating:   u.AverageRating,
		NumberReviewers: u.NumberReviewers,
	}
}

func toUserResponses(users []*entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func nonNilFeedbacks(fbs []*entity.Feedback) []*entity.Feedback {
	if fbs == nil {
		return []*entity.Feedback{}
	}
	return fbs
}

func bindError(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

// coreError writes every orchestration failure as 500 carrying its message;
// callers do not get a distinct status for not-found.
func coreError(c *gin.Context, logger *logrus.Logger, op string, err error) {
	logger.WithError(err).WithField("op", op).Warn("request failed")
	response.Error[any](c, http.StatusInternalServerError, err.Error(), nil)
}

func userIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{name: "must be a positive integer"})
		return 0, false
	}
	return id, true
}
