package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/application"
	"github.com/oksasatya/feedback-hub/pkg/response"
)

type FeedbackHandler struct {
	Svc    *application.FeedbackService
	Logger *logrus.Logger
}

func NewFeedbackHandler(svc *application.FeedbackService, logger *logrus.Logger) *FeedbackHandler {
	return &FeedbackHandler{Svc: svc, Logger: logger}
}

type createFeedbackRequest struct {
	ReviewerID   int64  `json:"reviewerId" binding:"required,userid"`
	RecipientID  int64  `json:"recipientId" binding:"required,userid,nefield=ReviewerID"`
	FeedbackText string `json:"feedbackText" binding:"required,max=2000"`
	Grade        int    `json:"grade" binding:"required,grade"`
}

func (h *FeedbackHandler) Create(c *gin.Context) {
	var req createFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	fb, err := h.Svc.CreateFeedback(c.Request.Context(), application.CreateFeedbackInput{
		ReviewerID:   req.ReviewerID,
		RecipientID:  req.RecipientID,
		FeedbackText: req.FeedbackText,
		Grade:        req.Grade,
	})
	if err != nil {
		coreError(c, h.Logger, "createFeedback", err)
		return
	}
	response.Success(c, http.StatusCreated, fb, fmt.Sprintf("Feedback created successfully with ID: %s", fb.FeedbackID), nil)
}

func (h *FeedbackHandler) Get(c *gin.Context) {
	fb, err := h.Svc.GetFeedbackByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		coreError(c, h.Logger, "getFeedbackById", err)
		return
	}
	response.Success(c, http.StatusOK, fb, "feedback", nil)
}

func (h *FeedbackHandler) List(c *gin.Context) {
	fbs, err := h.Svc.GetAllFeedbacks(c.Request.Context())
	if err != nil {
		coreError(c, h.Logger, "getAllFeedbacks", err)
		return
	}
	response.Success(c, http.StatusOK, nonNilFeedbacks(fbs), "feedbacks", map[string]any{"count": len(fbs)})
}

func (h *FeedbackHandler) ByReviewer(c *gin.Context) {
	id, ok := userIDParam(c, "id")
	if !ok {
		return
	}
	fbs, err := h.Svc.GetFeedbacksByReviewer(c.Request.Context(), id)
	if err != nil {
		coreError(c, h.Logger, "getFeedbacksByReviewer", err)
		return
	}
	response.Success(c, http.StatusOK, nonNilFeedbacks(fbs), "feedbacks", map[string]any{"count": len(fbs)})
}

func (h *FeedbackHandler) ByRecipient(c *gin.Context) {
	id, ok := userIDParam(c, "id")
	if !ok {
		return
	}
	fbs, err := h.Svc.GetFeedbacksByRecipient(c.Request.Context(), id)
	if err != nil {
		coreError(c, h.Logger, "getFeedbacksByRecipient", err)
		return
	}
	response.Success(c, http.StatusOK, nonNilFeedbacks(fbs), "feedbacks", map[string]any{"count": len(fbs)})
}

func (h *FeedbackHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Svc.DeleteFeedbackByID(c.Request.Context(), id); err != nil {
		coreError(c, h.Logger, "deleteFeedbackById", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"feedbackId": id}, fmt.Sprintf("Feedback deletion requested for ID: %s", id), nil)
}
