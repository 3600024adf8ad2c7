package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/application"
	"github.com/oksasatya/feedback-hub/pkg/response"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name" binding:"required,max=100"`
	PhoneNumber string `json:"phoneNumber" binding:"required,phone"`
	Password    string `json:"password" binding:"required,pwd"`
}

// Empty fields keep their stored values.
type updateUserRequest struct {
	Email       string `json:"email" binding:"omitempty,email"`
	Name        string `json:"name" binding:"omitempty,max=100"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,phone"`
	Password    string `json:"password" binding:"omitempty,pwd"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.Svc.CreateUser(c.Request.Context(), application.CreateUserInput{
		Email:       req.Email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		coreError(c, h.Logger, "createUser", err)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), fmt.Sprintf("User created successfully with ID: %d", u.UserID), nil)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := userIDParam(c, "id")
	if !ok {
		return
	}
	u, err := h.Svc.GetUserByID(c.Request.Context(), id)
	if err != nil {
		coreError(c, h.Logger, "getUserById", err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.GetAllUsers(c.Request.Context())
	if err != nil {
		coreError(c, h.Logger, "getAllUsers", err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponses(users), "users", map[string]any{"count": len(users)})
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := userIDParam(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	err := h.Svc.UpdateUser(c.Request.Context(), id, application.UpdateUserInput{
		Email:       req.Email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		coreError(c, h.Logger, "updateUser", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"userId": id}, fmt.Sprintf("User updated successfully with ID: %d", id), nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := userIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.DeleteUser(c.Request.Context(), id); err != nil {
		coreError(c, h.Logger, "deleteUser", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"userId": id}, fmt.Sprintf("User deletion requested for ID: %d", id), nil)
}

func (h *UserHandler) Promote(c *gin.Context) {
	id, ok := userIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.Promote(c.Request.Context(), id); err != nil {
		coreError(c, h.Logger, "promoteUser", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"userId": id}, fmt.Sprintf("User promoted with ID: %d", id), nil)
}

// Search runs a free-text lookup on email and name.
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"q": "is required"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"size": "must be a positive integer"})
		return
	}
	users, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		coreError(c, h.Logger, "searchUsers", err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponses(users), "search results", map[string]any{"count": len(users)})
}
