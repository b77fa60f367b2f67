package handler

import (
	"net/http"

	"comichub/internal/microservices/http-api/dto"
	"comichub/internal/microservices/http-api/middleware"
	"comichub/internal/microservices/http-api/service"
	"comichub/internal/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler serves the signed-in user's own account under /me.
type UserHandler struct {
	svc     service.UserService
	maxSize int64
	log     *zap.Logger
}

func NewUserHandler(svc service.UserService, maxUploadSize int64, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, maxSize: maxUploadSize, log: log}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
	rg.PATCH("", h.Update)
	rg.POST("/avatar", h.UploadAvatar)
	rg.POST("/password", h.ChangePassword)
}

func (h *UserHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.svc.GetProfile(ctx, middleware.UserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.svc.UpdateProfile(ctx, middleware.UserID(c), service.ProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	f, err := formFile(c, "avatar", h.maxSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if f == nil {
		respondError(c, h.log, upload.ErrEmptyFile)
		return
	}
	ctx, cancel := uploadContext(c)
	defer cancel()

	user, err := h.svc.UploadAvatar(ctx, middleware.UserID(c), *f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.ChangePassword(ctx, middleware.UserID(c), req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "password changed"})
}
