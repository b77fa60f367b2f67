package handler

import (
	"net/http"

	"comichub/internal/microservices/http-api/middleware"
	"comichub/internal/microservices/http-api/service"
	"comichub/internal/pagination"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FollowHandler struct {
	svc service.FollowService
	log *zap.Logger
}

func NewFollowHandler(svc service.FollowService, log *zap.Logger) *FollowHandler {
	return &FollowHandler{svc: svc, log: log}
}

func (h *FollowHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:slug", h.Status)
	rg.POST("/:slug", h.Follow)
	rg.DELETE("/:slug", h.Unfollow)
}

func (h *FollowHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.svc.List(ctx, middleware.UserID(c), pageFromQuery(c, pagination.CatalogPageSize))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *FollowHandler) Status(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	followed, err := h.svc.IsFollowed(ctx, middleware.UserID(c), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": c.Param("slug"), "followed": followed})
}

func (h *FollowHandler) Follow(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	f, err := h.svc.Follow(ctx, middleware.UserID(c), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Unfollow(ctx, middleware.UserID(c), c.Param("slug")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
