package handler

import (
	"net/http"

	"comichub/internal/history"
	"comichub/internal/microservices/http-api/middleware"
	"comichub/internal/microservices/http-api/service"
	"comichub/internal/pagination"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HistoryHandler serves both reading histories: the device one keyed by
// X-Device-ID and the account one of the signed-in user.
type HistoryHandler struct {
	svc service.HistoryService
	log *zap.Logger
}

func NewHistoryHandler(svc service.HistoryService, log *zap.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, log: log}
}

// RegisterDeviceRoutes mounts the anonymous routes; rg must run DeviceID.
func (h *HistoryHandler) RegisterDeviceRoutes(rg *gin.RouterGroup) {
	rg.GET("/device", h.list(history.ModeDevice))
	rg.DELETE("/device/:slug", h.remove(history.ModeDevice))
	rg.DELETE("/device", h.clear(history.ModeDevice))
	rg.GET("/last-read", h.LastRead)
}

// RegisterAccountRoutes mounts the routes that need a signed-in user.
func (h *HistoryHandler) RegisterAccountRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list(history.ModeAccount))
	rg.DELETE("/:slug", h.remove(history.ModeAccount))
	rg.DELETE("", h.clear(history.ModeAccount))
	rg.POST("/sync", h.Sync)
}

func owner(c *gin.Context, mode history.Mode) string {
	if mode == history.ModeAccount {
		return middleware.UserID(c)
	}
	return c.GetString("deviceID")
}

func (h *HistoryHandler) list(mode history.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		page, err := h.svc.List(ctx, mode, owner(c, mode), pageFromQuery(c, pagination.CatalogPageSize))
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func (h *HistoryHandler) remove(mode history.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := h.svc.Remove(ctx, mode, owner(c, mode), c.Param("slug")); err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *HistoryHandler) clear(mode history.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := h.svc.Clear(ctx, mode, owner(c, mode)); err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// LastRead returns the viewer's entry for a comic; slug and title are both
// used so entries saved under an older slug are still found.
func (h *HistoryHandler) LastRead(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	item, err := h.svc.LastRead(ctx, middleware.Viewer(c), c.Query("slug"), c.Query("title"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Sync moves the X-Device-ID history into the account.
func (h *HistoryHandler) Sync(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.svc.SyncDevice(ctx, middleware.UserID(c), c.GetString("deviceID"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merged": n})
}
