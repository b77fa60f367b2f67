package handler

import (
	"net/http"
	"strings"

	"comichub/internal/catalog"
	"comichub/internal/microservices/http-api/middleware"
	"comichub/internal/microservices/http-api/service"
	"comichub/internal/pagination"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ComicHandler serves the public catalog and the reader.
type ComicHandler struct {
	svc service.ComicService
	log *zap.Logger
}

func NewComicHandler(svc service.ComicService, log *zap.Logger) *ComicHandler {
	return &ComicHandler{svc: svc, log: log}
}

func (h *ComicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/comics", h.Home)
	rg.GET("/comics/search", h.Search)
	rg.GET("/comics/:slug", h.Detail)
	rg.GET("/comics/:slug/chapters/:chapterSlug", h.Chapter)
	rg.POST("/comics/:slug/chapters/:chapterSlug/read", h.RecordRead)

	rg.GET("/categories", h.Categories)
	rg.GET("/categories/:slug/comics", h.CategoryComics)
}

// Home lists complete comics, most recently updated first.
func (h *ComicHandler) Home(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.svc.Home(ctx, pageFromQuery(c, pagination.CatalogPageSize))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func searchQuery(c *gin.Context) catalog.Query {
	return catalog.Query{
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Category: strings.TrimSpace(c.Query("category")),
		Status:   c.Query("status"),
		Sort:     catalog.ParseSort(c.Query("sort")),
		Page:     pageFromQuery(c, pagination.CatalogPageSize),
	}
}

func (h *ComicHandler) Search(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	q := searchQuery(c)
	res, err := h.svc.Search(ctx, q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":         res,
		"sort":           int(q.Sort),
		"sort_options":   catalog.SortOptions,
		"status":         q.Status,
		"status_options": catalog.StatusOptions,
	})
}

func (h *ComicHandler) Categories(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	cats, err := h.svc.Categories(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cats})
}

func (h *ComicHandler) CategoryComics(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.svc.CategoryComics(ctx, c.Param("slug"), searchQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ComicHandler) Detail(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	detail, err := h.svc.Detail(ctx, c.Param("slug"), middleware.Viewer(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ComicHandler) Chapter(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := h.svc.Chapter(ctx, c.Param("slug"), c.Param("chapterSlug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RecordRead is called by the reader when a chapter is opened. It counts
// the view and updates the history of whoever is reading.
func (h *ComicHandler) RecordRead(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	item, err := h.svc.RecordRead(ctx, c.Param("slug"), c.Param("chapterSlug"), middleware.Viewer(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
