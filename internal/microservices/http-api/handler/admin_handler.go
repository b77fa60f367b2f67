package handler

import (
	"net/http"
	"strconv"

	"comichub/internal/microservices/http-api/dto"
	"comichub/internal/microservices/http-api/middleware"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/microservices/http-api/service"
	"comichub/internal/pagination"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves the dashboard. Every route requires an admin.
type AdminHandler struct {
	admin   service.AdminService
	users   service.UserService
	maxSize int64
	log     *zap.Logger
}

func NewAdminHandler(admin service.AdminService, users service.UserService, maxUploadSize int64, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, users: users, maxSize: maxUploadSize, log: log}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.Stats)

	rg.GET("/users", h.ListUsers)
	rg.PATCH("/users/:id/status", h.SetUserStatus)
	rg.PATCH("/users/:id/role", h.SetUserRole)

	rg.GET("/categories", h.ListCategories)
	rg.POST("/categories", h.CreateCategory)
	rg.PUT("/categories/:id", h.UpdateCategory)
	rg.DELETE("/categories/:id", h.DeleteCategory)

	rg.GET("/comics", h.ListComics)
	rg.POST("/comics", h.CreateComic)
	rg.GET("/comics/:slug", h.GetComic)
	rg.PUT("/comics/:slug", h.UpdateComic)
	rg.DELETE("/comics/:slug", h.DeleteComic)

	rg.GET("/comics/:slug/chapters", h.ListChapters)
	rg.POST("/comics/:slug/chapters", h.CreateChapter)
	rg.GET("/comics/:slug/chapters/:id", h.GetChapter)
	rg.PUT("/comics/:slug/chapters/:id", h.UpdateChapter)
	rg.DELETE("/comics/:slug/chapters/:id", h.DeleteChapter)
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) Stats(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	st, err := h.admin.Stats(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page := pageFromQuery(c, pagination.DashboardPageSize)
	users, total, err := h.users.ListUsers(ctx, repository.UserFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
	}, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.FromUsers(users), "pagination": pageInfo(page, total)})
}

func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	var req dto.SetStatusRequest
	// an empty body toggles
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.SetStatus(ctx, middleware.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *AdminHandler) SetUserRole(c *gin.Context) {
	var req dto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.SetRole(ctx, middleware.UserID(c), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *AdminHandler) ListCategories(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page := pageFromQuery(c, pagination.DashboardPageSize)
	cats, total, err := h.admin.ListCategories(ctx, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cats, "pagination": pageInfo(page, total)})
}

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.admin.CreateCategory(ctx, req.Name, req.Slug)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.admin.UpdateCategory(ctx, id, req.Name, req.Slug)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.admin.DeleteCategory(ctx, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) ListComics(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page := pageFromQuery(c, pagination.CatalogPageSize)
	comics, total, err := h.admin.ListComics(ctx, c.Query("search"), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.FromComics(comics), "pagination": pageInfo(page, total)})
}

func (h *AdminHandler) GetComic(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	comic, err := h.admin.GetComic(ctx, c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comic)
}

// bindComicForm reads the multipart comic form and its optional cover.
func (h *AdminHandler) bindComicForm(c *gin.Context) (service.ComicInput, bool) {
	var form dto.ComicForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return service.ComicInput{}, false
	}
	_, sent := c.GetPostFormArray("category_ids")
	return form.ToInput(sent), true
}

func (h *AdminHandler) CreateComic(c *gin.Context) {
	in, ok := h.bindComicForm(c)
	if !ok {
		return
	}
	cover, err := formFile(c, "cover", h.maxSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ctx, cancel := uploadContext(c)
	defer cancel()

	comic, err := h.admin.CreateComic(ctx, in, cover)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comic)
}

func (h *AdminHandler) UpdateComic(c *gin.Context) {
	in, ok := h.bindComicForm(c)
	if !ok {
		return
	}
	cover, err := formFile(c, "cover", h.maxSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ctx, cancel := uploadContext(c)
	defer cancel()

	comic, err := h.admin.UpdateComic(ctx, c.Param("slug"), in, cover)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comic)
}

func (h *AdminHandler) DeleteComic(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.admin.DeleteComic(ctx, c.Param("slug")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) ListChapters(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	chapters, err := h.admin.ListChapters(ctx, c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": chapters})
}

func (h *AdminHandler) GetChapter(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	ch, err := h.admin.GetChapter(ctx, c.Param("slug"), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *AdminHandler) CreateChapter(c *gin.Context) {
	var form dto.ChapterForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	images, err := formFiles(c, "images", h.maxSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ctx, cancel := uploadContext(c)
	defer cancel()

	ch, err := h.admin.CreateChapter(ctx, c.Param("slug"), form.Title, images)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

func (h *AdminHandler) UpdateChapter(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var form dto.ChapterForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	images, err := formFiles(c, "images", h.maxSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ctx, cancel := uploadContext(c)
	defer cancel()

	ch, err := h.admin.UpdateChapter(ctx, c.Param("slug"), id, service.ChapterUpdate{
		Title:      form.Title,
		KeepImages: form.KeepImages,
		NewImages:  images,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// DeleteChapter accepts either the chapter id or its title in :id.
func (h *AdminHandler) DeleteChapter(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.admin.DeleteChapter(ctx, c.Param("slug"), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
