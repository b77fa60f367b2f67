package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"comichub/internal/microservices/http-api/dto"
	"comichub/internal/microservices/http-api/service"
	"comichub/internal/pagination"
	"comichub/internal/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Timeouts applied to handler work. Uploads talk to the image host and get longer.
const (
	DefaultRequestTimeout = 5 * time.Second
	UploadTimeout         = 2 * time.Minute
)

const timeoutKey = "requestTimeout"

// Timeout sets the deadline handlers of this router give their service calls.
// Zero keeps DefaultRequestTimeout.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d > 0 {
			c.Set(timeoutKey, d)
		}
		c.Next()
	}
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	d := DefaultRequestTimeout
	if v, ok := c.Get(timeoutKey); ok {
		if t, ok := v.(time.Duration); ok {
			d = t
		}
	}
	return context.WithTimeout(c.Request.Context(), d)
}

func uploadContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), UploadTimeout)
}

var statusByError = []struct {
	status int
	errs   []error
}{
	{http.StatusNotFound, []error{
		service.ErrComicNotFound, service.ErrChapterNotFound, service.ErrCategoryNotFound,
		service.ErrUserNotFound, service.ErrNotFollowing, service.ErrHistoryNotFound,
	}},
	{http.StatusConflict, []error{
		service.ErrSlugTaken, service.ErrEmailInUse, service.ErrCategorySlugTaken, service.ErrChapterExists,
	}},
	{http.StatusBadRequest, []error{
		service.ErrInvalidTitle, service.ErrInvalidChapterTitle, service.ErrNoImages, service.ErrCoverRequired,
		service.ErrCategoryInvalid, service.ErrInvalidEmail, service.ErrDisplayNameRequired,
		service.ErrPasswordTooShort, service.ErrPasswordMismatch, service.ErrInvalidRole,
		service.ErrInvalidStatus, service.ErrDeviceRequired, service.ErrWrongPassword,
		service.ErrResetTokenInvalid, upload.ErrEmptyFile, upload.ErrNotImage, upload.ErrTooLarge,
	}},
	{http.StatusUnauthorized, []error{
		service.ErrInvalidCredentials, service.ErrInvalidToken, service.ErrExpiredToken,
	}},
	{http.StatusForbidden, []error{service.ErrAccountLocked, service.ErrCannotLockSelf}},
	{http.StatusTooManyRequests, []error{service.ErrResetLimitReached}},
	{http.StatusServiceUnavailable, []error{service.ErrHistoryUnavailable, upload.ErrDisabled}},
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	for _, group := range statusByError {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	var hostErr *upload.HTTPError
	if errors.As(err, &hostErr) {
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": msg}. Unexpected errors are logged and hidden.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		log.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
		msg = "internal server error"
	case http.StatusBadGateway:
		log.Warn("image host rejected upload", zap.Error(err))
		msg = "image upload failed"
	case http.StatusGatewayTimeout:
		msg = "request timed out"
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func pageFromQuery(c *gin.Context, defaultSize int) pagination.Page {
	return pagination.Parse(c.Query("page"), c.Query("page_size"), defaultSize)
}

func pageInfo(p pagination.Page, total int64) dto.Pagination {
	totalPages := pagination.TotalPages(total, p.Size)
	return dto.Pagination{
		Page:       p.Number,
		PageSize:   p.Size,
		Total:      total,
		TotalPages: totalPages,
		Pages:      pagination.Range(p.Number, totalPages),
	}
}

// maxMultipartMemory bounds the form parts kept in memory; larger files spill to disk.
const maxMultipartMemory = 32 << 20

func readPart(fh *multipart.FileHeader, maxSize int64) (upload.File, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return upload.File{}, upload.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return upload.File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxSize > 0 {
		r = io.LimitReader(f, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return upload.File{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return upload.File{Name: fh.Filename, Data: data}, nil
}

// formFile reads an optional single file field; nil when absent.
func formFile(c *gin.Context, field string, maxSize int64) (*upload.File, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := readPart(fh, maxSize)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// formFiles reads every file of a repeated field in the order sent.
func formFiles(c *gin.Context, field string, maxSize int64) ([]upload.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	headers := form.File[field]
	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readPart(fh, maxSize)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
