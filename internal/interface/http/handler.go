package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ben-burie/Stryde/internal/domain/page"
	"github.com/ben-burie/Stryde/internal/domain/upload"
	"github.com/ben-burie/Stryde/internal/infra/config"
	apperrors "github.com/ben-burie/Stryde/pkg/errors"
)

// Handler wires the HTTP transport to live pages.
type Handler struct {
	pages          *page.Registry
	maxUploadBytes int64
	origins        originPolicy
	logger         *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, pages *page.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		pages:          pages,
		maxUploadBytes: cfg.HTTP.MaxUploadBytes,
		origins:        newOriginPolicy(cfg.HTTP.AllowedOrigins),
		logger:         logger.With("component", "http.handler"),
	}
}

type pageResponse struct {
	View  page.View  `json:"view"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Event applies a DOM event to a page and returns the resulting view.
func (h *Handler) Event(c *gin.Context) {
	p, ok := h.lookupPage(c)
	if !ok {
		return
	}

	var ev page.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	err := p.Dispatch(context.WithoutCancel(c.Request.Context()), ev)
	h.respond(c, p, err)
}

// Upload feeds a multipart file into the page's upload pipeline.
func (h *Handler) Upload(c *gin.Context) {
	p, ok := h.lookupPage(c)
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, err := readUpload(c)
	if err != nil {
		if isTooLarge(err) {
			abortWithError(c, NewHTTPError(http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit", err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	// The analytics call is never cancelled by the client going away.
	source := upload.ParseSource(c.PostForm("source"))
	err = p.Upload(context.WithoutCancel(c.Request.Context()), file, source)
	h.respond(c, p, err)
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "livePages": h.pages.Len()})
}

func (h *Handler) lookupPage(c *gin.Context) (*page.Page, bool) {
	p, err := h.pages.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return nil, false
	}
	return p, true
}

func (h *Handler) respond(c *gin.Context, p *page.Page, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, pageResponse{View: p.View()})
	case page.IsUserFacing(err):
		c.JSON(http.StatusOK, pageResponse{
			View:  p.View(),
			Error: &errorBody{Code: apperrors.CodeOf(err), Message: errMessage(err)},
		})
	default:
		abortWithError(c, fromAppError(err))
	}
}

// readUpload returns a zero File when the form carries no file part.
func readUpload(c *gin.Context) (upload.File, error) {
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return upload.File{}, nil
	}
	if err != nil {
		return upload.File{}, err
	}
	f, err := header.Open()
	if err != nil {
		return upload.File{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return upload.File{}, err
	}
	return upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
