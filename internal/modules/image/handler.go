// Package image serves photo search, image upload and the cross-origin image proxy.
package image

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/response"
)

type UploadDTO struct {
	Data     string `json:"data"     binding:"required"`
	Filename string `json:"filename"`
}

// Service groups the image backends. Nil backends answer 503.
type Service struct {
	uploader  Uploader
	keyPrefix string
	searcher  *Searcher
	proxy     *Proxy
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(uploader Uploader, keyPrefix string, searcher *Searcher, proxy *Proxy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		uploader:  uploader,
		keyPrefix: keyPrefix,
		searcher:  searcher,
		proxy:     proxy,
		logger:    logger,
		now:       time.Now,
	}
}

// Upload decodes data and stores it, returning the public URL.
func (s *Service) Upload(ctx context.Context, data, filename string) (string, error) {
	if s.uploader == nil {
		return "", ErrNotConfigured
	}
	img, err := Decode(data)
	if err != nil {
		return "", err
	}
	key := ObjectKey(s.keyPrefix, filename, img.Ext, img.Body, s.now())
	url, err := s.uploader.Upload(ctx, key, img.Body, img.ContentType)
	if err != nil {
		return "", err
	}
	s.logger.Info("image uploaded", zap.String("key", key), zap.Int("bytes", len(img.Body)))
	return url, nil
}

type Handler struct {
	svc     *Service
	limitMW gin.HandlerFunc
}

// NewHandler wires the routes; limitMW throttles the anonymous-facing endpoints.
func NewHandler(svc *Service, limitMW gin.HandlerFunc) *Handler {
	if limitMW == nil {
		limitMW = func(c *gin.Context) { c.Next() }
	}
	return &Handler{svc: svc, limitMW: limitMW}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/images")
	g.GET("/search", h.limitMW, h.search)
	g.POST("/upload", authMW, h.upload)
}

// RegisterProxy mounts the proxy outside the API prefix.
func (h *Handler) RegisterProxy(r gin.IRouter) {
	r.GET("/image-proxy", h.limitMW, h.proxyImage)
}

func (h *Handler) search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		response.BadRequest(c, "query is required")
		return
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			response.BadRequest(c, "page must be a positive integer")
			return
		}
		page = p
	}

	res, err := h.svc.searcher.Search(c.Request.Context(), query, page)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, res)
}

func (h *Handler) upload(c *gin.Context) {
	var dto UploadDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	url, err := h.svc.Upload(c.Request.Context(), dto.Data, dto.Filename)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, gin.H{"url": url})
}

func (h *Handler) proxyImage(c *gin.Context) {
	if h.svc.proxy == nil {
		response.ServiceUnavailable(c, ErrNotConfigured.Error())
		return
	}
	target, err := ParseTarget(c.Query("url"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	img, err := h.svc.proxy.Fetch(c.Request.Context(), target)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, img.ContentType, img.Body)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		response.ServiceUnavailable(c, err.Error())
	case errors.Is(err, ErrInvalidImage):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrTooLarge):
		response.PayloadTooLarge(c, err.Error())
	case errors.Is(err, ErrBlockedTarget):
		response.Forbidden(c)
	default:
		h.svc.logger.Warn("image upstream failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.BadGateway(c, err.Error())
	}
}
