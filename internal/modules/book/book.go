// Package book stores the cover of one externally identified book.
package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/modules/image"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/response"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("book not found")
)

// Store persists book records.
type Store interface {
	Get(ctx context.Context, id string) (*models.BookModel, error)
	Upsert(ctx context.Context, b *models.BookModel) error
}

type gormStore struct{ db *gorm.DB }

func NewGormStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) Get(ctx context.Context, id string) (*models.BookModel, error) {
	var b models.BookModel
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// Upsert inserts or updates by id. Empty image URLs never overwrite stored ones.
func (s *gormStore) Upsert(ctx context.Context, b *models.BookModel) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns(b)),
	}).Create(b).Error
}

func upsertColumns(b *models.BookModel) []string {
	cols := []string{"title", "author", "cover_data", "updated_at", "deleted_at"}
	if b.FrontImageURL != "" {
		cols = append(cols, "front_image_url")
	}
	if b.BackImageURL != "" {
		cols = append(cols, "back_image_url")
	}
	return cols
}

// RenderUploader stores a rendered cover image and returns its URL. *image.Service satisfies it.
type RenderUploader interface {
	Upload(ctx context.Context, data, filename string) (string, error)
}

type Service struct {
	store    Store
	uploader RenderUploader
	logger   *zap.Logger
}

func NewService(store Store, uploader RenderUploader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, uploader: uploader, logger: logger}
}

func (s *Service) Get(ctx context.Context, id string) (*models.BookModel, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b, nil
}

// Upsert validates the cover, uploads any renders concurrently and then writes
// the record. A failed upload leaves the record untouched. Image URLs that are
// neither given nor rendered keep their stored values.
func (s *Service) Upsert(ctx context.Context, in models.BookUpsert) (*models.BookModel, error) {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	var cover models.CoverData
	if err := json.Unmarshal([]byte(in.CoverData), &cover); err != nil {
		return nil, fmt.Errorf("%w: coverData is not valid JSON: %v", ErrValidation, err)
	}
	if err := cover.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	front, back := in.FrontImageURL, in.BackImageURL
	if in.FrontRender != "" || in.BackRender != "" {
		if s.uploader == nil {
			return nil, image.ErrNotConfigured
		}
		g, gctx := errgroup.WithContext(ctx)
		if in.FrontRender != "" {
			g.Go(func() (err error) {
				front, err = s.uploader.Upload(gctx, in.FrontRender, in.ID+"-front")
				return err
			})
		}
		if in.BackRender != "" {
			g.Go(func() (err error) {
				back, err = s.uploader.Upload(gctx, in.BackRender, in.ID+"-back")
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("upload renders: %w", err)
		}
	}

	if front == "" || back == "" {
		prev, err := s.store.Get(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			if front == "" {
				front = prev.FrontImageURL
			}
			if back == "" {
				back = prev.BackImageURL
			}
		}
	}

	b := &models.BookModel{
		Base:          models.Base{ID: in.ID},
		Title:         in.Title,
		Author:        in.Author,
		CoverData:     in.CoverData,
		FrontImageURL: front,
		BackImageURL:  back,
	}
	if err := s.store.Upsert(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("book saved", zap.String("id", b.ID))
	return s.Get(ctx, b.ID)
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/books", authMW)
	g.GET("/:id", h.get)
	g.POST("", h.upsert)
}

func (h *Handler) get(c *gin.Context) {
	b, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, b)
}

func (h *Handler) upsert(c *gin.Context) {
	var dto models.BookUpsert
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.svc.Upsert(c.Request.Context(), dto)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, b)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, image.ErrInvalidImage):
		response.BadRequest(c, err.Error())
	case errors.Is(err, image.ErrNotConfigured):
		response.ServiceUnavailable(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, err.Error())
	default:
		h.svc.logger.Error("book request failed", zap.Error(err))
		response.InternalError(c, err)
	}
}
