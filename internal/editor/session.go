// Package editor wires the snap engine, drag controllers, document model and
// sync layer into the two editing surfaces: the template gallery and a single book.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/config"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/docsync"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/document"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/drag"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/snap"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

type Config struct {
	Frame         snap.Frame
	AutosaveQuiet time.Duration
	AbandonDrag   time.Duration
	Strict        bool
	Logger        *zap.Logger
}

// TemplateConfig is the template gallery surface as configured.
func TemplateConfig(cfg *config.AppConfig) Config {
	return Config{
		Frame:         frameOf(cfg.Editor.TemplateSurface),
		AutosaveQuiet: cfg.AutosaveQuiet(),
		AbandonDrag:   cfg.AbandonDrag(),
	}
}

// BookConfig is the single-book surface as configured.
func BookConfig(cfg *config.AppConfig) Config {
	c := TemplateConfig(cfg)
	c.Frame = frameOf(cfg.Editor.BookSurface)
	return c
}

func frameOf(s config.SurfaceConfig) snap.Frame {
	return snap.Frame{Width: s.Width, Height: s.Height, OffsetX: s.OffsetX, OffsetY: s.OffsetY, Threshold: s.Threshold}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// TemplateSession edits the shared template collection. Saves are explicit.
type TemplateSession struct {
	Model  *document.Model
	Drag   *drag.Set
	Syncer *docsync.Syncer

	unsubscribe func()
}

func NewTemplateSession(remote docsync.Remote, cfg Config) *TemplateSession {
	model := document.New(nil)
	s := &TemplateSession{
		Model: model,
		Drag:  drag.NewSet(cfg.Frame, model, drag.WithAbandonAfter(cfg.AbandonDrag), drag.WithLogger(cfg.logger())),
		Syncer: docsync.NewSyncer(remote, model, docsync.Options{
			Strict: cfg.Strict,
			Logger: cfg.logger().Named("templates"),
		}),
	}
	s.unsubscribe = model.Subscribe(func(ch document.Change) {
		if ch.Kind != document.ChangeUpdate {
			s.Drag.Sync(ch.Current.CoverData)
		}
	})
	return s
}

// Open loads the stored collection; it never fails, falling back to the default template.
func (s *TemplateSession) Open(ctx context.Context) {
	s.Syncer.Hydrate(ctx)
	s.Drag.Sync(s.Model.Current().CoverData)
}

func (s *TemplateSession) Close(context.Context) error {
	s.Drag.CancelAll()
	s.unsubscribe()
	return nil
}

// BookStore is the book record endpoint pair.
type BookStore interface {
	GetBook(ctx context.Context, id string) (models.BookModel, error)
	UpsertBook(ctx context.Context, req models.BookUpsert) (models.BookModel, error)
}

// BookSession edits one book's cover and autosaves it after a quiet period,
// once the title or author differs from its placeholder.
type BookSession struct {
	Model    *document.Model
	Drag     *drag.Set
	Autosave *docsync.Autosaver

	id          string
	store       BookStore
	logger      *zap.Logger
	unsubscribe func()

	mu          sync.Mutex
	front, back string
}

func NewBookSession(store BookStore, bookID string, cfg Config) *BookSession {
	model := document.New(nil)
	s := &BookSession{
		Model:  model,
		Drag:   drag.NewSet(cfg.Frame, model, drag.WithAbandonAfter(cfg.AbandonDrag), drag.WithLogger(cfg.logger())),
		id:     bookID,
		store:  store,
		logger: cfg.logger().Named("book").With(zap.String("book_id", bookID)),
	}
	s.Autosave = docsync.NewAutosaver(cfg.AutosaveQuiet, s.save, s.logger)
	s.unsubscribe = model.Subscribe(func(ch document.Change) {
		if ch.Kind != document.ChangeUpdate {
			s.Drag.Sync(ch.Current.CoverData)
			return
		}
		if docsync.ShouldAutosave(ch.Current.CoverData) {
			s.Autosave.Schedule()
		}
	})
	return s
}

func (s *BookSession) ID() string { return s.id }

// Open loads the stored book. A missing book starts from the default cover.
func (s *BookSession) Open(ctx context.Context) error {
	book, err := s.store.GetBook(ctx, s.id)
	switch {
	case errors.Is(err, docsync.ErrNotFound):
		s.Model.Replace([]models.Template{s.wrap(document.DefaultTemplate(time.Now()).CoverData, "")})
	case err != nil:
		return fmt.Errorf("load book %s: %w", s.id, err)
	default:
		cover := document.DefaultTemplate(time.Now()).CoverData
		if book.CoverData != "" {
			if err := json.Unmarshal([]byte(book.CoverData), &cover); err != nil {
				return fmt.Errorf("decode cover of book %s: %w", s.id, err)
			}
		}
		s.Model.Replace([]models.Template{s.wrap(cover, book.Title)})
		s.setImages(book.FrontImageURL, book.BackImageURL)
	}
	s.Drag.Sync(s.Model.Current().CoverData)
	return nil
}

// UseTemplate starts the book from a template's cover, keeping nothing of the old one.
func (s *BookSession) UseTemplate(t models.Template) {
	cover := t.CoverData.Clone()
	cover.EditTrace = []models.EditEvent{}
	s.Model.Update(func(c *models.CoverData) { *c = cover })
	s.Drag.Sync(cover)
}

// Saving reports whether a save is scheduled or in flight.
func (s *BookSession) Saving() bool { return s.Autosave.Saving() }

// Close cancels any drag, flushes a pending save and stops the timer.
func (s *BookSession) Close(ctx context.Context) error {
	s.Drag.CancelAll()
	s.unsubscribe()
	err := s.Autosave.Flush(ctx)
	s.Autosave.Stop()
	return err
}

func (s *BookSession) wrap(cover models.CoverData, title string) models.Template {
	return models.Template{ID: s.id, Name: title, CoverData: cover}
}

// setImages records the stored render URLs; empty values keep the known ones.
func (s *BookSession) setImages(front, back string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if front != "" {
		s.front = front
	}
	if back != "" {
		s.back = back
	}
}

func (s *BookSession) save(ctx context.Context) error {
	cur := s.Model.Current()
	cur.CoverData.LastEdited = time.Now()
	raw, err := json.Marshal(cur.CoverData)
	if err != nil {
		return fmt.Errorf("encode cover: %w", err)
	}
	s.mu.Lock()
	front, back := s.front, s.back
	s.mu.Unlock()
	book, err := s.store.UpsertBook(ctx, models.BookUpsert{
		ID:            s.id,
		Title:         cur.CoverData.Front.Text.Title.Content,
		Author:        cur.CoverData.Front.Text.AuthorName.Content,
		CoverData:     string(raw),
		FrontImageURL: front,
		BackImageURL:  back,
	})
	if err != nil {
		return &docsync.SaveError{Op: "save book", Err: err}
	}
	s.setImages(book.FrontImageURL, book.BackImageURL)
	s.logger.Debug("book saved")
	return nil
}
