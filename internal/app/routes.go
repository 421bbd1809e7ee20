package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/config"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/middleware"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/modules/book"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/modules/image"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/modules/preview"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/modules/templates"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/jwt"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/response"
)

const (
	apiPrefix = "/api/v1"

	searchLimit = 60
	proxyLimit  = 120
	limitWindow = time.Minute
)

// EditorConfig is what the editor needs before it can lay out a canvas.
type EditorConfig struct {
	TemplateSurface config.SurfaceConfig `json:"templateSurface"`
	BookSurface     config.SurfaceConfig `json:"bookSurface"`
	AutosaveQuietMS int                  `json:"autosaveQuietMs"`
	AbandonDragMS   int                  `json:"abandonDragMs"`
	Fonts           []string             `json:"fonts"`
}

func editorConfigHandler(cfg *config.AppConfig) gin.HandlerFunc {
	body := EditorConfig{
		TemplateSurface: cfg.Editor.TemplateSurface,
		BookSurface:     cfg.Editor.BookSurface,
		AutosaveQuietMS: cfg.Editor.AutosaveQuietMS,
		AbandonDragMS:   cfg.Editor.AbandonDragMS,
		Fonts:           append([]string(nil), models.Fonts...),
	}
	return func(c *gin.Context) {
		response.OK(c, body)
	}
}

func (a *App) registerRoutes() {
	r := a.router
	cfg := a.cfg
	log := a.logger

	verifier := jwt.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	authMW := middleware.Auth(verifier)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": "cover-studio", "api": apiPrefix})
	})

	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth(verifier))

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": humanizeDuration(time.Since(processStart)),
		})
	})
	api.GET("/editor/config", editorConfigHandler(cfg))

	// Templates
	templates.NewHandler(a.templates).RegisterRoutes(api, authMW)
	preview.NewHandler(a.templates, preview.NewRenderer(
		cfg.Editor.TemplateSurface.Width,
		cfg.Editor.TemplateSurface.Height,
	)).RegisterRoutes(api, authMW)

	// Images
	var uploader image.Uploader
	if cfg.S3Enabled() {
		uploader = image.NewS3Uploader(cfg.S3)
	} else {
		log.Warn("s3 is not configured, image uploads are disabled")
	}
	searcher := image.NewSearcher(cfg.Unsplash, a.rc, log.Named("unsplash"))
	if !searcher.Enabled() {
		log.Warn("unsplash access key is empty, image search is disabled")
	}
	imageSvc := image.NewService(
		uploader,
		cfg.S3.KeyPrefix,
		searcher,
		image.NewProxy(cfg.Proxy, false),
		log.Named("image"),
	)
	imageHandler := image.NewHandler(imageSvc,
		middleware.RateLimit(a.rc, "image-search", searchLimit, limitWindow, log))
	imageHandler.RegisterRoutes(api, authMW)
	imageHandler.RegisterProxy(r.Group("",
		middleware.RateLimit(a.rc, "image-proxy", proxyLimit, limitWindow, log)))

	// Books
	bookSvc := book.NewService(book.NewGormStore(a.db), imageSvc, log.Named("book"))
	book.NewHandler(bookSvc).RegisterRoutes(api, authMW)
}
