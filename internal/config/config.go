package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at configPath, applies defaults and validates the result.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML content into a normalized AppConfig. Unknown keys are rejected.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	applyRawAppConfig(&cfg, raw)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if _, err := mysql.ParseDSN(c.DSN); err != nil {
		return fmt.Errorf("invalid database dsn: %w", err)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	if !strings.HasPrefix(c.Mongo.URI, "mongodb://") && !strings.HasPrefix(c.Mongo.URI, "mongodb+srv://") {
		return fmt.Errorf("invalid mongo.uri %q, expected mongodb:// or mongodb+srv:// scheme", c.Mongo.URI)
	}
	for name, s := range map[string]SurfaceConfig{
		"editor.template_surface": c.Editor.TemplateSurface,
		"editor.book_surface":     c.Editor.BookSurface,
	} {
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("invalid %s size %vx%v, expected positive", name, s.Width, s.Height)
		}
		if s.Threshold < 0 {
			return fmt.Errorf("invalid %s threshold %v, expected >= 0", name, s.Threshold)
		}
	}
	return nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Mongo: MongoRuntimeConfig{
			URI:              defaultMongoURI,
			Database:         defaultMongoDatabase,
			Collection:       defaultMongoCollection,
			DocumentID:       defaultMongoDocumentID,
			LegacyCollection: defaultMongoLegacyCollection,
		},
		S3: S3RuntimeConfig{
			Region:    defaultS3Region,
			KeyPrefix: defaultS3KeyPrefix,
		},
		Unsplash: UnsplashRuntimeConfig{
			BaseURL:         defaultUnsplashBaseURL,
			PerPage:         defaultUnsplashPerPage,
			CacheTTLSeconds: defaultUnsplashCacheTTL,
		},
		Proxy: ProxyRuntimeConfig{
			MaxBytes:       defaultProxyMaxBytes,
			TimeoutSeconds: defaultProxyTimeoutSeconds,
		},
		Editor: EditorRuntimeConfig{
			TemplateSurface: SurfaceConfig{
				Width:     defaultCanvasWidth,
				Height:    defaultCanvasHeight,
				Threshold: defaultTemplateThreshold,
			},
			BookSurface: SurfaceConfig{
				Width:     defaultCanvasWidth,
				Height:    defaultCanvasHeight,
				OffsetX:   defaultBookOffset,
				OffsetY:   defaultBookOffset,
				Threshold: defaultBookThreshold,
			},
			AutosaveQuietMS: defaultAutosaveQuietMS,
			AbandonDragMS:   defaultAbandonDragMS,
		},
	}
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw.Database)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw.Redis)
	cfg.Mongo = applyRawMongoConfig(cfg.Mongo, raw)
	cfg.S3 = applyRawS3Config(cfg.S3, raw.S3)
	cfg.Unsplash = applyRawUnsplashConfig(cfg.Unsplash, raw)
	if raw.Proxy.MaxBytes > 0 {
		cfg.Proxy.MaxBytes = raw.Proxy.MaxBytes
	}
	if raw.Proxy.TimeoutSeconds > 0 {
		cfg.Proxy.TimeoutSeconds = raw.Proxy.TimeoutSeconds
	}
	cfg.Editor = applyRawEditorConfig(cfg.Editor, raw.Editor)

	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.GoEnv); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}

	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}

	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(raw.JWTIssuer); v != "" {
		cfg.JWTIssuer = v
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(raw.TZ); v != "" {
		cfg.Timezone = v
	}

	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.Redis.URL = v
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Env = normalizeEnv(cfg.Env)
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawDatabaseConfig) DatabaseRuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		cfg.Host = v
	}
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Username); v != "" {
		cfg.User = v
	}
	if raw.Password != "" {
		cfg.Password = raw.Password
	}
	if v := strings.TrimSpace(raw.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.DBName); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Charset); v != "" {
		cfg.Charset = v
	}
	if raw.ParseTime != nil {
		cfg.ParseTime = *raw.ParseTime
	}
	if v := strings.TrimSpace(raw.Loc); v != "" {
		cfg.Loc = v
	}
	if raw.Params != nil {
		cfg.Params = copyStringMap(raw.Params)
	}
	return cfg
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawRedisConfig) RedisRuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		cfg.Host = v
	}
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Username); v != "" {
		cfg.Username = v
	}
	if raw.Password != "" {
		cfg.Password = raw.Password
	}
	if raw.DB != nil {
		cfg.DB = *raw.DB
	}
	if raw.TLS != nil {
		cfg.TLS = *raw.TLS
	}
	return cfg
}

func applyRawMongoConfig(current MongoRuntimeConfig, raw rawAppConfig) MongoRuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.Mongo.URI); v != "" {
		cfg.URI = v
	}
	if v := strings.TrimSpace(raw.MongoURI); v != "" {
		cfg.URI = v
	}
	if v := strings.TrimSpace(raw.Mongo.Database); v != "" {
		cfg.Database = v
	}
	if v := strings.TrimSpace(raw.Mongo.Collection); v != "" {
		cfg.Collection = v
	}
	if v := strings.TrimSpace(raw.Mongo.DocumentID); v != "" {
		cfg.DocumentID = v
	}
	if v := strings.TrimSpace(raw.Mongo.LegacyCollection); v != "" {
		cfg.LegacyCollection = v
	}
	return cfg
}

func applyRawS3Config(current S3RuntimeConfig, raw S3RuntimeConfig) S3RuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.Bucket); v != "" {
		cfg.Bucket = v
	}
	if v := strings.TrimSpace(raw.Region); v != "" {
		cfg.Region = v
	}
	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		cfg.Endpoint = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.AccessKeyID); v != "" {
		cfg.AccessKeyID = v
	}
	if v := strings.TrimSpace(raw.SecretAccessKey); v != "" {
		cfg.SecretAccessKey = v
	}
	if v := strings.TrimSpace(raw.PublicURL); v != "" {
		cfg.PublicURL = strings.TrimRight(v, "/")
	}
	if raw.PathStyle {
		cfg.PathStyle = true
	}
	if v := strings.Trim(strings.TrimSpace(raw.KeyPrefix), "/"); v != "" {
		cfg.KeyPrefix = v
	}
	return cfg
}

func applyRawUnsplashConfig(current UnsplashRuntimeConfig, raw rawAppConfig) UnsplashRuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.Unsplash.AccessKey); v != "" {
		cfg.AccessKey = v
	}
	if v := strings.TrimSpace(raw.UnsplashAccessKey); v != "" {
		cfg.AccessKey = v
	}
	if v := strings.TrimSpace(raw.Unsplash.BaseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if raw.Unsplash.PerPage > 0 {
		cfg.PerPage = raw.Unsplash.PerPage
	}
	if raw.Unsplash.CacheTTLSeconds > 0 {
		cfg.CacheTTLSeconds = raw.Unsplash.CacheTTLSeconds
	}
	return cfg
}

func applyRawEditorConfig(current EditorRuntimeConfig, raw rawEditorConfig) EditorRuntimeConfig {
	cfg := current
	cfg.TemplateSurface = mergeSurface(cfg.TemplateSurface, raw.TemplateSurface)
	cfg.BookSurface = mergeSurface(cfg.BookSurface, raw.BookSurface)
	if raw.AutosaveQuietMS > 0 {
		cfg.AutosaveQuietMS = raw.AutosaveQuietMS
	}
	if raw.AbandonDragMS > 0 {
		cfg.AbandonDragMS = raw.AbandonDragMS
	}
	return cfg
}

func mergeSurface(current, raw SurfaceConfig) SurfaceConfig {
	if raw.Width != 0 {
		current.Width = raw.Width
	}
	if raw.Height != 0 {
		current.Height = raw.Height
	}
	if raw.OffsetX != 0 {
		current.OffsetX = raw.OffsetX
	}
	if raw.OffsetY != 0 {
		current.OffsetY = raw.OffsetY
	}
	if raw.Threshold != 0 {
		current.Threshold = raw.Threshold
	}
	return current
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

// AutosaveQuiet is the inactivity period before a scheduled autosave fires.
func (c *AppConfig) AutosaveQuiet() time.Duration {
	return time.Duration(c.Editor.AutosaveQuietMS) * time.Millisecond
}

// AbandonDrag is how long a drag may go without pointer events before it is cancelled.
func (c *AppConfig) AbandonDrag() time.Duration {
	return time.Duration(c.Editor.AbandonDragMS) * time.Millisecond
}

// S3Enabled reports whether enough S3 settings are present to upload images.
func (c *AppConfig) S3Enabled() bool {
	return c.S3.Bucket != "" && c.S3.AccessKeyID != "" && c.S3.SecretAccessKey != ""
}
