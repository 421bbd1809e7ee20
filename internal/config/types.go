package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"` // MySQL DSN for book records
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Mongo          MongoRuntimeConfig    `yaml:"mongo"`
	S3             S3RuntimeConfig       `yaml:"s3"`
	Unsplash       UnsplashRuntimeConfig `yaml:"unsplash"`
	Proxy          ProxyRuntimeConfig    `yaml:"image_proxy"`
	Editor         EditorRuntimeConfig   `yaml:"editor"`
	Env            string                `yaml:"env"` // "development" | "production"
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	JWTIssuer      string                `yaml:"jwt_issuer"`
	Timezone       string                `yaml:"timezone"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

// MongoRuntimeConfig points at the template document store.
type MongoRuntimeConfig struct {
	URI              string `yaml:"uri"`
	Database         string `yaml:"database"`
	Collection       string `yaml:"collection"`
	DocumentID       string `yaml:"document_id"`
	LegacyCollection string `yaml:"legacy_collection"`
}

type S3RuntimeConfig struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicURL       string `yaml:"public_url"`
	PathStyle       bool   `yaml:"path_style"`
	KeyPrefix       string `yaml:"key_prefix"`
}

type UnsplashRuntimeConfig struct {
	AccessKey       string `yaml:"access_key"`
	BaseURL         string `yaml:"base_url"`
	PerPage         int    `yaml:"per_page"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type ProxyRuntimeConfig struct {
	MaxBytes       int64 `yaml:"max_bytes"`
	TimeoutSeconds int   `yaml:"timeout_seconds"`
}

// SurfaceConfig describes one drag surface: its canvas frame and snap threshold.
type SurfaceConfig struct {
	Width     float64 `yaml:"width"     json:"width"`
	Height    float64 `yaml:"height"    json:"height"`
	OffsetX   float64 `yaml:"offset_x"  json:"offsetX"`
	OffsetY   float64 `yaml:"offset_y"  json:"offsetY"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

type EditorRuntimeConfig struct {
	TemplateSurface SurfaceConfig `yaml:"template_surface"`
	BookSurface     SurfaceConfig `yaml:"book_surface"`
	AutosaveQuietMS int           `yaml:"autosave_quiet_ms"`
	AbandonDragMS   int           `yaml:"abandon_drag_ms"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawAppConfig struct {
	Port               int                   `yaml:"port"`
	DSN                string                `yaml:"dsn"`
	RedisURL           string                `yaml:"redis_url"`
	Database           rawDatabaseConfig     `yaml:"database"`
	Redis              rawRedisConfig        `yaml:"redis"`
	Mongo              MongoRuntimeConfig    `yaml:"mongo"`
	MongoURI           string                `yaml:"mongo_uri"`
	S3                 S3RuntimeConfig       `yaml:"s3"`
	Unsplash           UnsplashRuntimeConfig `yaml:"unsplash"`
	UnsplashAccessKey  string                `yaml:"unsplash_access_key"`
	Proxy              ProxyRuntimeConfig    `yaml:"image_proxy"`
	Editor             rawEditorConfig       `yaml:"editor"`
	Env                string                `yaml:"env"`
	GoEnv              string                `yaml:"go_env"`
	Paths              RuntimePathsConfig    `yaml:"paths"`
	LogDir             string                `yaml:"log_dir"`
	AllowedOrigins     []string              `yaml:"allowed_origins"`
	CORSAllowedOrigins []string              `yaml:"cors_allowed_origins"`
	JWTSecret          string                `yaml:"jwt_secret"`
	JWTIssuer          string                `yaml:"jwt_issuer"`
	Timezone           string                `yaml:"timezone"`
	TZ                 string                `yaml:"tz"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawEditorConfig struct {
	TemplateSurface SurfaceConfig `yaml:"template_surface"`
	BookSurface     SurfaceConfig `yaml:"book_surface"`
	AutosaveQuietMS int           `yaml:"autosave_quiet_ms"`
	AbandonDragMS   int           `yaml:"abandon_drag_ms"`
}
