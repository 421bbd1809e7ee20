package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2333
	defaultEnv        = "development"

	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "cover_studio"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
	defaultRedisDB   = 0

	defaultMongoURI              = "mongodb://localhost:27017"
	defaultMongoDatabase         = "cover_studio"
	defaultMongoCollection       = "template_documents"
	defaultMongoDocumentID       = "templates"
	defaultMongoLegacyCollection = "templates"

	defaultS3Region    = "us-east-1"
	defaultS3KeyPrefix = "covers"

	defaultUnsplashBaseURL  = "https://api.unsplash.com"
	defaultUnsplashPerPage  = 20
	defaultUnsplashCacheTTL = 600

	defaultProxyMaxBytes       = 20 << 20
	defaultProxyTimeoutSeconds = 20

	defaultCanvasWidth       = 487
	defaultCanvasHeight      = 782
	defaultTemplateThreshold = 10
	defaultBookThreshold     = 15
	defaultBookOffset        = 24
	defaultAutosaveQuietMS   = 2000
	defaultAbandonDragMS     = 5000
)
