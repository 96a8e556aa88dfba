package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Hosted model access. The same provider serves chat, vision and
	// embeddings. Write-side and query-side embeddings must come from the
	// same model or retrieval silently degrades.
	AIBaseURL    string `mapstructure:"AI_BASE_URL"`
	AIAPIKey     string `mapstructure:"AI_API_KEY"`
	AIChatModel  string `mapstructure:"AI_CHAT_MODEL"`
	AIEmbedModel string `mapstructure:"AI_EMBED_MODEL"`

	VectorURL        string `mapstructure:"VECTOR_URL"`
	VectorAPIKey     string `mapstructure:"VECTOR_API_KEY"`
	VectorCollection string `mapstructure:"VECTOR_COLLECTION"`
	VectorDim        int    `mapstructure:"VECTOR_DIM"`
	RetrievalTopK    int    `mapstructure:"RETRIEVAL_TOP_K"`

	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("AI_CHAT_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_EMBED_MODEL", "text-embedding-3-small")
	v.SetDefault("VECTOR_URL", "http://localhost:6333")
	v.SetDefault("VECTOR_COLLECTION", "clinic-records")
	// text-embedding-3-small dimensionality
	v.SetDefault("VECTOR_DIM", 1536)
	v.SetDefault("RETRIEVAL_TOP_K", 3)
	v.SetDefault("UPLOAD_DIR", "./uploads")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AI_BASE_URL")
	v.BindEnv("AI_API_KEY")
	v.BindEnv("AI_CHAT_MODEL")
	v.BindEnv("AI_EMBED_MODEL")
	v.BindEnv("VECTOR_URL")
	v.BindEnv("VECTOR_API_KEY")
	v.BindEnv("VECTOR_COLLECTION")
	v.BindEnv("VECTOR_DIM")
	v.BindEnv("RETRIEVAL_TOP_K")
	v.BindEnv("UPLOAD_DIR")
	v.BindEnv("AUTH_SIGNING_KEY")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: =========================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Requests without a token are accepted as an admin doctor.")
		log.Println("WARNING: Set ENV=production and AUTH_SIGNING_KEY for production.")
		log.Println("WARNING: =========================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Production refuses
// to start without model credentials and a real token signing key: every
// pipeline in this service depends on the hosted model, and every route
// carries patient data.
func (c *Config) Validate() error {
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", c.RetrievalTopK)
	}
	if c.VectorDim <= 0 {
		return fmt.Errorf("VECTOR_DIM must be positive, got %d", c.VectorDim)
	}
	if c.IsProduction() {
		if c.AIAPIKey == "" {
			return fmt.Errorf("AI_API_KEY is required in production")
		}
		if c.AuthSigningKey == "" {
			return fmt.Errorf("AUTH_SIGNING_KEY is required in production")
		}
		if len(c.AuthSigningKey) < 32 {
			return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
		}
	}
	return nil
}
