package app

import (
	"strings"
	"time"

	"github.com/skillforge/skillforge-backend/internal/platform/envutil"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type Config struct {
	HTTPAddr string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	RedisAddr          string
	ContentProviderURL string

	// TunablesPath points at the optional YAML file overriding the
	// analytical defaults.
	TunablesPath string

	CORSOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	accessTokenTTLSeconds := envutil.GetEnvAsInt("ACCESS_TOKEN_TTL", 86400, log)

	var origins []string
	if raw := envutil.GetEnv("CORS_ORIGINS", "", log); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return Config{
		HTTPAddr:           envutil.GetEnv("HTTP_ADDR", ":8080", log),
		JWTSecretKey:       envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:     time.Duration(accessTokenTTLSeconds) * time.Second,
		RedisAddr:          envutil.GetEnv("REDIS_ADDR", "localhost:6379", log),
		ContentProviderURL: envutil.GetEnv("CONTENT_PROVIDER_URL", "http://localhost:9090", log),
		TunablesPath:       envutil.GetEnv("TUNABLES_PATH", "", log),
		CORSOrigins:        origins,
	}
}
