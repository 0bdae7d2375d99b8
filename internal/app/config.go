package app

import (
	"github.com/tutoriq/tutoriq-backend/internal/platform/envutil"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type Config struct {
	ServerAddr     string
	JWTSecretKey   string
	InternalAPIKey string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServerAddr:     envutil.String("SERVER_ADDR", ":8080"),
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		InternalAPIKey: envutil.String("INTERNAL_API_KEY", ""),
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set, using default secret")
	}
	if cfg.InternalAPIKey == "" {
		log.Warn("INTERNAL_API_KEY not set, internal endpoints will reject all requests")
	}
	return cfg
}
