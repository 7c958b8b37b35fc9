package app

import (
	"github.com/voltastudio/volta-backend/internal/platform/envutil"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

type Config struct {
	JWTSecretKey string
	HTTPAddr     string

	SweeperEnabled bool
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		HTTPAddr:       envutil.String("HTTP_ADDR", ":8080"),
		SweeperEnabled: envutil.Bool("SWEEPER_ENABLED", true),
	}
	if cfg.JWTSecretKey == "defaultsecret" && log != nil {
		log.Warn("JWT_SECRET_KEY not set; using insecure default")
	}
	return cfg
}
