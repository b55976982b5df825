package app

import (
	"time"

	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
	"github.com/lumenlearn/guidance-backend/internal/utils"
)

type Config struct {
	Environment     string
	Version         string
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// RedisAddr empty means single-instance mode: no bus, hub only.
	RedisAddr    string
	RedisChannel string
}

func (c Config) RedisEnabled() bool { return c.RedisAddr != "" }

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 2592000, log)
	return Config{
		Environment:     utils.GetEnv("APP_ENV", "development", log),
		Version:         utils.GetEnv("APP_VERSION", "dev", log),
		JWTSecretKey:    jwtSecretKey,
		AccessTokenTTL:  time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTokenTTLSeconds) * time.Second,
		RedisAddr:       utils.GetEnv("REDIS_ADDR", "", log),
		RedisChannel:    utils.GetEnv("REDIS_CHANNEL", "sse", log),
	}
}
