package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/jakobkordez/wmm-reborn/internal/common/constants"
)

var (
	ErrMissingRequiredEnv = errors.New("missing required environment variable")
	ErrInvalidJWTSecret   = errors.New("token secrets must be at least 32 bytes")
	ErrSharedJWTSecret    = errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	ErrInvalidBcryptCost  = errors.New("BCRYPT_COST out of range")
)

type AuthConfig struct {
	HTTPPort                string
	DatabaseURL             string
	AccessTokenSecret       string
	RefreshTokenSecret      string
	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	MaxRefreshTokensPerUser int
	BcryptCost              int
	HashWorkers             int
	RequestTimeout          time.Duration
	LogDir                  string
	LogLevel                string
}

// LoadEnvFiles loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func LoadAuthConfig() (AuthConfig, error) {
	accessSecret, err := mustEnv("ACCESS_TOKEN_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}

	refreshSecret, err := mustEnv("REFRESH_TOKEN_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}

	if err := validateJWTSecrets(accessSecret, refreshSecret); err != nil {
		return AuthConfig{}, err
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return AuthConfig{}, err
	}

	bcryptCost := getIntEnv("BCRYPT_COST", constants.DefaultBcryptCost)
	if bcryptCost < 4 || bcryptCost > 31 {
		return AuthConfig{}, fmt.Errorf("%w: got %d", ErrInvalidBcryptCost, bcryptCost)
	}

	return AuthConfig{
		HTTPPort:                getEnv("HTTP_PORT", constants.DefaultHTTPPort),
		DatabaseURL:             databaseURL,
		AccessTokenSecret:       accessSecret,
		RefreshTokenSecret:      refreshSecret,
		AccessTokenTTL:          getDurationEnv("ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL),
		RefreshTokenTTL:         getDurationEnv("REFRESH_TOKEN_TTL", constants.DefaultRefreshTokenTTL),
		MaxRefreshTokensPerUser: getIntEnv("MAX_REFRESH_TOKENS_PER_USER", constants.DefaultMaxRefreshTokensPerUser),
		BcryptCost:              bcryptCost,
		HashWorkers:             getIntEnv("HASH_WORKERS", runtime.GOMAXPROCS(0)),
		RequestTimeout:          getDurationEnv("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		LogDir:                  getEnv("LOG_DIR", ""),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}, nil
}

func validateJWTSecrets(access, refresh string) error {
	if len(access) < constants.JWTSecretMinLength {
		return fmt.Errorf("%w: ACCESS_TOKEN_SECRET got %d bytes", ErrInvalidJWTSecret, len(access))
	}
	if len(refresh) < constants.JWTSecretMinLength {
		return fmt.Errorf("%w: REFRESH_TOKEN_SECRET got %d bytes", ErrInvalidJWTSecret, len(refresh))
	}
	if access == refresh {
		return ErrSharedJWTSecret
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
