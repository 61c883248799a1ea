package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Admin guard for status updates (both optional)
	AdminTokenHash string
	JWTSecret      string

	// Server
	LogLevel        string
	SentryDSN       string
	AppEnv          string
	Port            string
	CORSOrigins     string
	RateLimitPerMin int

	// Analytics month boundaries are computed in this zone
	AnalyticsTZ string

	// Algorand
	AlgodServer     string
	AlgodToken      string
	AppID           uint64
	AlgodWaitRounds uint64

	// Submitter wallet (cmd/reporter only)
	ReporterMnemonic string

	// Evidence (Pinata / IPFS)
	PinataAPIKey    string
	PinataSecretKey string
	PinataAPIURL    string
	IPFSGatewayURL  string
	UploadTimeout   time.Duration

	// Backend base URL used by cmd/reporter
	APIBaseURL string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "trustchain"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "3001"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
		RateLimitPerMin: parseInt(getEnv("RATE_LIMIT_PER_MIN", "100"), 100),

		AnalyticsTZ: getEnv("ANALYTICS_TZ", "UTC"),

		AlgodServer:     getEnv("ALGOD_SERVER", "https://testnet-api.algonode.cloud"),
		AlgodToken:      getEnv("ALGOD_TOKEN", ""),
		AppID:           parseUint(getEnv("ALGORAND_APP_ID", "748001402"), 0),
		AlgodWaitRounds: parseUint(getEnv("ALGOD_WAIT_ROUNDS", "4"), 4),

		ReporterMnemonic: getEnv("REPORTER_MNEMONIC", ""),

		PinataAPIKey:    getEnv("PINATA_API_KEY", ""),
		PinataSecretKey: getEnv("PINATA_SECRET_KEY", ""),
		PinataAPIURL:    getEnv("PINATA_API_URL", "https://api.pinata.cloud"),
		IPFSGatewayURL:  getEnv("IPFS_GATEWAY_URL", "https://gateway.pinata.cloud"),
		UploadTimeout:   parseDuration(getEnv("UPLOAD_TIMEOUT", "60s")),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:3001"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// Location resolves AnalyticsTZ, falling back to UTC for unknown zones.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AnalyticsTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AdminGuardEnabled reports whether status updates require credentials.
func (c *Config) AdminGuardEnabled() bool {
	return c.AdminTokenHash != "" || c.JWTSecret != ""
}

// EvidenceEnabled reports whether Pinata credentials are configured.
func (c *Config) EvidenceEnabled() bool {
	return c.PinataAPIKey != "" && c.PinataSecretKey != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseUint(s string, fallback uint64) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
