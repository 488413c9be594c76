package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for tests.
var loadDotEnv = func() error { return godotenv.Load() }

// parseEnv overlays values from environment variables. A .env file in the
// working directory is loaded first when present; variables already set in the
// process environment win over it.
//
//	HTTP_ADDR, GRPC_ADDR, DATABASE_DSN, JWT_SECRET, JWT_REFRESH_SECRET,
//	ACCESS_TOKEN_TTL, REFRESH_TOKEN_TTL (Go durations), APP_ENV, LOG_LEVEL,
//	LIVE_DELIVERY, REQUIRE_SOCKET_TOKEN (booleans),
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT, S3_PUBLIC_URL
func parseEnv(config *Config) {
	_ = loadDotEnv()

	envString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	envString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.AccessTokenSecret, "JWT_SECRET")
	envString(&config.RefreshTokenSecret, "JWT_REFRESH_SECRET")
	envString(&config.Environment, "APP_ENV")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.S3PublicURL, "S3_PUBLIC_URL")

	envDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	envDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	envBool(&config.LiveDelivery, "LIVE_DELIVERY")
	envBool(&config.RequireSocketToken, "REQUIRE_SOCKET_TOKEN")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// envDuration panics on an unparsable value, like a malformed JSON file.
func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func envBool(dst *bool, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(err)
	}
	*dst = b
}
