package config

import (
	"time"
)

type OAuthConfig interface {
	GetAuthCodeTimeout() time.Duration
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetJWTSecret() string
	GetJWTIssuer() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetAuthCodeTimeout() time.Duration {
	return durationEnv("AUTH_CODE_TIMEOUT", 15*time.Minute)
}

func (OAuth) GetAccessTokenExpiry() time.Duration {
	return durationEnv("ACCESS_TOKEN_EXPIRY", 1*time.Hour)
}

func (OAuth) GetRefreshTokenExpiry() time.Duration {
	return durationEnv("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)
}

// GetJWTSecret returns the HMAC signing secret. Empty means opaque
// tokens are minted instead of JWTs.
func (OAuth) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "")
}

func (OAuth) GetJWTIssuer() string {
	return GetEnv("JWT_ISSUER", "go-oauth2-provider")
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}
