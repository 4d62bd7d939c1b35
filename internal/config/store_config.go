package config

type StoreConfig interface {
	GetRedisURL() string
	GetDatabaseURL() string
}

type Stores struct{}

var _ StoreConfig = Stores{}

// GetRedisURL returns the Redis connection URL for the authorization
// code store. Empty means in-memory.
func (Stores) GetRedisURL() string {
	return GetEnv("REDIS_URL", "")
}

// GetDatabaseURL returns the Postgres connection URL for the client
// repository. Empty means in-memory.
func (Stores) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}
