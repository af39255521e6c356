package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverLevelDB = "leveldb"
	DriverMongo   = "mongo"
)

type Config struct {
	Port     string
	LogLevel string

	StoreDriver     string
	LevelDBPath     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins      []string
	SimulatedLatency time.Duration
	ShareScheme      string
	TextbeltAPIKey   string
}

// Load reads an optional .env file, then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	foundEnv := godotenv.Load() == nil

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverLevelDB)
	v.SetDefault("LEVELDB_PATH", "data/medivault")
	v.SetDefault("MONGO_DATABASE", "medivault")
	v.SetDefault("MONGO_COLLECTION", "kv")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("SIMULATED_LATENCY", "0s")
	v.SetDefault("SHARE_SCHEME", "medivault")

	cfg := &Config{
		Port:             v.GetString("API_PORT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		StoreDriver:      strings.ToLower(v.GetString("STORE_DRIVER")),
		LevelDBPath:      v.GetString("LEVELDB_PATH"),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDatabase:    v.GetString("MONGO_DATABASE"),
		MongoCollection:  v.GetString("MONGO_COLLECTION"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           v.GetDuration("JWT_TTL"),
		CORSOrigins:      splitList(v.GetString("CORS_ORIGINS")),
		SimulatedLatency: v.GetDuration("SIMULATED_LATENCY"),
		ShareScheme:      v.GetString("SHARE_SCHEME"),
		TextbeltAPIKey:   v.GetString("TEXTBELT_API_KEY"),
	}
	return cfg, foundEnv, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is not set")
	}
	switch c.StoreDriver {
	case DriverLevelDB:
		if c.LevelDBPath == "" {
			return errors.New("config: LEVELDB_PATH is empty")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI is required for the mongo driver")
		}
	default:
		return errors.New("config: STORE_DRIVER must be leveldb or mongo")
	}
	if c.JWTTTL <= 0 {
		return errors.New("config: JWT_TTL must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
