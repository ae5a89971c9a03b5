package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"idregistry/internal/identity/models"
	"idregistry/internal/identity/service"
)

// Config captures everything main needs to wire the registry.
type Config struct {
	Addr string

	// DatabaseURL selects the Postgres credential store; empty keeps the
	// in-memory store.
	DatabaseURL string
	// RedisURL selects the Redis replay ledger; empty keeps the in-process
	// counter.
	RedisURL string
	// KafkaBrokers enables the Kafka event publisher; empty keeps the
	// in-memory recorder.
	KafkaBrokers []string
	EventsTopic  string

	JWTSigningKey string

	// Authority is the only identity allowed to perform restricted
	// operations.
	Authority models.Address
	// AuthorityPublicKey verifies self-mint authorization signatures.
	AuthorityPublicKey ed25519.PublicKey

	// RegistryID and ChainID scope authorization signatures to this
	// deployment.
	RegistryID string
	ChainID    uint64

	MintCost          uint64
	TraitExpiryWindow time.Duration

	// RateLimit caps authenticated requests per caller per window. Zero
	// disables throttling.
	RateLimit       uint64
	RateLimitWindow time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:              getenv("IDREGISTRY_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		EventsTopic:       getenv("EVENTS_TOPIC", "idregistry.events"),
		JWTSigningKey:     getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Authority:         models.Address(getenv("AUTHORITY_ADDRESS", "authority")).Normalize(),
		RegistryID:        getenv("REGISTRY_ID", "idregistry-dev"),
		MintCost:          service.DefaultMintCost,
		TraitExpiryWindow: models.DefaultTraitExpiryWindow,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if raw := os.Getenv("AUTHORITY_PUBLIC_KEY"); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil || len(key) != ed25519.PublicKeySize {
			return Config{}, fmt.Errorf("AUTHORITY_PUBLIC_KEY must be %d hex-encoded bytes", ed25519.PublicKeySize)
		}
		cfg.AuthorityPublicKey = ed25519.PublicKey(key)
	}

	var err error
	if cfg.ChainID, err = envUint("CHAIN_ID", 1); err != nil {
		return Config{}, err
	}
	if cfg.MintCost, err = envUint("MINT_COST", cfg.MintCost); err != nil {
		return Config{}, err
	}
	if raw := os.Getenv("TRAIT_EXPIRY_WINDOW"); raw != "" {
		window, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("TRAIT_EXPIRY_WINDOW: %w", err)
		}
		cfg.TraitExpiryWindow = window
	}

	if cfg.RateLimit, err = envUint("RATE_LIMIT", 600); err != nil {
		return Config{}, err
	}
	cfg.RateLimitWindow = time.Minute
	if raw := os.Getenv("RATE_LIMIT_WINDOW"); raw != "" {
		window, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
		}
		cfg.RateLimitWindow = window
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envUint(key string, fallback uint64) (uint64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}
