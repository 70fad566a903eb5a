package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Collections struct {
	Users      string
	Properties string
	Wishlist   string
	Offers     string
	Reviews    string
}

type Config struct {
	Port           string
	RequestTimeout time.Duration

	MongoURI      string
	MongoDatabase string
	Collections   Collections

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	JWTSecret string
	JWTExpiry time.Duration

	StripeSecretKey string
	PaymentCurrency string

	CORSAllowOrigins []string
}

// Load reads .env when present and falls back to the process environment.
// It reports whether a .env file was found so the caller can log it.
func Load() (Config, bool) {
	envLoaded := godotenv.Load() == nil

	return Config{
		Port:           envString("PORT", "8080"),
		RequestTimeout: time.Duration(envInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,

		MongoURI:      envString("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: envString("MONGODB_DATABASE", "estate_market"),
		Collections: Collections{
			Users:      envString("MONGODB_COLLECTION_USER", "users"),
			Properties: envString("MONGODB_COLLECTION_PROPERTIES", "properties"),
			Wishlist:   envString("MONGODB_COLLECTION_WISHLIST", "wishlist"),
			Offers:     envString("MONGODB_COLLECTION_OFFERS", "offers"),
			Reviews:    envString("MONGODB_COLLECTION_REVIEWS", "reviews"),
		},

		RedisAddr:     envString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(envInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTExpiry: time.Duration(envInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		PaymentCurrency: strings.ToLower(envString("PAYMENT_CURRENCY", "usd")),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),
	}, envLoaded
}

func envString(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func envList(name string, fallback []string) []string {
	var values []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
