package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr         string
	DBDSN            string
	JWTIssuer        string
	JWTSecret        string
	JWTTTL           time.Duration
	WebSocketOrigin  string
	QuoteBaseURL     string
	QuoteTTL         time.Duration
	RedisAddr        string
	StartingCash     string
	Commission       string
	GameDurationDays int
}

func Load() (Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		missing = append(missing, "JWT_TTL")
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, err
		}
		c.JWTTTL = d
	}
	c.QuoteBaseURL = os.Getenv("QUOTE_BASE_URL")
	if c.QuoteBaseURL == "" {
		missing = append(missing, "QUOTE_BASE_URL")
	}
	quoteTTL := os.Getenv("QUOTE_TTL")
	if quoteTTL == "" {
		c.QuoteTTL = 30 * time.Second
	} else {
		d, err := time.ParseDuration(quoteTTL)
		if err != nil {
			return c, err
		}
		c.QuoteTTL = d
	}
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	if c.WebSocketOrigin == "" {
		c.WebSocketOrigin = "*"
	}
	c.RedisAddr = os.Getenv("REDIS_ADDR")
	c.StartingCash = os.Getenv("STARTING_CASH")
	if c.StartingCash == "" {
		c.StartingCash = "100000.00"
	}
	c.Commission = os.Getenv("COMMISSION")
	if c.Commission == "" {
		c.Commission = "9.99"
	}
	duration := strings.TrimSpace(os.Getenv("GAME_DURATION_DAYS"))
	if duration == "" {
		c.GameDurationDays = 30
	} else {
		n, err := strconv.Atoi(duration)
		if err != nil || n <= 0 {
			return c, errors.New("invalid GAME_DURATION_DAYS")
		}
		c.GameDurationDays = n
	}
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}
