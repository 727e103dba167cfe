// Command tokengen mints an operator bearer token for the admin API, signed
// with API_SIGNING_KEY.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "fiscaltask/internal/jwt_token"
	"fiscaltask/internal/platform/config"
	"fiscaltask/internal/platform/logger"
	id "fiscaltask/pkg/domain"
)

func main() {
	user := flag.String("user", "", "operator user ID (UUID) recorded as the actor on manual actions")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel, "text")

	token, err := mint(cfg.APISigningKey, *user, *ttl)
	if err != nil {
		log.Error("failed to mint token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func mint(signingKey, user string, ttl time.Duration) (string, error) {
	actor, err := id.ParseUserID(user)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	return jwttoken.NewJWTService(signingKey, jwttoken.Issuer, jwttoken.Audience).GenerateOperatorToken(actor, ttl)
}
