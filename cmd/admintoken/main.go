// Package main prints an operator bearer token for the admin API.
//
// Usage:
//
//	JWT_SECRET=... admintoken -operator alice -ttl 8h
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/bolingo/onboarding-bot/internal/core/service"
	"github.com/bolingo/onboarding-bot/pkg/logger"
)

type tokenConfig struct {
	JWTSecret string `env:"JWT_SECRET, required"`
}

func main() {
	operator := flag.String("operator", "", "operator name recorded in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	log := logger.Init(logger.Options{Pretty: true, Output: os.Stderr, Service: "admintoken"})

	if *operator == "" {
		log.Fatal().Msg("-operator is required")
	}

	var cfg tokenConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	token, err := service.NewAdminTokenIssuer(cfg.JWTSecret, *ttl).Issue(*operator)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to issue token")
	}

	log.Info().Str("operator", *operator).Dur("ttl", *ttl).Msg("token issued")
	fmt.Println(token)
}
