package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mansoorceksport/tripdesk/internal/config"
	"github.com/mansoorceksport/tripdesk/internal/service"
)

// Issues an admin token for cron jobs and scripts that call /v1/admin.
func main() {
	subject := flag.String("subject", "", "Token subject, e.g. the script name (required)")
	email := flag.String("email", "", "Optional email recorded in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Println("Usage: admin_token -subject <NAME> [-email <EMAIL>] [-ttl 24h]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.AdminJWTSecret == "" {
		log.Fatal("ADMIN_JWT_SECRET is not set")
	}

	token, err := service.NewAdminTokenService(cfg.Auth.AdminJWTSecret).Issue(*subject, *email, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
