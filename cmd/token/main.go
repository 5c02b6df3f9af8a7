// Command token prints a staff access token signed with JWT_SECRET, for
// calling the API from scripts and during development.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/utils"
)

func main() {
	subject := flag.String("sub", "admin", "subject recorded as the reservation creator")
	role := flag.String("role", middleware.RoleAdmin, "ADMIN, MANAGER or RECEPTIONIST")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	tok, err := utils.NewAccessToken(cfg.JWTSecret, *subject, *role, *ttl)
	if err != nil {
		log.Fatalf("token: %v", err)
	}
	fmt.Println(tok.Token)
}
