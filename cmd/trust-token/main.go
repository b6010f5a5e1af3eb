package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/config"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/admin"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/database"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/token"
)

// Dev tool for local testing: mints bearer tokens against the configured
// JWT secret. Service tokens need no database; admin tokens ensure the
// account exists first.
func main() {
	kind := flag.String("kind", "service", "token kind: service or admin")
	serviceName := flag.String("service", "booking-service", "calling service name (service tokens)")
	scopes := flag.String("scopes", strings.Join([]string{token.ScopeTrustRead, token.ScopeTrustWrite}, ","), "comma-separated scopes (service tokens)")
	email := flag.String("email", "trust-admin@avalo.local", "admin email (admin tokens)")
	name := flag.String("name", "Trust Admin", "admin display name (admin tokens)")
	pwd := flag.String("password", "admin123", "password used when the account is created (admin tokens)")
	role := flag.String("role", string(admin.RoleSuperAdmin), "admin role (admin tokens)")
	flag.Parse()

	cfg := config.Load()

	switch *kind {
	case "service":
		svc := token.NewService(cfg.JWTSecret, cfg.ServiceTokenTTL)
		t, err := svc.GenerateServiceToken(*serviceName, strings.Split(*scopes, ","))
		if err != nil {
			log.Fatalf("Failed to generate service token: %v", err)
		}
		fmt.Printf("Service: %s\nScopes:  %s\n\n%s\n", *serviceName, *scopes, t)

	case "admin":
		db, err := database.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.ClosePostgres(db)

		adminSvc := admin.NewService(admin.NewRepository(db))
		account, err := adminSvc.EnsureAdmin(context.Background(), *email, *name, *pwd, admin.Role(*role))
		if err != nil {
			log.Fatalf("Failed to ensure admin account: %v", err)
		}

		jwtSvc := admin.NewJWTService(cfg.JWTSecret, cfg.AdminTokenTTL)
		t, err := jwtSvc.GenerateToken(account)
		if err != nil {
			log.Fatalf("Failed to generate admin token: %v", err)
		}
		fmt.Printf("Admin: %s (%s, role %s)\n\n%s\n", account.Email, account.ID, account.Role, t)

	default:
		log.Fatalf("Unknown token kind %q (want service or admin)", *kind)
	}
}
