// Command ledgerd-token mints a bearer token for a user id, signed with
// the same AUTH_SECRET the server verifies against. Meant for local
// development and operational poking, not as a login service.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ledgerd/internal/auth"
	"ledgerd/internal/config"
)

func main() {
	_ = godotenv.Load()

	user := flag.String("user", "", "user id to mint the token for")
	ttl := flag.Duration("ttl", 0, "token lifetime (default: TOKEN_TTL from the environment)")
	flag.Parse()

	if *user == "" {
		fmt.Fprintln(os.Stderr, "usage: ledgerd-token -user <id> [-ttl 24h]")
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.AuthSecret == "" {
		fmt.Fprintln(os.Stderr, "AUTH_SECRET must be set")
		os.Exit(1)
	}

	lifetime := *ttl
	if lifetime == 0 {
		lifetime = cfg.TokenTTL
	}
	if lifetime < time.Minute {
		fmt.Fprintf(os.Stderr, "ttl %v too short: minimum is 1 minute\n", lifetime)
		os.Exit(1)
	}

	token := auth.NewVerifier(cfg.AuthSecret).Mint(*user, lifetime)
	fmt.Println(token)
}
