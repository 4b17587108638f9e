// mintctl mints a bearer token for a subject id, for local development and
// smoke testing against a running API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"clipcast/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	sub := flag.String("sub", "", "subject id to embed in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *sub == "" {
		fmt.Fprintln(os.Stderr, "usage: mintctl -sub <subject-id> [-ttl 24h]")
		os.Exit(2)
	}
	secret := os.Getenv("AUTH_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "AUTH_SECRET is required")
		os.Exit(1)
	}

	token, err := middleware.SignToken(secret, *sub, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
