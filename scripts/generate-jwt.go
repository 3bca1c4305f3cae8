//go:build ignore

// Prints a Supabase-style access token for calling the larder API locally.
//
//	SUPABASE_JWT_SECRET=secret SUPABASE_URL=https://xyz.supabase.co go run scripts/generate-jwt.go -sub my-user -ttl 2h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	sub := flag.String("sub", "test-user-id", "user id placed in the sub claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("SUPABASE_JWT_SECRET")
	supabaseURL := os.Getenv("SUPABASE_URL")
	if secret == "" || supabaseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: SUPABASE_JWT_SECRET and SUPABASE_URL must be set (environment or .env)")
		flag.Usage()
		os.Exit(1)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  *sub,
		"role": "authenticated",
		"aud":  "authenticated",
		"iat":  now.Unix(),
		"exp":  now.Add(*ttl).Unix(),
		"iss":  supabaseURL + "/auth/v1",
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(tokenString)
}
