package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// Mints a merchant session token for local API testing. Claims mirror what
// the auth middleware expects: sub, instagram_page_id and tier.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Define command line flags
	merchantID := flag.String("merchant", "", "Merchant ID for the token")
	pageID := flag.String("page", "", "Instagram page ID for the token")
	tier := flag.String("tier", "starter", "Subscription tier claim")
	expirationHours := flag.Int("exp", 24, "Token expiration in hours")
	flag.Parse()

	if *merchantID == "" {
		log.Fatal("Merchant ID is required")
	}

	if *pageID == "" {
		log.Fatal("Instagram page ID is required")
	}

	// Create claims
	claims := jwt.MapClaims{
		"sub":               *merchantID,
		"instagram_page_id": *pageID,
		"tier":              *tier,
		"exp":               time.Now().Add(time.Duration(*expirationHours) * time.Hour).Unix(),
		"iat":               time.Now().Unix(),
	}

	// Create token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Get JWT secret from environment
	jwtSecret := []byte(getEnvOrDefault("JWT_SECRET_KEY", "ig-shop-agent-v2-session"))

	// Sign the token
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		log.Fatalf("Error signing token: %v", err)
	}

	fmt.Printf("Generated session token:\n%s\n", tokenString)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
