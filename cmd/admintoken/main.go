// Command admintoken は管理API用のJWTを発行して標準出力に書き出します。
//
//	go run ./cmd/admintoken -sub ops -ttl 24h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	jwtmw "stock_diagnosis/internal/platform/jwt"
)

func main() {
	sub := flag.String("sub", "ops", "token subject")
	role := flag.String("role", jwtmw.RoleAdmin, "token role")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}
	secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	token, err := jwtmw.NewGenerator(secret, *ttl).GenerateToken(*sub, *role)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
