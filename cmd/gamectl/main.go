package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/brrock/gamex/pkg/logger"
	"github.com/brrock/gamex/pkg/signature"
	"github.com/brrock/gamex/pkg/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  gamectl create -pg <uri> -name <game name>   register a game and print its credentials
  gamectl sign -secret <secret> -body <json>   compute the auth headers for a payload
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "create":
		runCreate(os.Args[2:])
	case "sign":
		runSign(os.Args[2:])
	default:
		usage()
	}
}

func runCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	pgURI := fs.String("pg", os.Getenv("POSTGRES_URI"), "PostgreSQL URI")
	name := fs.String("name", "", "Game display name")
	fs.Parse(args)

	if *pgURI == "" || *name == "" {
		log.Fatal("create requires -pg and -name")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	l, err := logger.New(logger.Config{Level: "warn", ServiceName: "gamectl"})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	pgStore, err := store.NewPostgresStore(ctx, store.PostgresConfig{
		URI:      *pgURI,
		MinConns: 1,
		MaxConns: 2,
	}, l)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pgStore.Close()

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		log.Fatalf("failed to generate secret: %v", err)
	}

	game := store.Game{
		ID:     uuid.NewString(),
		Name:   *name,
		Secret: hex.EncodeToString(secretBytes),
	}

	if err := pgStore.CreateGame(ctx, game); err != nil {
		log.Fatalf("failed to create game: %v", err)
	}

	fmt.Printf("game registered\n  id:     %s\n  name:   %s\n  secret: %s\n", game.ID, game.Name, game.Secret)
	fmt.Println("store the secret now; it is not shown again")
}

func runSign(args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	secret := fs.String("secret", "", "Game secret")
	body := fs.String("body", "", "Raw request body to sign")
	fs.Parse(args)

	if *secret == "" {
		log.Fatal("sign requires -secret")
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	sig := signature.Compute(*secret, []byte(*body), timestamp)

	fmt.Printf("X-Timestamp: %s\nX-Signature: %s\n", timestamp, sig)
}
