package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"server/internal/infra"
	"server/internal/infra/credentials"
)

// sketchkey stores the Gemini API key used by the sketch backends into the
// integration token table, so deployments do not need it in the environment.
func main() {
	_ = godotenv.Load()

	var keyFlag string
	flag.StringVar(&keyFlag, "key", "", "Gemini API key (falls back to GEMINI_API_KEY)")
	flag.Parse()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "Gemini API key is required via -key or GEMINI_API_KEY")
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "sketchkey").Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	execCtx, cancelExec := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExec()
	if err := store.SetGeminiAPIKey(execCtx, key); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist gemini api key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Gemini API key stored successfully")
}
