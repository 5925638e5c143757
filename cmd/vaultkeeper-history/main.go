package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/rpienaar/vaultkeeper/internal/api"
	"github.com/rpienaar/vaultkeeper/internal/history"
)

func main() {
	dsn := os.Getenv("VAULTKEEPER_POSTGRESDSN")
	if dsn == "" {
		log.Fatal("VAULTKEEPER_POSTGRESDSN required")
	}

	apiKey := os.Getenv("VAULTKEEPER_HISTORY_API_KEY")
	if apiKey == "" {
		log.Fatal("VAULTKEEPER_HISTORY_API_KEY required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	store, err := history.Open(context.Background(), dsn)
	if err != nil {
		log.Fatalf("connecting to postgres: %v", err)
	}
	defer store.Close()

	server := api.NewServer(store, apiKey)

	log.Printf("vaultkeeper-history listening on :%s", port)
	if err := http.ListenAndServe(":"+port, server); err != nil {
		log.Fatal(err)
	}
}
