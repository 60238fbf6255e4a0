package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/V4T54L/waste-watch/internal/adapter/repository/mongo"
	"github.com/V4T54L/waste-watch/internal/adapter/repository/postgres"
	"github.com/V4T54L/waste-watch/internal/domain"
	"github.com/V4T54L/waste-watch/internal/pkg/config"
	"github.com/V4T54L/waste-watch/internal/pkg/logger"

	_ "github.com/lib/pq"
)

// referenceTypes are the waste types the mobile app reports. Each key is its
// own display code.
var referenceTypes = []domain.ReferenceTypeEntry{
	{Key: "00001", DisplayCode: "00001", DisplayName: "Organic Waste"},
	{Key: "00002", DisplayCode: "00002", DisplayName: "Recyclable Waste"},
	{Key: "00003", DisplayCode: "00003", DisplayName: "General Waste"},
	{Key: "00004", DisplayCode: "00004", DisplayName: "Hazardous Waste"},
	{Key: "00005", DisplayCode: "00005", DisplayName: "Recycled"},
	{Key: "00006", DisplayCode: "00006", DisplayName: "Incinerated"},
	{Key: "00007", DisplayCode: "00007", DisplayName: "Landfilled"},
}

func main() {
	adminList := flag.String("admins", "", "Comma-separated emails to put on the admin allowlist")
	skipReference := flag.Bool("skip-reference", false, "Do not upsert the waste type reference documents")
	flag.Parse()

	cfg, err := config.LoadStore()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Getenv("LOG_LEVEL"), nil)
	log.Info("starting seed")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := mongo.Connect(ctx, cfg.MongoURI, log)
	if err != nil {
		log.Error("failed to connect to mongo", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDB)

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		log.Warn("could not ensure mongo indexes", "error", err)
	}

	if !*skipReference {
		refs := mongo.NewReferenceRepository(db)
		for _, e := range referenceTypes {
			if err := refs.Upsert(ctx, e); err != nil {
				log.Error("failed to upsert waste type", "key", e.Key, "error", err)
				os.Exit(1)
			}
		}
		log.Info("waste types seeded", "count", len(referenceTypes))
	}

	var admins domain.AdminRepository = mongo.NewAdminRepository(db)
	if cfg.AdminSource == config.AdminSourcePostgres {
		pg, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres connection", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		pgAdmins := postgres.NewAdminRepository(pg, log, 0, nil)
		if err := pgAdmins.EnsureSchema(ctx); err != nil {
			log.Error("failed to prepare admin allowlist table", "error", err)
			os.Exit(1)
		}
		admins = pgAdmins
	}

	added := 0
	for _, email := range strings.Split(*adminList, ",") {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		if err := admins.Add(ctx, email); err != nil {
			log.Error("failed to add admin", "email", email, "error", err)
			os.Exit(1)
		}
		added++
	}
	log.Info("seed finished", "admins_added", added, "admin_source", cfg.AdminSource)
}
