// Command pulsegated is the hosted Pulsegate service.
// It serves the payment webhook endpoint, the account API, the internal
// scan endpoint, and a health check.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/pulsegate/pulsegate/internal/api"
	"github.com/pulsegate/pulsegate/internal/archive"
	"github.com/pulsegate/pulsegate/internal/drafts"
	"github.com/pulsegate/pulsegate/internal/narrative"
	"github.com/pulsegate/pulsegate/internal/platform"
	"github.com/pulsegate/pulsegate/internal/scan"
	"github.com/pulsegate/pulsegate/internal/store"
	"github.com/pulsegate/pulsegate/internal/webhook"
	appconfig "github.com/pulsegate/pulsegate/pkg/config"
)

type config struct {
	Port          string
	DatabaseURL   string
	WebhookSecret string
	APIKey        string

	ScanWorkers       int
	StageFloors       map[int]int
	EscalationContact string

	DraftsURL    string
	DraftsAPIKey string
	NarrativeURL string

	ArchiveBackend string
	ArchiveDir     string
	ArchiveBucket  string
	ArchiveRegion  string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
}

// loadConfig layers the optional YAML config file under the environment:
// the file supplies defaults, environment variables win. The file is found
// via PULSEGATE_CONFIG or by walking up from the working directory.
func loadConfig() config {
	path := os.Getenv("PULSEGATE_CONFIG")
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = appconfig.FindConfigFile(wd)
		}
	}
	file, err := appconfig.Load(path)
	if err != nil {
		log.Fatalf("load config %s: %v", path, err)
	}

	cfg := config{
		Port:          envOrDefault("PORT", "8080"),
		DatabaseURL:   envOrDefault("DATABASE_URL", "postgres://localhost:5432/pulsegate?sslmode=disable"),
		WebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		APIKey:        os.Getenv("API_KEY"),

		ScanWorkers:       file.Scan.Workers,
		StageFloors:       file.Escalation.FloorDays,
		EscalationContact: file.Escalation.Recipient,

		DraftsURL:    envOrDefault("DRAFTS_URL", file.Drafts.BaseURL),
		DraftsAPIKey: envOrDefault("DRAFTS_API_KEY", file.Drafts.APIKey),
		NarrativeURL: os.Getenv("NARRATIVE_URL"),

		ArchiveBackend: envOrDefault("ARCHIVE_BACKEND", file.Archive.Backend),
		ArchiveDir:     envOrDefault("ARCHIVE_DIR", file.Archive.Dir),
		ArchiveBucket:  envOrDefault("ARCHIVE_BUCKET", file.Archive.Bucket),
		ArchiveRegion:  envOrDefault("ARCHIVE_REGION", file.Archive.Region),
		S3Endpoint:     envOrDefault("S3_ENDPOINT", file.Archive.Endpoint),
		S3AccessKey:    envOrDefault("S3_ACCESS_KEY", file.Archive.AccessKey),
		S3SecretKey:    envOrDefault("S3_SECRET_KEY", file.Archive.SecretKey),
	}

	if n, _ := strconv.Atoi(os.Getenv("SCAN_WORKERS")); n > 0 {
		cfg.ScanWorkers = n
	}
	// A file-configured draft endpoint only goes live once dry_run is off;
	// an explicit DRAFTS_URL in the environment always does.
	if os.Getenv("DRAFTS_URL") == "" && file.Drafts.DryRun {
		cfg.DraftsURL = ""
	}
	if cfg.NarrativeURL == "" && file.Narrative.Enabled {
		cfg.NarrativeURL = file.Narrative.BaseURL
	}
	return cfg
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	if err := platform.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	st := store.NewPostgres(db)

	blobs, err := newArchive(ctx, cfg)
	if err != nil {
		log.Fatalf("archive: %v", err)
	}

	var draftClient drafts.Client = drafts.LogClient{}
	if cfg.DraftsURL != "" {
		draftClient = drafts.NewHTTPClient(cfg.DraftsURL, cfg.DraftsAPIKey)
	}

	var narrativeClient narrative.Client
	if cfg.NarrativeURL != "" {
		narrativeClient = narrative.NewHTTPClient(cfg.NarrativeURL)
	}

	scanSvc := scan.NewService(st, draftClient, narrativeClient, blobs)
	scanSvc.SetWorkers(cfg.ScanWorkers)
	scanSvc.SetFloors(cfg.StageFloors)
	scanSvc.SetEscalationContact(cfg.EscalationContact)

	webhookHandler := webhook.NewHandler([]byte(cfg.WebhookSecret), scanSvc)

	// The webhook authenticates by signature and the health check is open;
	// only the account API sits behind the key.
	apiMux := http.NewServeMux()
	api.NewHandler(st, scanSvc).RegisterRoutes(apiMux)

	mux := http.NewServeMux()
	mux.Handle("POST /v1/webhooks/payments", webhookHandler)
	mux.HandleFunc("GET /healthz", healthHandler(db))
	mux.Handle("/", api.APIKeyAuth(cfg.APIKey)(apiMux))

	handler := api.CORS(mux)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("starting pulsegated on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func newArchive(ctx context.Context, cfg config) (archive.Client, error) {
	switch cfg.ArchiveBackend {
	case "s3":
		return archive.NewS3(ctx, archive.S3Config{
			Bucket:    cfg.ArchiveBucket,
			Region:    cfg.ArchiveRegion,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case "gcs":
		return archive.NewGCS(ctx, cfg.ArchiveBucket)
	default:
		return archive.NewLocal(cfg.ArchiveDir), nil
	}
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
