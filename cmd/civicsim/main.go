// civicsim serves the multi-agent civic-reaction simulator's HTTP API and
// owns its background job goroutines: load .env, initialize configuration,
// connect to storage, build services bottom-up, then start the router.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/civicsim/orchestrator/pkg/adopter"
	"github.com/civicsim/orchestrator/pkg/api"
	"github.com/civicsim/orchestrator/pkg/cache"
	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/directmessenger"
	"github.com/civicsim/orchestrator/pkg/interpreter"
	"github.com/civicsim/orchestrator/pkg/jobstore"
	"github.com/civicsim/orchestrator/pkg/ledger"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/moderator"
	"github.com/civicsim/orchestrator/pkg/orchestrator"
	"github.com/civicsim/orchestrator/pkg/overrides"
	"github.com/civicsim/orchestrator/pkg/reactor"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/civicsim/orchestrator/pkg/storage/postgres"
	"github.com/civicsim/orchestrator/pkg/upstream"
	"github.com/civicsim/orchestrator/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	flag.Parse()

	envPath := getEnv("ENV_FILE", *configDir+"/.env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	httpPort := getEnv("HTTP_PORT", "8080")

	log := slog.With("component", "main")
	log.Info("starting civicsim", "version", version.Full(), "config_dir", *configDir, "http_port", httpPort)

	ctx := context.Background()

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		log.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	httpUpstream := upstream.NewHTTPClient(getEnv("UPSTREAM_BASE_URL", "http://localhost:9000"), &http.Client{})
	var upstreamClient upstream.Client = upstream.NewRetryingClient(httpUpstream, 30*time.Second)
	if sidecarAddr := os.Getenv("UPSTREAM_SIDECAR_ADDR"); sidecarAddr != "" {
		checker, err := upstream.NewSidecarHealthChecker(sidecarAddr)
		if err != nil {
			log.Warn("failed to connect to upstream sidecar health check", "error", err)
		} else {
			defer checker.Close()
			if err := checker.Check(ctx); err != nil {
				log.Warn("upstream sidecar reports unhealthy at startup", "error", err)
			}
		}
	}

	var fingerprintCache *cache.Cache
	var simLedger *ledger.Ledger
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		pgClient, err := postgres.NewClient(ctx, postgres.Config{
			DSN:             dsn,
			MaxConns:        10,
			MaxConnLifetime: time.Hour,
		})
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()

		fingerprintCache, err = cache.New(postgres.NewFingerprintRepo(pgClient), cfg.System.Cache.MaxEntries)
		if err != nil {
			log.Error("failed to build fingerprint cache", "error", err)
			os.Exit(1)
		}
		simLedger = ledger.New(postgres.NewLedgerRepo(pgClient), cfg.System.Ledger.Enabled)
	} else {
		log.Warn("POSTGRES_DSN not set, running without a durable fingerprint cache or ledger")
		fingerprintCache, err = cache.New(noopBackend{}, cfg.System.Cache.MaxEntries)
		if err != nil {
			log.Error("failed to build in-memory-only fingerprint cache", "error", err)
			os.Exit(1)
		}
		simLedger = ledger.New(nil, false)
	}

	var etcdEndpoints []string
	if raw := os.Getenv("ETCD_ENDPOINTS"); raw != "" {
		etcdEndpoints = strings.Split(raw, ",")
	}
	jobs := jobstore.Open(ctx, etcdEndpoints, cfg.System.Jobs.TTL)
	defer jobs.Close()

	sessions := session.NewStore()
	overrideStore := overrides.New()

	interp := interpreter.New(upstreamClient, cfg.Zones, cfg.Models)
	react := reactor.New(upstreamClient, cfg.Agents, cfg.Zones, cfg.Models)
	mod := moderator.New(upstreamClient, cfg.Models)
	dm := directmessenger.New(upstreamClient, cfg.Agents, cfg.Models, simLedger)
	adopt := adopter.New(upstreamClient, cfg.Models.Default(), cfg.Models.ProviderFor(cfg.Models.Default()), simLedger)

	orch := orchestrator.New(orchestrator.Deps{
		Interpreter: interp,
		Reactor:     react,
		Moderator:   mod,
		Adopter:     adopt,
		Zones:       cfg.Zones,
		Agents:      cfg.Agents,
		Models:      cfg.Models,
		Cache:       fingerprintCache,
		Ledger:      simLedger,
		Jobs:        jobs,
	})

	server := api.NewServer(api.Deps{
		Orchestrator: orch,
		Messenger:    dm,
		Adopter:      adopt,
		Sessions:     sessions,
		Jobs:         jobs,
		Cache:        fingerprintCache,
		Overrides:    overrideStore,
		Zones:        cfg.Zones,
		Agents:       cfg.Agents,
		Models:       cfg.Models,
	})

	go func() {
		log.Info("http server listening", "port", httpPort)
		if err := server.Start(":" + httpPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// noopBackend is the cache.Backend used when no Postgres DSN is
// configured: every lookup misses, every write is dropped. The in-memory
// LRU front that cache.Cache already wraps still makes duplicate
// simulate_sync calls within the process cheap; only cross-restart
// durability is lost.
type noopBackend struct{}

func (noopBackend) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	return nil, postgres.ErrNotFound
}
func (noopBackend) Upsert(ctx context.Context, entry models.CacheEntry) error { return nil }
func (noopBackend) InvalidateScenario(ctx context.Context, scenarioID string) error { return nil }
