// Command gatewayd is the composition root: it wires the registry store,
// discovery service, intent engine, rule engine, and pipeline orchestrator
// together and exposes pipeline.Execute over HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"
	"goa.design/clue/log"

	"github.com/toolgateway/gateway/internal/discovery"
	"github.com/toolgateway/gateway/internal/intent"
	"github.com/toolgateway/gateway/internal/pipeline"
	"github.com/toolgateway/gateway/internal/registry"
	registrymongo "github.com/toolgateway/gateway/internal/registry/mongo"
	registrysqlite "github.com/toolgateway/gateway/internal/registry/sqlite"
	"github.com/toolgateway/gateway/internal/rules"
	"github.com/toolgateway/gateway/internal/telemetry"
)

func main() {
	var (
		httpPortF      = flag.String("http-port", "8080", "HTTP port")
		configPathF    = flag.String("config", "servers.json", "Server catalog config path")
		modelPathF     = flag.String("classifier-model", "classifier.gob", "Classifier model persistence path")
		refreshCronF   = flag.String("refresh-cron", "@every 5m", "Discovery background refresh schedule")
		reconnectBackF = flag.Duration("reconnect-backoff", 30*time.Second, "Minimum spacing between reconnect attempts to one server")
		confidenceF    = flag.Float64("confidence-threshold", 0.6, "Default intent confidence threshold")
		registryKindF  = flag.String("registry", "memory", "Registry backend: memory, sqlite, or mongo")
		sqliteDSNF     = flag.String("sqlite-dsn", "gateway.db", "SQLite DSN, used when -registry=sqlite")
		mongoURIF      = flag.String("mongo-uri", "mongodb://localhost:27017", "Mongo connection URI, used when -registry=mongo")
		mongoDBF       = flag.String("mongo-db", "gateway", "Mongo database name, used when -registry=mongo")
		redisAddrF     = flag.String("redis-addr", "", "Redis address for the distributed session rate counter (empty disables it)")
		dbgF           = flag.Bool("debug", false, "Log request and response bodies")
	)
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *dbgF {
		ctx = log.Context(ctx, log.WithDebug())
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := telemetry.NewClueLogger()
	tracer := telemetry.NewClueTracer()

	store, err := openRegistry(ctx, *registryKindF, *sqliteDSNF, *mongoURIF, *mongoDBF)
	if err != nil {
		log.Fatalf(ctx, err, "failed to open registry backend %q", *registryKindF)
	}

	discoverySvc := discovery.NewService(store,
		discovery.WithTelemetry(logger, tracer),
		discovery.WithReconnectBackoff(*reconnectBackF))
	if raw, err := os.ReadFile(*configPathF); err == nil {
		configs, err := discovery.LoadConfig(raw)
		if err != nil {
			log.Fatalf(ctx, err, "invalid server catalog config")
		}
		if err := discoverySvc.Bootstrap(ctx, configs); err != nil {
			log.Fatalf(ctx, err, "failed to bootstrap server catalog")
		}
		if err := discoverySvc.RefreshAll(ctx); err != nil {
			log.Print(ctx, log.KV{K: "warn", V: "initial discovery refresh had failures: " + err.Error()})
		}
	} else {
		log.Print(ctx, log.KV{K: "info", V: "no server catalog config found at " + *configPathF + ", starting with an empty catalog"})
	}
	if err := discoverySvc.StartScheduled(ctx, *refreshCronF); err != nil {
		log.Fatalf(ctx, err, "failed to start scheduled discovery refresh")
	}

	classifier, err := intent.Load(*modelPathF)
	if err != nil {
		log.Print(ctx, log.KV{K: "info", V: "no classifier model found, starting untrained"})
		classifier = nil
	}
	intentEngine := intent.NewEngine(classifier)
	ruleEngine := rules.NewEngine(logger)

	opts := []pipeline.Option{
		pipeline.WithConfidenceThreshold(*confidenceF),
		pipeline.WithTelemetry(logger, tracer),
	}
	if *redisAddrF != "" {
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddrF})
		opts = append(opts, pipeline.WithSessionCounter(rules.NewRedisSessionCounter(rdb, time.Hour)))
	} else {
		opts = append(opts, pipeline.WithSessionCounter(rules.NewMemorySessionCounter()))
	}

	orch := pipeline.NewOrchestrator(store, intentEngine, ruleEngine, opts...)
	defer orch.CloseConnections()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/execute", executeHandler(orch))
	mux.HandleFunc("/healthz", healthHandler)

	srv := &http.Server{
		Addr:              ":" + *httpPortF,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Print(ctx, log.KV{K: "http-port", V: *httpPortF})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf(ctx, err, "gatewayd exited")
	}
}

type executeRequestBody struct {
	Text           string         `json:"text"`
	UserID         string         `json:"user_id"`
	UserRole       string         `json:"user_role"`
	UserPerms      []string       `json:"user_permissions"`
	SessionID      string         `json:"session_id"`
	RequestCount   int            `json:"request_count"`
	Context        map[string]any `json:"context"`
	Overrides      map[string]any `json:"overrides"`
	CallerDefaults map[string]any `json:"caller_defaults"`
}

func executeHandler(orch *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var body executeRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		rec := orch.Execute(r.Context(), pipeline.Request{
			Text:           body.Text,
			UserID:         body.UserID,
			UserRole:       body.UserRole,
			UserPerms:      body.UserPerms,
			SessionID:      body.SessionID,
			RequestCount:   body.RequestCount,
			Context:        body.Context,
			Overrides:      body.Overrides,
			CallerDefaults: body.CallerDefaults,
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rec)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// openRegistry constructs the configured registry.Store backend. "memory"
// needs no setup; "sqlite" opens (and migrates) a local file; "mongo"
// dials a cluster and hands back a database handle.
func openRegistry(ctx context.Context, kind, sqliteDSN, mongoURI, mongoDBName string) (registry.Store, error) {
	switch kind {
	case "memory", "":
		return registry.NewMemoryStore(), nil
	case "sqlite":
		return registrysqlite.New(ctx, sqliteDSN)
	case "mongo":
		// v2 driver: Connect does not block or take a context; Ping below
		// is what actually exercises the connection.
		client, err := mongo.Connect(mongooptions.Client().ApplyURI(mongoURI))
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			return nil, err
		}
		return registrymongo.New(client.Database(mongoDBName)), nil
	default:
		return nil, errUnknownRegistryKind(kind)
	}
}

type errUnknownRegistryKind string

func (e errUnknownRegistryKind) Error() string {
	return "unknown registry backend " + string(e)
}
