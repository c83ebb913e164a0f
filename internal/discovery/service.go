package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/toolgateway/gateway/internal/mcpclient"
	"github.com/toolgateway/gateway/internal/registry"
	"github.com/toolgateway/gateway/internal/telemetry"
	"github.com/toolgateway/gateway/internal/transport"
)

// Service discovers tool-protocol servers, connects to each, and keeps the
// registry's tool catalog current.
type Service struct {
	store   registry.Store
	log     telemetry.Logger
	tracer  telemetry.Tracer
	timeout time.Duration
	backoff *reconnectLimiter

	cronSched *cron.Cron
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds how long a single server's connect+tools/list is
// allowed to take during a refresh.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithReconnectBackoff bounds how often a single server's RefreshServer
// may attempt a fresh connection; d is the minimum spacing between
// attempts for any one server.
func WithReconnectBackoff(d time.Duration) Option {
	return func(s *Service) { s.backoff = newReconnectLimiter(d) }
}

// WithTelemetry wires a non-default logger/tracer.
func WithTelemetry(log telemetry.Logger, tracer telemetry.Tracer) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewService constructs a Service backed by store.
func NewService(store registry.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		log:     telemetry.NoopLogger{},
		tracer:  telemetry.NoopTracer{},
		timeout: 30 * time.Second,
		backoff: newReconnectLimiter(30 * time.Second),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = telemetry.WithComponent(s.log, "discovery")
	return s
}

// Bootstrap registers every ServerConfig in the registry (discovery then
// fills their catalogs in via RefreshServer).
func (s *Service) Bootstrap(ctx context.Context, configs []ServerConfig) error {
	for _, cfg := range configs {
		if err := s.store.UpsertServer(ctx, cfg.toRegistryServer()); err != nil {
			return fmt.Errorf("discovery: register server %q: %w", cfg.Name, err)
		}
	}
	return nil
}

// RefreshServer connects to one server, fetches its tool list, and
// replaces the registry's catalog for that server atomically.
func (s *Service) RefreshServer(ctx context.Context, serverID string) error {
	ctx, span := s.tracer.Start(ctx, "discovery.refresh_server")
	defer span.End()

	server, err := s.store.GetServer(ctx, serverID)
	if err != nil {
		return err
	}
	if !server.Enabled {
		return nil
	}
	if !s.backoff.Allow(serverID) {
		s.log.Debug(ctx, "discovery: reconnect attempt throttled", "server", serverID)
		return nil
	}

	if err := s.store.SetServerStatus(ctx, serverID, registry.StatusDiscovering, ""); err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	client, err := connectClient(connectCtx, server)
	if err != nil {
		_ = s.store.SetServerStatus(ctx, serverID, registry.StatusError, err.Error())
		return fmt.Errorf("discovery: connect %q: %w", serverID, err)
	}
	defer client.Close()

	descriptors, err := client.ListTools(connectCtx)
	if err != nil {
		_ = s.store.SetServerStatus(ctx, serverID, registry.StatusError, err.Error())
		return fmt.Errorf("discovery: list tools %q: %w", serverID, err)
	}

	refresh := func(ctx context.Context, tx registry.Store) error {
		if _, err := tx.DeleteToolsForServer(ctx, serverID); err != nil {
			return err
		}
		for _, d := range descriptors {
			tool := &registry.Tool{
				ServerID:       serverID,
				Name:           d.Name,
				Description:    d.Description,
				InputSchema:    d.InputSchema,
				Enabled:        true,
				IntentPatterns: derivePatterns(d.Name),
			}
			if err := tx.UpsertTool(ctx, tool); err != nil {
				return err
			}
		}
		return nil
	}
	if begin, ok := s.store.(registry.Begin); ok {
		if err := begin.WithTx(ctx, refresh); err != nil {
			_ = s.store.SetServerStatus(ctx, serverID, registry.StatusError, err.Error())
			return err
		}
	} else if err := refresh(ctx, s.store); err != nil {
		_ = s.store.SetServerStatus(ctx, serverID, registry.StatusError, err.Error())
		return err
	}

	s.log.Info(ctx, "discovery: refreshed server catalog",
		"server", serverID, "tool_count", len(descriptors))
	return s.store.SetServerStatus(ctx, serverID, registry.StatusActive, "")
}

// RefreshAll refreshes every enabled server, logging but not aborting on a
// per-server failure so one broken server doesn't block the rest.
func (s *Service) RefreshAll(ctx context.Context) error {
	servers, err := s.store.ListServers(ctx, true)
	if err != nil {
		return err
	}
	var firstErr error
	for _, server := range servers {
		if err := s.RefreshServer(ctx, server.ID); err != nil {
			s.log.Error(ctx, "discovery: refresh failed", "error", err.Error(), "server", server.ID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// StartScheduled runs RefreshAll on the given cron spec until ctx is
// canceled.
func (s *Service) StartScheduled(ctx context.Context, spec string) error {
	s.cronSched = cron.New()
	_, err := s.cronSched.AddFunc(spec, func() {
		if err := s.RefreshAll(ctx); err != nil {
			s.log.Error(ctx, "discovery: scheduled refresh failed", "error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("discovery: invalid cron spec %q: %w", spec, err)
	}
	s.cronSched.Start()
	go func() {
		<-ctx.Done()
		s.cronSched.Stop()
	}()
	return nil
}

func connectClient(ctx context.Context, server *registry.Server) (*mcpclient.Client, error) {
	topts := transport.Options{
		Kind:    transport.TransportKind(server.Transport),
		Command: server.Command,
		Args:    server.Args,
		URL:     server.URL,
		Headers: server.Headers,
	}
	return mcpclient.Connect(ctx, topts, mcpclient.Options{ClientName: "tool-gateway"})
}

// derivePatterns builds the deterministic intent-pattern set for a
// discovered tool from its name alone: the name as-is, the same with
// `_`<->`-` swapped, the same with all separators removed, and — when the
// name has two or more segments (split on `_`, `-` or `.`) — those segments
// reversed and rejoined with `_`. A tool named "file_read" is then
// reachable through FindToolByIntent via the intent "read_file".
func derivePatterns(name string) []string {
	patterns := []string{name, swapSeparators(name), removeSeparators(name)}

	segments := strings.FieldsFunc(name, isSeparator)
	if len(segments) >= 2 {
		reversed := make([]string, len(segments))
		for i, seg := range segments {
			reversed[len(segments)-1-i] = seg
		}
		patterns = append(patterns, strings.Join(reversed, "_"))
	}
	return dedupeStrings(patterns)
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.'
}

func swapSeparators(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_':
			return '-'
		case '-':
			return '_'
		default:
			return r
		}
	}, name)
}

func removeSeparators(name string) string {
	return strings.Map(func(r rune) rune {
		if isSeparator(r) {
			return -1
		}
		return r
	}, name)
}

func dedupeStrings(in []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
