package pipeline

import (
	"context"

	"github.com/toolgateway/gateway/internal/mcpclient"
	"github.com/toolgateway/gateway/internal/registry"
	"github.com/toolgateway/gateway/internal/rules"
	"github.com/toolgateway/gateway/internal/transport"
)

// clientFor returns the live client for server, connecting lazily using
// its stored transport configuration if none is cached yet.
func (o *Orchestrator) clientFor(ctx context.Context, server *registry.Server) (*mcpclient.Client, error) {
	o.connMu.Lock()
	if c, ok := o.connections[server.ID]; ok {
		o.connMu.Unlock()
		return c, nil
	}
	o.connMu.Unlock()

	topts := transport.Options{
		Kind:    transport.TransportKind(server.Transport),
		Command: server.Command,
		Args:    server.Args,
		URL:     server.URL,
		Headers: server.Headers,
	}
	client, err := mcpclient.Connect(ctx, topts, mcpclient.Options{ClientName: "tool-gateway"})
	if err != nil {
		return nil, err
	}

	o.connMu.Lock()
	o.connections[server.ID] = client
	o.connMu.Unlock()
	return client, nil
}

// CloseConnections tears down every cached server connection; callers
// invoke this on shutdown.
func (o *Orchestrator) CloseConnections() {
	o.connMu.Lock()
	defer o.connMu.Unlock()
	for id, c := range o.connections {
		_ = c.Close()
		delete(o.connections, id)
	}
}

// buildRuleContext assembles the flat decision context the rule engine
// evaluates: user, intent, tool, execution, session, config groups.
func (o *Orchestrator) buildRuleContext(req Request, rec *Record, requestCount int) rules.Context {
	permSet := make([]any, len(req.UserPerms))
	for i, p := range req.UserPerms {
		permSet[i] = p
	}
	threshold := o.confidenceThresh
	if v, ok := req.Context["confidence_threshold"].(float64); ok {
		threshold = v
	}
	return rules.Context{
		User: map[string]any{
			"id":          req.UserID,
			"role":        req.UserRole,
			"permissions": permSet,
		},
		Intent: map[string]any{
			"name":        rec.intent.Intent,
			"confidence":  rec.intent.Confidence,
			"is_forced":   rec.intent.IsForced,
		},
		Tool: map[string]any{},
		Execution: map[string]any{
			"is_destructive": isDestructiveIntent(rec.intent.Intent),
		},
		Session: map[string]any{
			"id":            req.SessionID,
			"request_count": requestCount,
		},
		Config: map[string]any{
			"confidence_threshold": threshold,
		},
		Custom: req.Context,
	}
}

// destructiveIntents is a conservative allowlist of intent names treated
// as destructive for the rule engine's execution.is_destructive field,
// since the gateway core has no tool-specific knowledge of "destructive"
// beyond intent naming convention.
var destructiveIntents = map[string]bool{
	"delete": true, "remove": true, "destroy": true, "terminate": true,
	"drop": true, "shutdown": true, "kill": true, "reset": true,
}

func isDestructiveIntent(name string) bool {
	return destructiveIntents[name]
}
