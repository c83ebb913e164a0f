// Package pipeline implements the Pipeline Orchestrator: the
// eight-stage execution that turns a natural-language request into a
// validated, executed, and formatted tool call.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toolgateway/gateway/internal/extract"
	"github.com/toolgateway/gateway/internal/intent"
	"github.com/toolgateway/gateway/internal/mcpclient"
	"github.com/toolgateway/gateway/internal/registry"
	"github.com/toolgateway/gateway/internal/rules"
	"github.com/toolgateway/gateway/internal/schemaexec"
	"github.com/toolgateway/gateway/internal/telemetry"
)

// Status is the Execution Record's final state.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusDenied  Status = "denied"
)

// StageID names each of the eight fixed stages, in order.
type StageID string

const (
	StageExtract    StageID = "extract"
	StageClassify   StageID = "classify"
	StageRules      StageID = "evaluate_rules"
	StageSelectTool StageID = "select_tool"
	StageBuildParam StageID = "build_parameters"
	StageValidate   StageID = "validate"
	StageExecute    StageID = "execute"
	StageFormat     StageID = "format"
)

// stageOrder is the fixed 8-tuple every Execution Record's StageResults is
// a prefix of.
var stageOrder = []StageID{
	StageExtract, StageClassify, StageRules, StageSelectTool,
	StageBuildParam, StageValidate, StageExecute, StageFormat,
}

// StageResult is one stage's diagnostic record.
type StageResult struct {
	Stage    StageID
	Success  bool
	Duration time.Duration
	Error    string
}

// Request is the pipeline's external input.
type Request struct {
	Text           string
	UserID         string
	UserRole       string
	UserPerms      []string
	SessionID      string
	RequestCount   int
	Context        map[string]any
	Overrides      map[string]any
	CallerDefaults map[string]any
}

// Record is the Execution Record.
type Record struct {
	RequestID      string
	Status         Status
	StageResults   []StageResult
	StartedAt      time.Time
	CompletedAt    time.Time
	DurationMS     int64
	ToolName       string
	Parameters     map[string]any
	Result         string
	ErrorMessage   string
	FailedStage    StageID
	DeniedRule     string
	DeniedReason   string

	extraction extract.Result
	intent     intent.Result
	ruleResult rules.Result
}

// Orchestrator composes every pipeline component and implements
// Execute, the single entry point the HTTP API layer drives.
type Orchestrator struct {
	store              registry.Store
	intentEngine       *intent.Engine
	ruleEngine         *rules.Engine
	confidenceThresh   float64
	sessionCounter     rules.SessionCounter
	log                telemetry.Logger
	tracer             telemetry.Tracer

	connMu      sync.Mutex
	connections map[string]*mcpclient.Client
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfidenceThreshold sets the default config.confidence_threshold
// value injected into the rule context when the request does not override
// it.
func WithConfidenceThreshold(v float64) Option {
	return func(o *Orchestrator) { o.confidenceThresh = v }
}

// WithSessionCounter wires the distributed counter that feeds
// session.request_count into the rule context. Without one, the
// Orchestrator trusts the caller-supplied Request.RequestCount as-is.
func WithSessionCounter(c rules.SessionCounter) Option {
	return func(o *Orchestrator) { o.sessionCounter = c }
}

// WithTelemetry wires a non-default logger/tracer.
func WithTelemetry(log telemetry.Logger, tracer telemetry.Tracer) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// NewOrchestrator wires the registry, intent engine, and rule engine into
// a ready-to-run pipeline.
func NewOrchestrator(store registry.Store, intentEngine *intent.Engine, ruleEngine *rules.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:            store,
		intentEngine:     intentEngine,
		ruleEngine:       ruleEngine,
		confidenceThresh: 0.6,
		log:              telemetry.NoopLogger{},
		tracer:           telemetry.NoopTracer{},
		connections:      map[string]*mcpclient.Client{},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = telemetry.WithComponent(o.log, "pipeline")
	return o
}

// Execute runs the eight stages in strict order. Any stage failure
// or rule deny terminates the run; later stages never execute.
func (o *Orchestrator) Execute(ctx context.Context, req Request) *Record {
	ctx, span := o.tracer.Start(ctx, "pipeline.execute")
	defer span.End()

	rec := &Record{RequestID: uuid.NewString(), Status: StatusRunning, StartedAt: time.Now().UTC()}
	defer func() {
		rec.CompletedAt = time.Now().UTC()
		rec.DurationMS = rec.CompletedAt.Sub(rec.StartedAt).Milliseconds()
		o.log.Info(ctx, "pipeline execution finished",
			"request_id", rec.RequestID, "status", string(rec.Status), "duration_ms", rec.DurationMS)
	}()

	// Stage 1: extract.
	if !o.runStage(rec, StageExtract, func() error {
		rec.extraction = extract.Extract(req.Text)
		if rec.extraction.Empty {
			return fmt.Errorf("input text is empty")
		}
		return nil
	}) {
		return o.fail(rec, StageExtract)
	}

	// Stage 2: classify.
	if !o.runStage(rec, StageClassify, func() error {
		overrides, err := o.store.GetForcedOverrides(ctx)
		if err != nil {
			return err
		}
		rec.intent = o.intentEngine.Classify(ctx, rec.extraction.Normalized, overrides)
		return nil
	}) {
		return o.fail(rec, StageClassify)
	}

	// Stage 3: evaluate rules.
	var deny bool
	if !o.runStage(rec, StageRules, func() error {
		ruleset, err := o.store.GetRules(ctx, "")
		if err != nil {
			return err
		}
		requestCount := req.RequestCount
		if o.sessionCounter != nil && req.SessionID != "" {
			if n, err := o.sessionCounter.Increment(ctx, req.SessionID); err == nil {
				requestCount = int(n)
			} else {
				o.log.Warn(ctx, "session counter increment failed, falling back to caller-supplied count", "error", err.Error())
			}
		}
		flat := o.buildRuleContext(req, rec, requestCount).Flatten()
		rec.ruleResult = o.ruleEngine.Evaluate(ctx, ruleset, flat)
		if rec.ruleResult.Decision == registry.DecisionDeny {
			deny = true
		}
		return nil
	}) {
		return o.fail(rec, StageRules)
	}
	if deny {
		rec.Status = StatusDenied
		rec.DeniedRule = rec.ruleResult.Reason
		rec.DeniedReason = rec.ruleResult.Reason
		rec.ErrorMessage = fmt.Sprintf("denied by rule %q", rec.ruleResult.Reason)
		return rec
	}

	// Stage 4: select tool.
	var tool *registry.Tool
	var server *registry.Server
	if !o.runStage(rec, StageSelectTool, func() error {
		matched, err := o.store.FindToolByIntent(ctx, rec.intent.Intent)
		if err != nil {
			return fmt.Errorf("No tool found for intent: %s", rec.intent.Intent)
		}
		t, s, err := o.store.GetToolWithServer(ctx, matched.Name)
		if err != nil {
			return fmt.Errorf("No tool found for intent: %s", rec.intent.Intent)
		}
		tool, server = t, s
		rec.ToolName = tool.Name
		return nil
	}) {
		return o.fail(rec, StageSelectTool)
	}

	// Stage 5: build parameters.
	var build *schemaexec.BuildResult
	if !o.runStage(rec, StageBuildParam, func() error {
		schema, err := schemaexec.ParseSchemaMap(tool.InputSchema)
		if err != nil {
			return err
		}
		rawSchema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return err
		}
		build, err = schemaexec.Assemble(schemaexec.BuildInput{
			Schema:         schema,
			RawSchema:      rawSchema,
			Entities:       rec.extraction.Entities,
			Tokens:         rec.extraction.Tokens,
			NounPhrases:    rec.extraction.NounPhrases,
			NormalizedText: rec.extraction.Normalized,
			Overrides:      req.Overrides,
			CallerDefaults: mergeDefaults(req.CallerDefaults, req.Context),
		})
		if err != nil {
			return err
		}
		rec.Parameters = build.Parameters
		if !build.Valid {
			return fmt.Errorf("parameter build failed: missing=%v errors=%v", build.Missing, build.ValidationErrors)
		}
		return nil
	}) {
		return o.fail(rec, StageBuildParam)
	}

	// Stage 6: validate (belt-and-braces re-validation).
	if !o.runStage(rec, StageValidate, func() error {
		rawSchema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return err
		}
		verrs, err := schemaexec.ValidateAgainstSchema(rawSchema, build.Parameters)
		if err != nil {
			return err
		}
		if len(verrs) > 0 {
			return fmt.Errorf("schema validation failed: %v", verrs)
		}
		return nil
	}) {
		return o.fail(rec, StageValidate)
	}

	// Stage 7: execute.
	var callResult mcpclient.CallResult
	if !o.runStage(rec, StageExecute, func() error {
		client, err := o.clientFor(ctx, server)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(build.Parameters)
		if err != nil {
			return err
		}
		callResult, err = client.CallTool(ctx, tool.Name, payload)
		return err
	}) {
		return o.fail(rec, StageExecute)
	}

	// Stage 8: format. Formatting errors never fail the stage.
	o.runStage(rec, StageFormat, func() error {
		rec.Result = formatResult(callResult)
		return nil
	})

	rec.Status = StatusSuccess
	return rec
}

func (o *Orchestrator) fail(rec *Record, failed StageID) *Record {
	rec.Status = StatusFailed
	rec.FailedStage = failed
	for _, sr := range rec.StageResults {
		if sr.Stage == failed {
			rec.ErrorMessage = sr.Error
		}
	}
	return rec
}

// runStage times fn, appends its StageResult, and recovers a panic into a
// failed stage result rather than letting it escape the pipeline.
func (o *Orchestrator) runStage(rec *Record, stage StageID, fn func() error) (ok bool) {
	start := time.Now()
	var stageErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				stageErr = fmt.Errorf("panic in stage %s: %v", stage, r)
			}
		}()
		stageErr = fn()
	}()
	sr := StageResult{Stage: stage, Duration: time.Since(start), Success: stageErr == nil}
	if stageErr != nil {
		sr.Error = stageErr.Error()
	}
	rec.StageResults = append(rec.StageResults, sr)
	return stageErr == nil
}

func mergeDefaults(callerDefaults, context map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range context {
		out[k] = v
	}
	for k, v := range callerDefaults {
		out[k] = v
	}
	return out
}

// formatResult implements stage 8 on the payload mcpclient produced: a
// JSON string is returned unquoted and any other JSON is returned as its
// raw text. mcpclient keeps only the first content block of a tools/call
// response, so further blocks are not concatenated here, and a result
// whose first block carries no text (an image block, for example) fails in
// mcpclient before this stage instead of being replaced by a placeholder.
func formatResult(cr mcpclient.CallResult) string {
	if len(cr.Result) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(cr.Result, &asString); err == nil {
		return asString
	}
	return string(cr.Result)
}
