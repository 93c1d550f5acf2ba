// Package engine drives the two phases of a database test. Prepare
// resolves and applies preparation fixtures before the code under test
// runs; Verify snapshots the database afterwards and compares it against
// the expected fixtures. Both phases follow the same pipeline: scenario
// resolution, convention-based directory lookup, parsing, then execution
// or comparison.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/seijikohara/db-tester-sub006/internal/metrics"
	"github.com/seijikohara/db-tester-sub006/pkg/compare"
	"github.com/seijikohara/db-tester-sub006/pkg/convention"
	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
	"github.com/seijikohara/db-tester-sub006/pkg/dbaccess"
	"github.com/seijikohara/db-tester-sub006/pkg/delimited"
	"github.com/seijikohara/db-tester-sub006/pkg/operation"
	"github.com/seijikohara/db-tester-sub006/pkg/ordering"
	"github.com/seijikohara/db-tester-sub006/pkg/scenario"
)

// Phase names used in reports.
const (
	PhasePrepare = "prepare"
	PhaseVerify  = "verify"
)

// Report summarizes one engine phase for logging and adapter reporting.
type Report struct {
	// Run is the token correlating this invocation's logs and results.
	Run string `json:"run"`

	// Phase is PhasePrepare or PhaseVerify.
	Phase string `json:"phase"`

	// Class and Method identify the test.
	Class  string `json:"class"`
	Method string `json:"method,omitempty"`

	// Scenario is the resolved scenario name, empty for shared fixtures.
	Scenario string `json:"scenario,omitempty"`

	// Dir is the fixture directory used, empty when none resolved.
	Dir string `json:"dir,omitempty"`

	// Tables and Rows count the fixture content involved.
	Tables []string `json:"tables,omitempty"`
	Rows   int      `json:"rows"`

	// Duration is the wall time of the phase.
	Duration time.Duration `json:"duration_ns"`
}

// Engine wires scenario resolution, fixture parsing, table ordering,
// operation execution, and comparison against one connection registry.
type Engine struct {
	config     *Config
	conns      *dbaccess.Registry
	scenarios  *scenario.Registry
	resolver   *convention.Resolver
	comparator *compare.Comparator
	metrics    metrics.Recorder
	logger     *slog.Logger
	tokens     TokenGenerator

	format    delimited.Format
	defaultOp operation.Operation
	strategy  ordering.Strategy
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger sets the engine logger. Nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithTokens sets the run token generator.
func WithTokens(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// WithScenarios sets the scenario resolver registry.
func WithScenarios(r *scenario.Registry) Option {
	return func(e *Engine) { e.scenarios = r }
}

// WithComparator replaces the comparator built from the configuration,
// so callers can register custom per-column comparers.
func WithComparator(c *compare.Comparator) Option {
	return func(e *Engine) { e.comparator = c }
}

// New builds an Engine from a configuration and an open connection
// registry. A nil config uses DefaultConfig.
func New(cfg *Config, conns *dbaccess.Registry, opts ...Option) (*Engine, error) {
	if conns == nil {
		return nil, errors.New("connection registry is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		clone := *cfg
		cfg = &clone
	}
	cfg.applyDefaults()

	format, err := delimited.FormatNamed(cfg.Format)
	if err != nil {
		return nil, err
	}
	op, err := operation.Parse(cfg.Operation)
	if err != nil {
		return nil, err
	}
	strategy, err := ordering.ParseStrategy(cfg.Ordering)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:     cfg,
		conns:      conns,
		scenarios:  scenario.NewRegistry(),
		resolver:   &convention.Resolver{Root: cfg.Fixtures, Exclusions: cfg.SkipTables},
		comparator: cfg.Comparator(),
		metrics:    metrics.Nop(),
		logger:     slog.New(slog.DiscardHandler),
		tokens:     UUIDv7Generator{},
		format:     format,
		defaultOp:  op,
		strategy:   strategy,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.metrics == nil {
		e.metrics = metrics.Nop()
	}
	if e.scenarios == nil {
		e.scenarios = scenario.NewRegistry()
	}
	if e.tokens == nil {
		e.tokens = UUIDv7Generator{}
	}
	return e, nil
}

// RunOption adjusts one Prepare or Verify invocation.
type RunOption func(*runConfig)

type runConfig struct {
	connection  string
	op          operation.Operation
	opSet       bool
	strategy    ordering.Strategy
	strategySet bool
	scenario    string
	scenarioSet bool
}

// WithConnection runs against the named connection instead of the
// default one.
func WithConnection(name string) RunOption {
	return func(rc *runConfig) { rc.connection = name }
}

// WithOperation overrides the configured preparation operation.
func WithOperation(op operation.Operation) RunOption {
	return func(rc *runConfig) { rc.op = op; rc.opSet = true }
}

// WithOrdering overrides the configured ordering strategy.
func WithOrdering(s ordering.Strategy) RunOption {
	return func(rc *runConfig) { rc.strategy = s; rc.strategySet = true }
}

// WithScenario forces the scenario name, bypassing the resolver
// registry.
func WithScenario(name string) RunOption {
	return func(rc *runConfig) { rc.scenario = name; rc.scenarioSet = true }
}

func newRunConfig(opts []RunOption) *runConfig {
	rc := &runConfig{}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Prepare applies the preparation fixtures for a test. A test with no
// fixture directory is a successful no-op.
func (e *Engine) Prepare(ctx context.Context, id convention.TestID, opts ...RunOption) (*Report, error) {
	rc := newRunConfig(opts)
	start := time.Now()
	rep := &Report{
		Run:    e.tokens.Generate(),
		Phase:  PhasePrepare,
		Class:  id.Class,
		Method: id.Method,
	}

	rep.Scenario = e.scenarioFor(id, rc)
	res := e.resolver.Resolve(id, rep.Scenario, convention.Preparation)
	rep.Dir = res.Dir
	if res.Dir == "" {
		rep.Duration = time.Since(start)
		e.logger.Debug("no preparation fixtures", "run_id", rep.Run, "class", id.Class, "method", id.Method)
		return rep, nil
	}

	ds, err := e.parse(res)
	if err != nil {
		return nil, err
	}
	h, err := e.conns.Lookup(rc.connection)
	if err != nil {
		return nil, err
	}
	order, err := e.order(ctx, h, ds, rc)
	if err != nil {
		return nil, err
	}

	op := e.defaultOp
	if rc.opSet {
		op = rc.op
	}
	exec := &operation.Executor{Access: h.Access, Logger: e.logger, Metrics: e.metrics}
	if err := exec.Apply(ctx, ds, op, order); err != nil {
		return nil, err
	}

	rep.Tables = ds.TableNames()
	rep.Rows = rowCount(ds)
	rep.Duration = time.Since(start)
	e.logger.Info("prepared database",
		"run_id", rep.Run,
		"dir", rep.Dir,
		"operation", op.String(),
		"tables", len(rep.Tables),
		"rows", rep.Rows,
		"duration", rep.Duration)
	return rep, nil
}

// Verify compares the database state against the expected fixtures for a
// test. A test with no expected fixture directory yields an empty result.
// Discrepancies land in the returned Result, never in the error.
func (e *Engine) Verify(ctx context.Context, id convention.TestID, opts ...RunOption) (*compare.Result, *Report, error) {
	rc := newRunConfig(opts)
	start := time.Now()
	rep := &Report{
		Run:    e.tokens.Generate(),
		Phase:  PhaseVerify,
		Class:  id.Class,
		Method: id.Method,
	}

	rep.Scenario = e.scenarioFor(id, rc)
	res := e.resolver.Resolve(id, rep.Scenario, convention.Expectation)
	rep.Dir = res.Dir
	if res.Dir == "" {
		rep.Duration = time.Since(start)
		e.logger.Debug("no expected fixtures", "run_id", rep.Run, "class", id.Class, "method", id.Method)
		return &compare.Result{}, rep, nil
	}

	expected, err := e.parse(res)
	if err != nil {
		return nil, nil, err
	}
	h, err := e.conns.Lookup(rc.connection)
	if err != nil {
		return nil, nil, err
	}
	actual, err := snapshot(ctx, h.Access, expected.TableNames())
	if err != nil {
		return nil, nil, err
	}

	result := e.comparator.Compare(expected, actual)
	rep.Tables = expected.TableNames()
	rep.Rows = rowCount(expected)
	rep.Duration = time.Since(start)
	e.logger.Info("verified database",
		"run_id", rep.Run,
		"dir", rep.Dir,
		"tables", len(rep.Tables),
		"findings", result.Count(),
		"duration", rep.Duration)
	return result, rep, nil
}

// Snapshot fetches the named tables from a connection into a dataset, in
// the given table order.
func (e *Engine) Snapshot(ctx context.Context, tables []string, opts ...RunOption) (*dataset.Dataset, error) {
	rc := newRunConfig(opts)
	h, err := e.conns.Lookup(rc.connection)
	if err != nil {
		return nil, err
	}
	return snapshot(ctx, h.Access, tables)
}

func snapshot(ctx context.Context, access dbaccess.Access, tables []string) (*dataset.Dataset, error) {
	ds := dataset.New()
	for _, name := range tables {
		tbl, err := access.FetchTable(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := ds.Append(tbl); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func (e *Engine) scenarioFor(id convention.TestID, rc *runConfig) string {
	if rc.scenarioSet {
		return rc.scenario
	}
	return e.scenarios.Resolve(id)
}

func (e *Engine) parse(res convention.Resolution) (*dataset.Dataset, error) {
	p := &delimited.Parser{
		Format:     e.format,
		Scenario:   res.Scenario,
		SkipTables: res.SkipTables,
	}
	return p.ParseDir(res.Dir)
}

func (e *Engine) order(ctx context.Context, h *dbaccess.Handle, ds *dataset.Dataset, rc *runConfig) (*ordering.Order, error) {
	strategy := e.strategy
	if rc.strategySet {
		strategy = rc.strategy
	}
	orderer := &ordering.Orderer{
		Strategy: strategy,
		Oracle:   h.Access,
		Declared: ds.DeclaredOrder,
	}
	return orderer.Compute(ctx, ds.TableNames())
}

func rowCount(ds *dataset.Dataset) int {
	n := 0
	for _, t := range ds.Tables() {
		n += len(t.Rows)
	}
	return n
}
