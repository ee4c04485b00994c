package fitty

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-fitty/formula"
	"github.com/goliatone/go-fitty/pkg/activity"
)

// Option configures a Fitter.
type Option func(*fitterConfig)

type fitterConfig struct {
	logger            *slog.Logger
	verbose           bool
	fitLogger         FitLogger
	minimizer         Minimizer
	engine            formula.Engine
	engineName        string
	programCache      formula.ProgramCache
	functions         *formula.FunctionRegistry
	priority          PriorityMode
	inputFormat       FormatVersion
	outputFormat      FormatVersion
	importPolicy      ImportPolicy
	nameDecorator     string
	functionDecorator string
	activityHooks     activity.Hooks
	activityChannel   string
	activityActor     string
	activityTenant    string
	emitter           *activity.Emitter
	defaultEntry      *FitEntry
}

func applyOptions(opts []Option) fitterConfig {
	cfg := fitterConfig{
		fitLogger:         noopFitLogger{},
		priority:          PreferNewer,
		inputFormat:       FormatDetect,
		outputFormat:      FormatV2,
		importPolicy:      ImportAbort,
		nameDecorator:     DefaultNameDecorator,
		functionDecorator: DefaultFunctionDecorator,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *fitterConfig) {
		cfg.logger = logger
	}
}

// WithVerbose promotes per-attempt parameter and chi-square reports from
// debug to info level.
func WithVerbose(verbose bool) Option {
	return func(cfg *fitterConfig) {
		cfg.verbose = verbose
	}
}

// WithMinimizer sets the minimizer used by Fit and FitEntry.
func WithMinimizer(m Minimizer) Option {
	return func(cfg *fitterConfig) {
		cfg.minimizer = m
	}
}

// WithEngine sets the formula engine used to compile imported entries.
// It takes precedence over WithEngineName.
func WithEngine(engine formula.Engine) Option {
	return func(cfg *fitterConfig) {
		cfg.engine = engine
	}
}

// WithEngineName selects a formula engine by name ("expr", "cel", "js").
func WithEngineName(name string) Option {
	return func(cfg *fitterConfig) {
		cfg.engineName = name
	}
}

// WithProgramCache shares a compiled program cache with the engine built
// by WithEngineName.
func WithProgramCache(cache formula.ProgramCache) Option {
	return func(cfg *fitterConfig) {
		cfg.programCache = cache
	}
}

// WithFunctionRegistry sets the functions formulas may call.
func WithFunctionRegistry(registry *formula.FunctionRegistry) Option {
	return func(cfg *fitterConfig) {
		cfg.functions = registry
	}
}

// WithPriority sets the source priority applied by InitFromFile.
func WithPriority(mode PriorityMode) Option {
	return func(cfg *fitterConfig) {
		cfg.priority = mode
	}
}

// WithInputFormat forces the grammar used on import. The default detects
// it per line.
func WithInputFormat(version FormatVersion) Option {
	return func(cfg *fitterConfig) {
		cfg.inputFormat = version
	}
}

// WithOutputFormat sets the grammar used on export. The default is v2.
func WithOutputFormat(version FormatVersion) Option {
	return func(cfg *fitterConfig) {
		cfg.outputFormat = version
	}
}

// WithImportPolicy decides what happens to malformed lines on import.
func WithImportPolicy(policy ImportPolicy) Option {
	return func(cfg *fitterConfig) {
		cfg.importPolicy = policy
	}
}

// WithNameDecorator sets the pattern applied to data names on lookup.
func WithNameDecorator(pattern string) Option {
	return func(cfg *fitterConfig) {
		cfg.nameDecorator = pattern
	}
}

// WithFunctionDecorator sets the pattern used to name fitted functions.
func WithFunctionDecorator(pattern string) Option {
	return func(cfg *fitterConfig) {
		cfg.functionDecorator = pattern
	}
}

// WithDefaultEntry sets the entry cloned for data without a matching entry.
// The fitter keeps the pointer but never mutates it.
func WithDefaultEntry(entry *FitEntry) Option {
	return func(cfg *fitterConfig) {
		cfg.defaultEntry = entry
	}
}

// WithActivityHooks attaches activity hooks notified on fits, imports and
// exports. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *fitterConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *fitterConfig) {
		cfg.activityChannel = channel
	}
}

// WithActivityIdentity sets the actor and tenant stamped on events that do
// not carry their own.
func WithActivityIdentity(actorID, tenantID string) Option {
	return func(cfg *fitterConfig) {
		cfg.activityActor = actorID
		cfg.activityTenant = tenantID
	}
}

// WithActivityEmitter uses a prebuilt emitter instead of hooks.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(cfg *fitterConfig) {
		cfg.emitter = emitter
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}

func (cfg fitterConfig) buildEngine() (formula.Engine, error) {
	if cfg.engine != nil {
		return cfg.engine, nil
	}
	name := cfg.engineName
	if name == "" {
		name = formula.EngineExpr
	}
	return formula.NewEngine(name, cfg.programCache, cfg.functions)
}

func (cfg fitterConfig) buildEmitter() *activity.Emitter {
	if cfg.emitter != nil {
		return cfg.emitter
	}
	return activity.NewEmitter(cfg.activityHooks, activity.Config{
		Enabled:  len(cfg.activityHooks) > 0,
		Channel:  cfg.activityChannel,
		ActorID:  cfg.activityActor,
		TenantID: cfg.activityTenant,
	})
}
