package metric

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AKirsch1/Deploy-to-Grading/internal/context"
	"github.com/AKirsch1/Deploy-to-Grading/internal/models"
)

// Handler runs one metric for one task. Handlers are probed in
// registration order; the first one that claims the metric runs it.
type Handler interface {
	// Name returns the canonical identifier for this handler
	// (e.g., "script", "gradle").
	Name() string

	// CanRun reports whether this handler is able to execute the given
	// metric. A dedicated metric script beats the gradle fallback.
	CanRun(ctx *context.ExecutionContext, metricName string) bool

	// Run executes the metric inside taskDir and MUST return a
	// MetricExecution populated with command, exit code, output and timing.
	// extraEnv carries the flattened assignment and task configuration.
	Run(ctx *context.ExecutionContext, taskDir, metricName string, extraEnv []string, logger zerolog.Logger) *models.MetricExecution
}

// Registry holds registered metric handlers in resolution order.
type Registry struct {
	handlers []Handler
	byName   map[string]Handler
}

// NewRegistry creates a new, empty handler registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Handler)}
}

// Register appends a Handler to the registry. It will panic if a handler
// with the same name is already registered (indicating an initialization
// error).
func (r *Registry) Register(handler Handler) {
	name := handler.Name()
	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("metric handler %q already registered", name))
	}
	r.handlers = append(r.handlers, handler)
	r.byName[name] = handler
	log.Debug().Str("handler", name).Msg("Registered metric handler")
}

// Resolve returns the first handler claiming the metric, in registration
// order, and true if one was found.
func (r *Registry) Resolve(ctx *context.ExecutionContext, metricName string) (Handler, bool) {
	for _, h := range r.handlers {
		if h.CanRun(ctx, metricName) {
			return h, true
		}
	}
	return nil, false
}

// Get retrieves a handler by name. Returns the handler and true if found.
func (r *Registry) Get(name string) (Handler, bool) {
	h, exists := r.byName[name]
	return h, exists
}

// RegisteredNames returns a sorted list of known handler names.
func (r *Registry) RegisteredNames() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
