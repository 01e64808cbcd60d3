package game

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// HookResultKind is a pre-hook's verdict on an action.
type HookResultKind int

const (
	// HookContinue lets the action proceed unchanged.
	HookContinue HookResultKind = iota
	// HookWarn lets the action proceed but attaches a message to the result.
	HookWarn
	// HookBlock stops the action with a reason. Nothing mutates.
	HookBlock
	// HookReplace substitutes another action, which re-enters the pipeline
	// from the start.
	HookReplace
)

// HookResult is returned by pre-hooks. Use the constructors.
type HookResult struct {
	Kind        HookResultKind
	Message     string
	Replacement Action
}

func Continue() HookResult           { return HookResult{Kind: HookContinue} }
func Warn(message string) HookResult { return HookResult{Kind: HookWarn, Message: message} }
func Block(reason string) HookResult { return HookResult{Kind: HookBlock, Message: reason} }
func Replace(with Action) HookResult { return HookResult{Kind: HookReplace, Replacement: with} }

// PreHook inspects an action before execution. Higher priority runs first.
// The state passed in must not be mutated by a pre-hook.
type PreHook struct {
	Priority int
	Run      func(s *GameState, a Action) HookResult
}

// PostHook runs after an action has executed. It may mutate state directly
// and may return follow-up actions, which the loop runs depth-first before
// anything already queued.
type PostHook struct {
	Priority int
	Run      func(s *GameState, a Action) []Action
}

// CustomExecutor implements a plugin-defined action kind. It mutates the
// state like the built-in executors do, returning *RuleError for blocks.
type CustomExecutor func(s *GameState, a *CustomAction) error

// ReadableModifier rewrites a player's projected view after the engine
// builds it, e.g. to sort a hidden zone or annotate cards.
type ReadableModifier func(s *GameState, viewer int, view *ReadableGameState)

// ReadableFormatter renders a projected view as text for a UI or an agent
// prompt.
type ReadableFormatter func(view *ReadableGameState) string

// Plugin bundles the rule customizations of one game or variant.
type Plugin struct {
	Name string

	PreHooks  map[ActionType][]PreHook
	PostHooks map[ActionType][]PostHook

	// Executors handles CustomAction kinds this plugin introduces.
	Executors map[ActionType]CustomExecutor

	ReadableModifiers []ReadableModifier
	Formatters        map[string]ReadableFormatter
}

// PluginManager merges registered plugins into per-action-type pipelines.
// Registration order breaks priority ties.
type PluginManager struct {
	log *zap.Logger

	pre       map[ActionType][]PreHook
	post      map[ActionType][]PostHook
	executors map[ActionType]CustomExecutor
	modifiers []ReadableModifier
	formats   map[string]ReadableFormatter
}

func NewPluginManager(log *zap.Logger) *PluginManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &PluginManager{
		log:       log,
		pre:       make(map[ActionType][]PreHook),
		post:      make(map[ActionType][]PostHook),
		executors: make(map[ActionType]CustomExecutor),
		formats:   make(map[string]ReadableFormatter),
	}
}

// Register adds a plugin's hooks to the pipelines. Registering two
// executors for the same custom kind is a configuration bug.
func (m *PluginManager) Register(p *Plugin) error {
	for kind, exec := range p.Executors {
		if _, dup := m.executors[kind]; dup {
			return fmt.Errorf("plugin %s: custom action %q already has an executor", p.Name, kind)
		}
		m.executors[kind] = exec
	}
	for t, hooks := range p.PreHooks {
		m.pre[t] = append(m.pre[t], hooks...)
		sortPre(m.pre[t])
	}
	for t, hooks := range p.PostHooks {
		m.post[t] = append(m.post[t], hooks...)
		sortPost(m.post[t])
	}
	m.modifiers = append(m.modifiers, p.ReadableModifiers...)
	for name, f := range p.Formatters {
		m.formats[name] = f
	}
	m.log.Info("plugin registered", zap.String("plugin", p.Name))
	return nil
}

func sortPre(hooks []PreHook) {
	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].Priority > hooks[j].Priority })
}

func sortPost(hooks []PostHook) {
	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].Priority > hooks[j].Priority })
}

// preHooksFor merges the type-specific pipeline with the wildcard one,
// ordered by priority with type-specific hooks first on ties.
func (m *PluginManager) preHooksFor(t ActionType) []PreHook {
	typed, wild := m.pre[t], m.pre[AnyAction]
	if len(wild) == 0 {
		return typed
	}
	merged := make([]PreHook, 0, len(typed)+len(wild))
	merged = append(merged, typed...)
	merged = append(merged, wild...)
	sortPre(merged)
	return merged
}

func (m *PluginManager) postHooksFor(t ActionType) []PostHook {
	typed, wild := m.post[t], m.post[AnyAction]
	if len(wild) == 0 {
		return typed
	}
	merged := make([]PostHook, 0, len(typed)+len(wild))
	merged = append(merged, typed...)
	merged = append(merged, wild...)
	sortPost(merged)
	return merged
}

// RunPreHooks runs the merged pre-hook pipeline for the action. The first
// non-continue result, Warn included, short-circuits the remaining hooks.
func (m *PluginManager) RunPreHooks(s *GameState, a Action) HookResult {
	for _, h := range m.preHooksFor(a.Type()) {
		if res := h.Run(s, a); res.Kind != HookContinue {
			return res
		}
	}
	return Continue()
}

// RunPostHooks runs the merged post-hook pipeline, collecting follow-ups.
func (m *PluginManager) RunPostHooks(s *GameState, a Action) []Action {
	var followUps []Action
	for _, h := range m.postHooksFor(a.Type()) {
		followUps = append(followUps, h.Run(s, a)...)
	}
	return followUps
}

// Executor looks up the executor for a custom action kind.
func (m *PluginManager) Executor(kind ActionType) (CustomExecutor, bool) {
	exec, ok := m.executors[kind]
	return exec, ok
}

// ApplyReadableModifiers runs every registered view modifier in
// registration order.
func (m *PluginManager) ApplyReadableModifiers(s *GameState, viewer int, view *ReadableGameState) {
	for _, mod := range m.modifiers {
		mod(s, viewer, view)
	}
}

// Formatter looks up a named view formatter.
func (m *PluginManager) Formatter(name string) (ReadableFormatter, bool) {
	f, ok := m.formats[name]
	return f, ok
}
