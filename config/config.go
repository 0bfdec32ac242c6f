// Package config provides YAML script parsing for the fluxus CLI.
//
// A script describes a store whose state is a generic JSON-like document,
// the handlers that reduce actions into it, named selectors and the actions
// to dispatch. Scripts let the store be exercised without writing Go.
//
// Example script:
//
//	name: todos
//	initial_state:
//	  count: 0
//	  owner: ${USER:-nobody}
//	  todos: []
//
//	middleware: [recover, logger]
//
//	handlers:
//	  INCREMENT: {op: add, path: count, value: 1}
//	  ADD: add:count
//	  PUSH: append:todos
//	  RESET: reset
//
//	selectors:
//	  total: count
//
//	actions:
//	  - type: INCREMENT
//	  - type: ADD
//	    payload: 5
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultName = "fluxus"

// Handler operations.
const (
	OpSet      = "set"
	OpAdd      = "add"
	OpDelete   = "delete"
	OpAppend   = "append"
	OpSetIndex = "set_index"
	OpMerge    = "merge"
	OpReset    = "reset"
)

// Middleware names accepted in the middleware list.
const (
	MiddlewareRecover = "recover"
	MiddlewareLogger  = "logger"
	MiddlewareThunk   = "thunk"
)

// Document is the state type of script-driven stores.
type Document = map[string]any

// Script is the root structure of a YAML script.
//
// Use [Load] or [Parse] to create a Script from YAML.
type Script struct {
	// Name is the store name used in logs. Defaults to "fluxus".
	Name string `yaml:"name"`

	// InitialState is the state before any action.
	// String values support environment variable substitution.
	InitialState Document `yaml:"initial_state"`

	// Middleware lists built-in middleware, outermost first:
	// "recover", "logger" or "thunk".
	Middleware []string `yaml:"middleware"`

	// Handlers maps action types to the operation they apply.
	Handlers map[string]HandlerConfig `yaml:"handlers"`

	// Selectors maps selector names to dotted paths into the state.
	Selectors map[string]string `yaml:"selectors"`

	// Actions are dispatched in order by "fluxus run" and "fluxus serve".
	Actions []ActionConfig `yaml:"actions"`
}

// ActionConfig is one scripted action.
type ActionConfig struct {
	// Type is the action type.
	Type string `yaml:"type"`

	// Payload is the optional action payload.
	// String values support environment variable substitution.
	Payload any `yaml:"payload"`
}

// HandlerConfig describes how one action type changes the state.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	ADD: add:count
//	RENAME: set:user.name
//	RESET: reset
//
// Structured object:
//
//	INCREMENT:
//	  op: add
//	  path: count
//	  value: 1
//
// Without a value, the action payload is used.
type HandlerConfig struct {
	// Op is the operation: set, add, delete, append, set_index, merge or reset.
	Op string

	// Path is the dotted path the operation applies to, e.g. "user.name"
	// or "todos.0.done". Unused by reset.
	Path string

	// Value replaces the action payload when HasValue is true.
	Value any

	// HasValue reports whether a value was configured.
	HasValue bool
}

// UnmarshalYAML implements yaml.Unmarshaler for HandlerConfig.
func (h *HandlerConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return h.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Op    string    `yaml:"op"`
			Path  string    `yaml:"path"`
			Value yaml.Node `yaml:"value"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		h.Op = raw.Op
		h.Path = raw.Path
		if raw.Value.Kind != 0 {
			if err := raw.Value.Decode(&h.Value); err != nil {
				return fmt.Errorf("handler value: %w", err)
			}
			h.HasValue = true
		}
		return nil
	}

	return fmt.Errorf("handler must be a string or object, got %v", node.Kind)
}

// parseShorthand parses handler shorthand syntax.
//
// Supported formats:
//   - "reset" → restore the initial state
//   - "op:path" → apply op at path with the action payload
func (h *HandlerConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("handler cannot be empty")
	}

	if idx := strings.Index(s, ":"); idx != -1 {
		h.Op = s[:idx]
		h.Path = s[idx+1:]
		return nil
	}

	if s != OpReset {
		return fmt.Errorf("unknown handler %q (expected 'reset' or 'op:path')", s)
	}
	h.Op = s
	return nil
}

// Load reads and parses a YAML script.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML script data.
//
// Environment variables are expanded in string values of the initial state,
// handler values and action payloads. The name defaults to "fluxus".
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if s.Name == "" {
		s.Name = defaultName
	}
	if s.InitialState == nil {
		s.InitialState = Document{}
	}

	if err := s.expandAndValidate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables that are already set keep their value.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// HandlerTypes returns the handled action types in sorted order.
func (s *Script) HandlerTypes() []string {
	return sortedKeys(s.Handlers)
}

// SelectorNames returns the selector names in sorted order.
func (s *Script) SelectorNames() []string {
	return sortedKeys(s.Selectors)
}

// expandAndValidate expands environment variables and validates the script.
func (s *Script) expandAndValidate() error {
	expanded, err := expandValue(s.InitialState)
	if err != nil {
		return fmt.Errorf("initial_state: %w", err)
	}
	doc, ok := expanded.(Document)
	if !ok {
		return fmt.Errorf("initial_state must be a mapping, got %T", expanded)
	}
	s.InitialState = doc

	for i, name := range s.Middleware {
		switch name {
		case MiddlewareRecover, MiddlewareLogger, MiddlewareThunk:
		default:
			return fmt.Errorf("middleware[%d]: unknown middleware %q (expected recover, logger, or thunk)", i, name)
		}
	}

	if len(s.Handlers) == 0 {
		return errors.New("at least one handler must be defined")
	}
	for _, actionType := range s.HandlerTypes() {
		h := s.Handlers[actionType]
		if err := validateHandler(&h); err != nil {
			return fmt.Errorf("handlers[%s]: %w", actionType, err)
		}
		if h.HasValue {
			if h.Value, err = expandValue(h.Value); err != nil {
				return fmt.Errorf("handlers[%s]: value: %w", actionType, err)
			}
		}
		s.Handlers[actionType] = h
	}

	for _, name := range s.SelectorNames() {
		if strings.TrimSpace(s.Selectors[name]) == "" {
			return fmt.Errorf("selectors[%s]: path is required", name)
		}
	}

	for i := range s.Actions {
		a := &s.Actions[i]
		if a.Type == "" {
			return fmt.Errorf("actions[%d]: type is required", i)
		}
		if a.Payload, err = expandValue(a.Payload); err != nil {
			return fmt.Errorf("actions[%d] (%s): payload: %w", i, a.Type, err)
		}
	}

	return nil
}

// validateHandler validates a handler configuration.
func validateHandler(h *HandlerConfig) error {
	switch h.Op {
	case OpReset:
		return nil
	case OpSet, OpDelete, OpAppend, OpSetIndex, OpMerge:
	case OpAdd:
		if h.HasValue {
			if _, ok := toFloat(h.Value); !ok {
				return fmt.Errorf("op 'add' requires a numeric value, got %T", h.Value)
			}
		}
	case "":
		return errors.New("op is required")
	default:
		return fmt.Errorf("unknown op %q", h.Op)
	}

	if strings.TrimSpace(h.Path) == "" {
		return fmt.Errorf("op '%s' requires a path", h.Op)
	}
	for _, seg := range splitPath(h.Path) {
		if seg == "" {
			return fmt.Errorf("invalid path %q", h.Path)
		}
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expandValue expands environment variables in every string of a decoded
// YAML value. Maps and slices are rebuilt; other values pass through.
func expandValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return expandEnvVars(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			expanded, err := expandValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = expanded
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			expanded, err := expandValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return v, nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
