// Package settings holds process-wide runtime settings and notifies
// listeners when they change.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/vk/flowgrid/internal/ctxlog"
)

// Known setting names.
const (
	ShowBeta = "show_beta"
	Locale   = "locale"
)

// ErrUnknown is returned when setting a name that is not declared.
var ErrUnknown = errors.New("unknown setting")

// rules are validator tags per setting.
var rules = map[string]string{
	ShowBeta: "required,boolean",
	Locale:   "required,bcp47_language_tag",
}

// ChangeFunc is called after a setting changed value.
type ChangeFunc func(ctx context.Context, name, oldValue, newValue string)

// Settings is safe for concurrent use.
type Settings struct {
	validate *validator.Validate

	mu     sync.RWMutex
	values map[string]string
	hooks  []ChangeFunc
}

// Defaults returns the default value of every known setting.
func Defaults() map[string]string {
	return map[string]string{
		ShowBeta: "false",
		Locale:   "en",
	}
}

// New creates settings initialized with Defaults, overridden by initial.
func New(initial map[string]string) (*Settings, error) {
	s := &Settings{
		validate: validator.New(),
		values:   Defaults(),
	}
	for name, value := range initial {
		if err := s.check(name, value); err != nil {
			return nil, err
		}
		s.values[name] = value
	}
	return s, nil
}

// OnChange registers fn to run after every effective change.
func (s *Settings) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Get returns the current value of a setting.
func (s *Settings) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Bool returns the value of a boolean setting, false when unset.
func (s *Settings) Bool(name string) bool {
	v, _ := s.Get(name)
	b, _ := strconv.ParseBool(v)
	return b
}

// All returns a copy of every setting.
func (s *Settings) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Names returns the known setting names, sorted.
func Names() []string {
	names := make([]string, 0, len(rules))
	for n := range rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Set validates and stores a value. Hooks run only when the value actually
// changed, after the lock is released.
func (s *Settings) Set(ctx context.Context, name, value string) error {
	if err := s.check(name, value); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.values[name]
	if old == value {
		s.mu.Unlock()
		return nil
	}
	s.values[name] = value
	hooks := make([]ChangeFunc, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Info("Setting changed.", "name", name, "old", old, "new", value)
	for _, fn := range hooks {
		fn(ctx, name, old, value)
	}
	return nil
}

func (s *Settings) check(name, value string) error {
	rule, ok := rules[name]
	if !ok {
		return fmt.Errorf("%w '%s'", ErrUnknown, name)
	}
	if err := s.validate.Var(value, rule); err != nil {
		return fmt.Errorf("invalid value %q for setting '%s': %w", value, name, err)
	}
	return nil
}
