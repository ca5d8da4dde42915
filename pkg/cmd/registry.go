package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrDuplicateCommand is returned when a name is registered twice.
var ErrDuplicateCommand = errors.New("command already registered")

// DefaultRegistry is the process-wide registry filled from init() by command packages.
var DefaultRegistry = NewRegistry()

// Registry stores commands by lower-cased name. It does not dispatch; adapters
// look commands up and invoke them with their own context.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds c. Names are case-insensitive.
func (r *Registry) Register(c Command) error {
	name := strings.ToLower(strings.TrimSpace(c.Name()))
	if name == "" {
		return fmt.Errorf("register %T: empty command name", Root(c))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateCommand)
	}
	r.commands[name] = c
	return nil
}

// MustRegister is Register for init() callers; it panics on error.
func (r *Registry) MustRegister(c Command) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Get returns the command registered under name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// GetAll returns all registered commands sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
