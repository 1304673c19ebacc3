package cipher

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownOperation is returned when a pipeline or recipe names an
	// operation that is not registered.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrRecipeNotFound is returned for lookups of a recipe that does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrRecipeConflict is returned when two recipe names would be stored
	// in the same file.
	ErrRecipeConflict = errors.New("recipe name conflict")
)

// Registry is a concurrency-safe set of named operations.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// NewRegistry returns an empty registry. Most callers use the package-level
// functions, which share a default registry populated at init.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Operation)}
}

var defaultRegistry = NewRegistry()

// Default returns the registry holding the built-in operations.
func Default() *Registry {
	return defaultRegistry
}

// Register adds an operation; names must be unique.
func (r *Registry) Register(op Operation) error {
	if op == nil {
		return fmt.Errorf("cannot register nil operation")
	}

	name := op.Name()
	if name == "" {
		return fmt.Errorf("operation name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ops[name]; exists {
		return fmt.Errorf("operation %s is already registered", name)
	}
	r.ops[name] = op
	return nil
}

// Get retrieves an operation by name.
func (r *Registry) Get(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, exists := r.ops[name]
	return op, exists
}

// List returns every operation sorted by name.
func (r *Registry) List() []Operation {
	return r.filter(func(Operation) bool { return true })
}

// ListByType returns operations of one category sorted by name.
func (r *Registry) ListByType(opType OperationType) []Operation {
	return r.filter(func(op Operation) bool { return op.Type() == opType })
}

// Unregister removes an operation.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.ops, name)
}

func (r *Registry) filter(keep func(Operation) bool) []Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]Operation, 0, len(r.ops))
	for _, op := range r.ops {
		if keep(op) {
			ops = append(ops, op)
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Name() < ops[j].Name()
	})
	return ops
}

// RegisterOperation adds an operation to the default registry
func RegisterOperation(op Operation) error {
	return defaultRegistry.Register(op)
}

// GetOperation retrieves an operation from the default registry by name
func GetOperation(name string) (Operation, bool) {
	return defaultRegistry.Get(name)
}

// ListOperations returns all operations in the default registry
func ListOperations() []Operation {
	return defaultRegistry.List()
}

// ListOperationsByType returns default registry operations of one type
func ListOperationsByType(opType OperationType) []Operation {
	return defaultRegistry.ListByType(opType)
}
