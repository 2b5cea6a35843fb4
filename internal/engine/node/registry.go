package node

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Class describes a registered node type.
type Class struct {
	// Type is the tag stored in every node of the class.
	Type string

	// Create builds a node from string arguments the way the type's
	// factory would. It fails with ErrInvalidArgument when required
	// payload is missing.
	Create func(o Owner, args ...string) (Node, error)

	// IsInstance is the type guard.
	IsInstance func(n Node) bool
}

// Registry maps type tags to classes. The reconciler and the editor
// consult it to reject nodes of unknown types.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]Class
	order   []string
}

// NewRegistry creates a registry that knows the root type.
func NewRegistry() *Registry {
	r := &Registry{classes: make(map[string]Class)}
	r.MustRegister(Class{
		Type: RootType,
		Create: func(Owner, ...string) (Node, error) {
			return nil, fmt.Errorf("%w: the root is created by the editor", ErrInvalidArgument)
		},
		IsInstance: IsRoot,
	})
	return r
}

// Register adds a class.
func (r *Registry) Register(c Class) error {
	if c.Type == "" || c.Create == nil || c.IsInstance == nil {
		return fmt.Errorf("%w: incomplete class %q", ErrInvalidArgument, c.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.classes[c.Type]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, c.Type)
	}
	r.classes[c.Type] = c
	r.order = append(r.order, c.Type)
	return nil
}

// MustRegister registers classes and panics on error.
func (r *Registry) MustRegister(classes ...Class) {
	for _, c := range classes {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the class registered for typ.
func (r *Registry) Lookup(typ string) (Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[typ]
	return c, ok
}

// Types returns the registered tags in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Create dispatches to the factory registered for typ.
func (r *Registry) Create(o Owner, typ string, args ...string) (Node, error) {
	c, ok := r.Lookup(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s (registered: %s)", ErrUnknownType, typ, strings.Join(r.Types(), ", "))
	}
	return c.Create(o, args...)
}

// IsInstance applies the type guard registered for typ.
func (r *Registry) IsInstance(typ string, n Node) bool {
	c, ok := r.Lookup(typ)
	return ok && n != nil && c.IsInstance(n)
}

// Check verifies that n's type is registered and that the type guard
// accepts it.
func (r *Registry) Check(n Node) error {
	c, ok := r.Lookup(n.Type())
	if !ok {
		return fmt.Errorf("%w: %s (key %s)", ErrUnknownType, n.Type(), n.Key())
	}
	if !c.IsInstance(n) {
		return fmt.Errorf("%w: %T is not a %s", ErrUnknownType, n, n.Type())
	}
	return nil
}
