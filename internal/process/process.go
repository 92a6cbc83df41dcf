// Package process defines the interface that all process implementations must
// satisfy, along with the registry that maps process identifiers to their
// metadata and implementation.
package process

import (
	"fmt"

	"github.com/mparks/geode/internal/model"
)

// Processor is the contract every process implementation satisfies. Execute
// receives validated inputs only and must be safe to invoke concurrently; it
// performs pure computation and has no knowledge of job state or of whether it
// is being run synchronously or asynchronously.
type Processor interface {
	// Describe returns the process metadata. The returned descriptor is
	// shared and must not be mutated.
	Describe() *model.ProcessDescriptor

	// Execute runs the process on validated inputs and returns the result
	// media type and payload, or an error with a caller-facing message.
	Execute(inputs map[string]any) (mimetype string, result any, err error)
}

// Registry maps process identifiers to implementations. It is populated at
// startup and immutable afterwards, so lookups need no locking.
type Registry struct {
	byID  map[string]Processor
	order []string
}

// NewRegistry creates an empty process registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Processor)}
}

// Register adds a processor under its descriptor id. Registering the same id
// twice is a startup configuration error.
func (r *Registry) Register(p Processor) error {
	id := p.Describe().ID
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("process %q is already registered", id)
	}
	r.byID[id] = p
	r.order = append(r.order, id)
	return nil
}

// Lookup returns the processor registered under id.
func (r *Registry) Lookup(id string) (Processor, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// List returns the descriptors of all registered processes in registration order.
func (r *Registry) List() []*model.ProcessDescriptor {
	descs := make([]*model.ProcessDescriptor, 0, len(r.order))
	for _, id := range r.order {
		descs = append(descs, r.byID[id].Describe())
	}
	return descs
}
