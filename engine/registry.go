package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/terms"
)

// Factory binds terms to a contract implementation.
type Factory func(terms.ContractTerms) (Contract, error)

// Registry maps contract types to factories. It is built once at startup and
// passed to whoever needs it.
type Registry struct {
	mu        sync.RWMutex
	factories map[terms.ContractType]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[terms.ContractType]Factory)}
}

// Register adds or replaces the factory of a contract type.
func (r *Registry) Register(ct terms.ContractType, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[ct] = f
}

// New builds the contract for t.
func (r *Registry) New(t terms.ContractTerms) (Contract, error) {
	r.mu.RLock()
	f, ok := r.factories[t.ContractType]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.New(errs.KindAttribute, fmt.Sprintf("no implementation for contract type %q", t.ContractType),
			"contract_id", t.ContractID, "contract_type", string(t.ContractType))
	}
	return f(t)
}

// Types lists registered contract types.
func (r *Registry) Types() []terms.ContractType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]terms.ContractType, 0, len(r.factories))
	for ct := range r.factories {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
