// Package contracts wires the contract type implementations into an engine registry.
package contracts

import (
	"github.com/meenmo/actus/contracts/csh"
	"github.com/meenmo/actus/contracts/lam"
	"github.com/meenmo/actus/contracts/pam"
	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/terms"
)

// NewRegistry returns a registry holding CSH, PAM and LAM.
func NewRegistry() *engine.Registry {
	reg := engine.NewRegistry()
	Register(reg)
	return reg
}

// Register adds CSH, PAM and LAM to reg.
func Register(reg *engine.Registry) {
	reg.Register(terms.CSH, func(t terms.ContractTerms) (engine.Contract, error) { return csh.New(t) })
	reg.Register(terms.PAM, func(t terms.ContractTerms) (engine.Contract, error) { return pam.New(t) })
	reg.Register(terms.LAM, func(t terms.ContractTerms) (engine.Contract, error) { return lam.New(t) })
}
