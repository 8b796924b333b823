// Package module defines the registration-facing half of module loading
// (spec §6): the Provider interface a host implements to resolve a `use` /
// `using` path to a set of exported bindings. The loader's actual
// file-system search strategy is an out-of-scope external collaborator
// (spec §1); only this interface lives in core.
package module

import (
	"errors"

	"github.com/atjhc/sif-sub001/lang/grammar"
)

// ErrModuleNotFound is returned by a Provider when name does not resolve to
// a module.
var ErrModuleNotFound = errors.New("module not found")

// ErrCircularModuleImport is returned by a Provider when resolving name
// would re-enter a module already in the process of being resolved.
var ErrCircularModuleImport = errors.New("circular module import")

// Module is the set of bindings a resolved `use`/`using` path exports.
//
// Values is declared as map[string]interface{} rather than
// map[string]machine.Value so this package need not import lang/machine
// (which itself depends on lang/compiler and would otherwise close an
// import cycle back through the VM's module provider field). Callers that
// populate or consume Values — the VM's import-magic native and any host
// implementation of Provider — type-assert each entry back to
// machine.Value; the contract is that every value stored here is one.
type Module struct {
	Name       string
	Signatures []grammar.Signature
	Values     map[string]interface{}
}

// Provider resolves a module path named by a `use`/`using` statement.
type Provider interface {
	Module(name string) (*Module, error)
}
