package packslip

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps customer codes to registered strategies. Registration
// happens once at startup; resolution is read-only afterwards, so no
// locking is needed.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy under the given code (case-insensitive).
// A later registration for the same code replaces the earlier one.
func (r *Registry) Register(code string, strategy Strategy) {
	r.strategies[strings.ToUpper(code)] = strategy
}

// Resolve returns the strategy for a customer code, matching
// case-insensitively. Fails closed with ErrUnknownCustomer, naming the
// registered codes, when the code is not registered.
func (r *Registry) Resolve(code string) (Strategy, error) {
	strategy, ok := r.strategies[strings.ToUpper(code)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)",
			ErrUnknownCustomer, code, strings.Join(r.Codes(), ", "))
	}
	return strategy, nil
}

// Codes returns the registered customer codes, sorted.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.strategies))
	for code := range r.strategies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Descriptors returns the capability descriptor of every registered
// strategy, sorted by customer code.
func (r *Registry) Descriptors() []Descriptor {
	descriptors := make([]Descriptor, 0, len(r.strategies))
	for _, code := range r.Codes() {
		strategy := r.strategies[code]
		descriptors = append(descriptors, Descriptor{
			CustomerCode: strategy.Code(),
			DisplayName:  strategy.DisplayName(),
			Instructions: strategy.UploadInstructions(),
		})
	}
	return descriptors
}
