package consensus

import (
	"fmt"
	"sync"

	"github.com/popc-project/popc-node/pkg/types"
)

// Validator is a PoPC consensus participant. Counters are monotone
// non-decreasing once a validator is registered.
type Validator struct {
	Address      types.Address
	Stake        types.U128
	TotalVotes   uint64
	CorrectVotes uint64
	FalsePass    uint64
	IsActive     bool
}

// Registry holds the address -> Validator mapping.
type Registry struct {
	mu                sync.RWMutex
	validators        map[types.Address]*Validator
	minValidatorStake types.U128
}

// NewRegistry creates a validator registry enforcing minValidatorStake on
// registration.
func NewRegistry(minValidatorStake types.U128) *Registry {
	return &Registry{
		validators:        make(map[types.Address]*Validator),
		minValidatorStake: minValidatorStake,
	}
}

// ErrInsufficientStake is returned by Register when a validator's stake is
// below the configured minimum.
var ErrInsufficientStake = fmt.Errorf("validator stake below minimum")

// Register inserts or overwrites a validator by address. It rejects
// validators whose stake is below min_validator_stake.
func (r *Registry) Register(v Validator) error {
	if v.Stake.LessThan(r.minValidatorStake) {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientStake, v.Stake, r.minValidatorStake)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := v
	r.validators[v.Address] = &stored
	return nil
}

// Get returns a copy of the validator registered at address, or false if
// none is registered.
func (r *Registry) Get(address types.Address) (Validator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.validators[address]
	if !ok {
		return Validator{}, false
	}
	return *v, true
}

// RecordVote increments total_votes and, when correct is true,
// correct_votes for the validator at address. No-op if the validator is
// not registered.
func (r *Registry) RecordVote(address types.Address, correct bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.validators[address]
	if !ok {
		return
	}
	v.TotalVotes++
	if correct {
		v.CorrectVotes++
	}
}

// RecordFalsePass increments false_pass for the validator at address.
// No-op if the validator is not registered.
func (r *Registry) RecordFalsePass(address types.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.validators[address]
	if !ok {
		return
	}
	v.FalsePass++
}

// Count returns the number of registered validators.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.validators)
}

// All returns a copy of every registered validator.
func (r *Registry) All() []Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Validator, 0, len(r.validators))
	for _, v := range r.validators {
		out = append(out, *v)
	}
	return out
}
