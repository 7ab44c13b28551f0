package order

import "errors"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// StockEffect is the stock-ledger side effect of a status transition.
type StockEffect int

const (
	EffectNone StockEffect = iota
	// EffectApply decrements stock and records the sale for every item.
	EffectApply
	// EffectRestore puts the units back and reverses the sale counters.
	EffectRestore
)

// Transition validates a status change and returns its stock effect. The
// effect is derived from the transition alone, never from incidental field
// mutation, and the stockApplied marker keeps each effect from firing twice:
// stock moves at most once forward (to processing) and once back (on
// cancellation).
func Transition(from, to Status, stockApplied bool) (StockEffect, error) {
	if !CanTransition(from, to) {
		return EffectNone, ErrInvalidTransition
	}
	switch {
	case to == StatusProcessing && !stockApplied:
		return EffectApply, nil
	case to == StatusCancelled && stockApplied:
		return EffectRestore, nil
	}
	return EffectNone, nil
}
