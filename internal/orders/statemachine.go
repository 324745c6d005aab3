// Package orders owns the order lifecycle: the status state machine, the
// order repository, and the service that applies transitions and payment
// results. Orders are created by the checkout assembler and only ever
// mutated here afterwards.
package orders

import (
	"fmt"

	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
)

// Machine validates status transitions against the canonical flow.
// A transition is legal when it is a no-op, a single forward step, or a
// terminal move that satisfies its own precondition. Everything else is
// rejected, never clamped.
type Machine struct {
	allowSkipOutForDelivery bool
}

func NewMachine(allowSkipOutForDelivery bool) *Machine {
	return &Machine{allowSkipOutForDelivery: allowSkipOutForDelivery}
}

// Validate reports whether from -> to is legal. A nil error with
// noop=true means the order is already in the requested state and the
// caller should change nothing.
func (m *Machine) Validate(from, to enums.OrderStatus) (noop bool, err error) {
	if !to.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
	if from == to {
		return true, nil
	}

	// cancelled and returned are frozen
	if from.IsTerminal() {
		return false, m.reject(from, to)
	}

	switch to {
	case enums.OrderStatusCancelled:
		// anything before delivery can be cancelled
		if from == enums.OrderStatusDelivered {
			return false, pkgerrors.New(pkgerrors.CodeStateConflict, "a delivered order can only be returned, not cancelled")
		}
		return false, nil

	case enums.OrderStatusReturned:
		if from != enums.OrderStatusDelivered {
			return false, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be returned")
		}
		return false, nil
	}

	fromIdx := from.FlowIndex()
	toIdx := to.FlowIndex()
	if fromIdx < 0 || toIdx < 0 {
		return false, m.reject(from, to)
	}

	if toIdx == fromIdx+1 {
		return false, nil
	}
	if m.allowSkipOutForDelivery &&
		from == enums.OrderStatusShipped && to == enums.OrderStatusDelivered {
		return false, nil
	}

	return false, m.reject(from, to)
}

func (m *Machine) reject(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("order cannot move from %s to %s", from, to))
}
