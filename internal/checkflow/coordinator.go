// Package checkflow gates sales, purchases and payments on check details.
// Choosing check as the instrument defers the parent operation until the
// bank, check number and payee are captured; cancelling reverts to the
// default instrument. The flow is a synchronous, user-driven form flow:
// a Coordinator belongs to one pending action and is not safe for
// concurrent use.
package checkflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/ledger"
)

// State is the coordinator's position in the flow.
type State string

const (
	// StateIdle means no check capture is in progress.
	StateIdle State = "idle"
	// StateAwaitingDetails means check was chosen and details are pending.
	StateAwaitingDetails State = "awaiting_details"
	// StateConfirmed means details exist and the parent action may finalize.
	StateConfirmed State = "confirmed"
)

var (
	// ErrAmountRequired blocks selecting check before an amount is known.
	ErrAmountRequired = errors.New("checkflow: a positive amount is required before selecting check")
	// ErrInvalidTransition indicates a call out of order.
	ErrInvalidTransition = errors.New("checkflow: invalid state transition")
	// ErrIncompleteDetails indicates missing check detail fields.
	ErrIncompleteDetails = errors.New("checkflow: bank, check number, payee and currency are required")
	// ErrNotConfirmed indicates Take before Confirm.
	ErrNotConfirmed = errors.New("checkflow: no confirmed check details")
)

// ReferencePort creates bank and currency reference entries on demand.
type ReferencePort interface {
	EnsureBank(ctx context.Context, name string) error
	EnsureCurrency(ctx context.Context, code string) error
}

// DetailsInput carries the user-supplied check fields.
type DetailsInput struct {
	Date        time.Time
	BankName    string
	CheckNumber string
	Payee       string
	Currency    string
}

// Coordinator tracks one pending payment action.
type Coordinator struct {
	state         State
	defaultMethod ledger.PaymentMethod
	method        ledger.PaymentMethod
	amount        float64
	details       *ledger.CheckDetails
	refs          ReferencePort
}

// NewCoordinator builds a coordinator starting Idle on the default method.
func NewCoordinator(defaultMethod ledger.PaymentMethod, refs ReferencePort) *Coordinator {
	if defaultMethod == "" {
		defaultMethod = ledger.MethodCash
	}
	return &Coordinator{
		state:         StateIdle,
		defaultMethod: defaultMethod,
		method:        defaultMethod,
		refs:          refs,
	}
}

// SelectMethod records the chosen instrument. Picking check without a
// positive amount rejects the transition and reverts to the default
// method; any non-check instrument keeps the flow Idle.
func (c *Coordinator) SelectMethod(method ledger.PaymentMethod, amount float64) error {
	if c.state == StateConfirmed {
		return ErrInvalidTransition
	}
	if method != ledger.MethodCheck {
		c.state = StateIdle
		c.method = method
		c.details = nil
		return nil
	}
	if amount <= 0 {
		c.state = StateIdle
		c.method = c.defaultMethod
		return ErrAmountRequired
	}
	c.state = StateAwaitingDetails
	c.method = ledger.MethodCheck
	c.amount = amount
	return nil
}

// Confirm validates the supplied details, creates missing bank and
// currency reference entries, and moves to Confirmed.
func (c *Coordinator) Confirm(ctx context.Context, input DetailsInput) (*ledger.CheckDetails, error) {
	if c.state != StateAwaitingDetails {
		return nil, ErrInvalidTransition
	}
	bank := strings.TrimSpace(input.BankName)
	number := strings.TrimSpace(input.CheckNumber)
	payee := strings.TrimSpace(input.Payee)
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if bank == "" || number == "" || payee == "" || currency == "" {
		return nil, ErrIncompleteDetails
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	if c.refs != nil {
		if err := c.refs.EnsureBank(ctx, bank); err != nil {
			return nil, err
		}
		if err := c.refs.EnsureCurrency(ctx, currency); err != nil {
			return nil, err
		}
	}
	c.details = &ledger.CheckDetails{
		Date:        date,
		BankName:    bank,
		CheckNumber: number,
		Payee:       payee,
		Currency:    currency,
	}
	c.state = StateConfirmed
	return c.details, nil
}

// Cancel abandons the capture and reverts to the default instrument.
// No transaction may be created and no payment recorded mid-flow.
func (c *Coordinator) Cancel() {
	c.state = StateIdle
	c.method = c.defaultMethod
	c.amount = 0
	c.details = nil
}

// Take hands the confirmed details to the caller exactly once, resetting
// the coordinator for the next action.
func (c *Coordinator) Take() (*ledger.CheckDetails, error) {
	if c.state != StateConfirmed || c.details == nil {
		return nil, ErrNotConfirmed
	}
	details := c.details
	c.Cancel()
	return details, nil
}

// State returns the current flow state.
func (c *Coordinator) State() State {
	return c.state
}

// Method returns the currently selected instrument.
func (c *Coordinator) Method() ledger.PaymentMethod {
	return c.method
}
