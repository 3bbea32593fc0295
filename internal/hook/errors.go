package hook

import "errors"

var (
	// ErrMalformedPayload marks hook data that is non-empty but does not
	// decode as a single address word. This fails the enclosing trade.
	ErrMalformedPayload = errors.New("malformed recipient payload")

	// ErrNegativeSpend marks a settlement delta whose negation is not a
	// valid spend amount. The host never produces this for a zeroForOne
	// trade, so it is treated as a fatal accounting fault.
	ErrNegativeSpend = errors.New("derived spend amount is negative")
)
