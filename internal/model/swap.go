package model

// SwapParams are the trader-specified swap parameters. AmountSpecified is a
// signed decimal string: negative means exact input, positive means exact
// output.
type SwapParams struct {
	ZeroForOne        bool   `json:"zero_for_one"`
	AmountSpecified   string `json:"amount_specified"`
	SqrtPriceLimitX96 string `json:"sqrt_price_limit_x96,omitempty"`
}

// BalanceDelta holds the signed post-settlement balance changes for both
// currencies of a pool, as decimal strings. A negative amount is owed by the
// trader; a positive amount is owed to the trader.
type BalanceDelta struct {
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}
