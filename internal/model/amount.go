package model

import (
	"fmt"
	"math/big"
)

// ParseBig parses a signed decimal amount string. Empty strings parse as
// zero so omitted JSON fields behave like unset amounts.
func ParseBig(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
