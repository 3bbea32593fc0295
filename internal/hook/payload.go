package hook

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var recipientArgs = abi.Arguments{{Type: mustNewType("address")}}

func mustNewType(solType string) abi.Type {
	typ, err := abi.NewType(solType, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// DecodeRecipient extracts the reward recipient from the opaque hook data.
// Empty data means no recipient was supplied (ok=false, no error). Anything
// other than a single ABI-encoded address word is malformed.
func DecodeRecipient(data []byte) (common.Address, bool, error) {
	if len(data) == 0 {
		return common.Address{}, false, nil
	}
	if len(data) != 32 {
		return common.Address{}, false, fmt.Errorf("%w: length %d", ErrMalformedPayload, len(data))
	}
	for _, b := range data[:12] {
		if b != 0 {
			return common.Address{}, false, fmt.Errorf("%w: nonzero address padding", ErrMalformedPayload)
		}
	}

	values, err := recipientArgs.Unpack(data)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	recipient, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, false, fmt.Errorf("%w: unexpected decoded type", ErrMalformedPayload)
	}
	return recipient, true, nil
}
