package model

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

func TestTradeNotificationJSONRoundTrip(t *testing.T) {
	original := TradeNotification{
		Sequence: 42,
		Sender:   "0x2222222222222222222222222222222222222222",
		Key: PoolKey{
			Currency0:   "0x0000000000000000000000000000000000000000",
			Currency1:   "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			Fee:         3000,
			TickSpacing: 60,
			Hooks:       "0x1111111111111111111111111111111111111111",
		},
		Params: SwapParams{
			ZeroForOne:      true,
			AmountSpecified: "-10000000000000000000",
		},
		Delta: BalanceDelta{
			Amount0: "-10000000000000000000",
			Amount1: "9960069810398764856",
		},
		HookData: hexutil.MustDecode("0x0000000000000000000000004444444444444444444444444444444444444444"),
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded TradeNotification
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}
