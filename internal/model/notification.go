package model

import "github.com/ethereum/go-ethereum/common/hexutil"

// TradeNotification is the post-settlement callback payload delivered by the
// host engine once per completed trade. Sequence is assigned by the host and
// increases monotonically; it drives resume in the accrual pipeline.
type TradeNotification struct {
	Sequence uint64        `json:"sequence"`
	Sender   string        `json:"sender"`
	Key      PoolKey       `json:"pool_key"`
	Params   SwapParams    `json:"params"`
	Delta    BalanceDelta  `json:"delta"`
	HookData hexutil.Bytes `json:"hook_data,omitempty"`
}
