package model

// Reward-token metadata is fixed: every pool-scoped points token shares the
// same descriptor regardless of its identifier.
const (
	PointsTokenName   = "Loyalty Points"
	PointsTokenSymbol = "POINTS"
	PointsTokenURI    = "https://pointscope.dev/token/points.json"
)
