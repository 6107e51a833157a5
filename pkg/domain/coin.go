package domain

// Coin is an amount of a single denomination as reported by the host.
type Coin struct {
	Denom  string  `json:"denom"`
	Amount Uint128 `json:"amount"`
}

// Coins is the list of funds attached to a message.
type Coins []Coin

// NewCoins builds a single-coin list.
func NewCoins(amount Uint128, denom string) Coins {
	return Coins{{Denom: denom, Amount: amount}}
}
