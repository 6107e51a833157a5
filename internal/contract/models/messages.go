package models

import (
	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
)

// MessageInfo is what the host reports about an invocation.
type MessageInfo struct {
	Sender domain.Address `json:"sender"`
	Funds  domain.Coins   `json:"funds,omitempty"`
}

// InstantiateMsg fixes the contract parameters. The sender becomes owner.
type InstantiateMsg struct {
	NameCharLimit   uint8          `json:"name_char_limit"`
	PostCharLimit   uint8          `json:"post_char_limit"`
	AgentCutPercent uint8          `json:"agent_cut_percent"`
	PostFee         domain.Uint128 `json:"post_fee"`
}

// Validate checks the instantiate parameters.
func (m *InstantiateMsg) Validate() error {
	if m.AgentCutPercent > 100 {
		return dErrors.New(dErrors.CodeValidation, "agent_cut_percent must be between 0 and 100")
	}
	return nil
}

// PostMsg publishes content under the identity carried by Token.
type PostMsg struct {
	Token   string `json:"token"`
	Content string `json:"content"`
}

// AmountMsg is the payload of deposit_funds and withdraw_funds.
type AmountMsg struct {
	Amount domain.Uint128 `json:"amount"`
}

// ExecuteMsg is an externally tagged union: exactly one field is set.
type ExecuteMsg struct {
	Post          *PostMsg   `json:"post,omitempty"`
	DepositFunds  *AmountMsg `json:"deposit_funds,omitempty"`
	WithdrawFunds *AmountMsg `json:"withdraw_funds,omitempty"`
}

// Kind names the variant carried by the message.
func (m *ExecuteMsg) Kind() string {
	switch {
	case m.Post != nil:
		return "post"
	case m.DepositFunds != nil:
		return "deposit_funds"
	case m.WithdrawFunds != nil:
		return "withdraw_funds"
	default:
		return ""
	}
}

// Validate enforces the single-variant rule and the shape of each variant.
// A post's token is left to the gate.
func (m *ExecuteMsg) Validate() error {
	set := 0
	for _, present := range []bool{m.Post != nil, m.DepositFunds != nil, m.WithdrawFunds != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return dErrors.New(dErrors.CodeValidation, "exactly one of post, deposit_funds or withdraw_funds is required")
	}
	switch {
	case m.DepositFunds != nil:
		if m.DepositFunds.Amount.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "deposit_funds.amount must be positive")
		}
	case m.WithdrawFunds != nil:
		if m.WithdrawFunds.Amount.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "withdraw_funds.amount must be positive")
		}
	}
	return nil
}

// PostCountResponse answers the post_count query.
type PostCountResponse struct {
	Count uint64 `json:"count"`
}

// LatestPostsResponse answers the latest_posts query.
type LatestPostsResponse struct {
	Posts []Post `json:"posts"`
}

// GetBalanceResponse answers the balance query.
type GetBalanceResponse struct {
	Balance domain.Uint128 `json:"balance"`
}
