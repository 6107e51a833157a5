package models

import (
	"time"

	"github.com/google/uuid"

	"postledger/pkg/domain"
)

// BankInstruction is a withdrawal waiting to be relayed to the bank.
// It is written in the same unit of work as the debit it pays out.
type BankInstruction struct {
	ID           uuid.UUID      `json:"id"`
	To           domain.Address `json:"to_address"`
	Amount       domain.Uint128 `json:"amount"`
	Denom        string         `json:"denom"`
	CreatedAt    time.Time      `json:"created_at"`
	DispatchedAt *time.Time     `json:"dispatched_at,omitempty"`
}

// NewBankInstruction creates a pending instruction.
func NewBankInstruction(to domain.Address, amount domain.Uint128, denom string, now time.Time) BankInstruction {
	return BankInstruction{
		ID:        uuid.New(),
		To:        to,
		Amount:    amount,
		Denom:     denom,
		CreatedAt: now,
	}
}

// BankMsg renders the instruction as the host-facing message.
func (b BankInstruction) BankMsg() BankMsg {
	return BankMsg{Send: &BankSend{
		ToAddress: b.To,
		Amount:    domain.NewCoins(b.Amount, b.Denom),
	}}
}
