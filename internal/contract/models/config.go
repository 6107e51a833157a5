package models

import (
	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
)

// DefaultDenom is the native denomination accepted by deposits.
const DefaultDenom = "ujunox"

// Contract name and version recorded at instantiation for later migrations.
const (
	ContractName    = "postledger"
	ContractVersion = "0.1.0"
)

// Config holds the parameters fixed at instantiation.
//
// Invariants:
//   - Owner is a valid address
//   - AgentCutPercent is within 0..100
//   - Denom is non-empty
//   - Never mutated after it is first stored
type Config struct {
	Owner           domain.Address `json:"owner"`
	NameCharLimit   uint8          `json:"name_char_limit"`
	PostCharLimit   uint8          `json:"post_char_limit"`
	AgentCutPercent uint8          `json:"agent_cut_percent"`
	PostFee         domain.Uint128 `json:"post_fee"`
	Denom           string         `json:"denom"`
	Contract        string         `json:"contract"`
	Version         string         `json:"version"`
}

// NewConfig builds a Config owned by owner from an instantiate message.
func NewConfig(owner domain.Address, msg InstantiateMsg, denom string) (*Config, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner cannot be empty")
	}
	if msg.AgentCutPercent > 100 {
		return nil, dErrors.New(dErrors.CodeValidation, "agent_cut_percent must be between 0 and 100")
	}
	if denom == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "denom cannot be empty")
	}
	return &Config{
		Owner:           owner,
		NameCharLimit:   msg.NameCharLimit,
		PostCharLimit:   msg.PostCharLimit,
		AgentCutPercent: msg.AgentCutPercent,
		PostFee:         msg.PostFee,
		Denom:           denom,
		Contract:        ContractName,
		Version:         ContractVersion,
	}, nil
}

// FeeSplit divides the post fee between owner and agent. Each share is
// floored independently, so any remainder stays with the poster.
func (c *Config) FeeSplit() (owner, agent domain.Uint128, err error) {
	cut := uint64(c.AgentCutPercent)
	owner, err = c.PostFee.MulDivFloor(100-cut, 100)
	if err != nil {
		return domain.Uint128{}, domain.Uint128{}, err
	}
	agent, err = c.PostFee.MulDivFloor(cut, 100)
	if err != nil {
		return domain.Uint128{}, domain.Uint128{}, err
	}
	return owner, agent, nil
}
