package handler

import (
	"postledger/internal/contract/models"
	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
)

// InstantiateRequest is the host envelope around an instantiate message.
type InstantiateRequest struct {
	Sender domain.Address        `json:"sender"`
	Funds  domain.Coins          `json:"funds,omitempty"`
	Msg    models.InstantiateMsg `json:"msg"`
}

func (r *InstantiateRequest) Validate() error {
	if err := validateSender(r.Sender); err != nil {
		return err
	}
	return r.Msg.Validate()
}

func (r *InstantiateRequest) Info() models.MessageInfo {
	return models.MessageInfo{Sender: r.Sender, Funds: r.Funds}
}

// ExecuteRequest is the host envelope around an execute message.
type ExecuteRequest struct {
	Sender domain.Address    `json:"sender"`
	Funds  domain.Coins      `json:"funds,omitempty"`
	Msg    models.ExecuteMsg `json:"msg"`
}

func (r *ExecuteRequest) Validate() error {
	if err := validateSender(r.Sender); err != nil {
		return err
	}
	return r.Msg.Validate()
}

func (r *ExecuteRequest) Info() models.MessageInfo {
	return models.MessageInfo{Sender: r.Sender, Funds: r.Funds}
}

// RevokeTokenRequest names a posting token to revoke.
type RevokeTokenRequest struct {
	Token string `json:"token"`
}

func (r *RevokeTokenRequest) Validate() error {
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	return nil
}

func validateSender(sender domain.Address) error {
	if _, err := domain.ParseAddress(sender.String()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "sender: "+dErrors.Message(err))
	}
	return nil
}
