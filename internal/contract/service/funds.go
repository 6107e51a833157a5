package service

import (
	"context"

	"postledger/internal/contract/ledger"
	"postledger/internal/contract/models"
	"postledger/internal/contract/params"
	"postledger/internal/contract/store"
	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
	"postledger/pkg/requestcontext"
)

// DepositFunds credits the sender with amount. Exactly amount of the contract
// denom must be attached.
func (s *Service) DepositFunds(ctx context.Context, info models.MessageInfo, amount domain.Uint128) (*models.Response, error) {
	ctx, span := s.startSpan(ctx, "deposit_funds", info)
	resp, err := s.deposit(ctx, info, amount)
	return resp, s.finish(ctx, span, "deposit_funds", err)
}

func (s *Service) deposit(ctx context.Context, info models.MessageInfo, amount domain.Uint128) (*models.Response, error) {
	if err := requireSender(info); err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}

	var balance domain.Uint128
	err := s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
		cfg, err := params.Load(ctx, st)
		if err != nil {
			return err
		}
		paid, err := models.MustPay(info, cfg.Denom)
		if err != nil {
			return err
		}
		switch paid.Cmp(amount) {
		case -1:
			return &models.InsufficientFundsError{Available: paid, Requested: amount}
		case 1:
			return &models.PaymentError{
				Reason:   models.PaymentOverpaid,
				Denom:    cfg.Denom,
				Attached: paid,
				Declared: amount,
			}
		}
		balance, err = ledger.New(st).Credit(ctx, info.Sender, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveDeposit(amount)
	s.logger.InfoContext(ctx, "funds deposited",
		"request_id", requestcontext.RequestID(ctx),
		"address", info.Sender,
		"amount", amount.String(),
		"balance", balance.String(),
	)
	return models.NewResponse().
		AddAttribute("action", "deposit_funds").
		AddAttribute("balance", balance.String()), nil
}

// WithdrawFunds debits the sender and emits a bank send of amount back to it.
// The send is recorded in the outbox within the same unit of work.
func (s *Service) WithdrawFunds(ctx context.Context, info models.MessageInfo, amount domain.Uint128) (*models.Response, error) {
	ctx, span := s.startSpan(ctx, "withdraw_funds", info)
	resp, err := s.withdraw(ctx, info, amount)
	return resp, s.finish(ctx, span, "withdraw_funds", err)
}

func (s *Service) withdraw(ctx context.Context, info models.MessageInfo, amount domain.Uint128) (*models.Response, error) {
	if err := requireSender(info); err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}

	var (
		balance domain.Uint128
		ins     models.BankInstruction
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
		cfg, err := params.Load(ctx, st)
		if err != nil {
			return err
		}
		balance, err = ledger.New(st).Debit(ctx, info.Sender, amount)
		if err != nil {
			return err
		}
		ins = models.NewBankInstruction(info.Sender, amount, cfg.Denom, now(ctx))
		if err := st.AppendInstruction(ctx, ins); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record bank instruction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveWithdrawal(amount)
	s.logger.InfoContext(ctx, "funds withdrawn",
		"request_id", requestcontext.RequestID(ctx),
		"address", info.Sender,
		"amount", amount.String(),
		"balance", balance.String(),
		"instruction_id", ins.ID,
	)
	return models.NewResponse().
		AddAttribute("method", "withdraw_funds").
		AddAttribute("balance", balance.String()).
		AddMessage(ins.BankMsg()), nil
}
