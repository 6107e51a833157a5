package service

import (
	"context"

	"postledger/internal/contract/models"
	"postledger/internal/contract/params"
	"postledger/internal/contract/store"
	"postledger/pkg/requestcontext"
)

// Instantiate fixes the contract configuration with the sender as owner.
func (s *Service) Instantiate(ctx context.Context, info models.MessageInfo, msg models.InstantiateMsg) (*models.Response, error) {
	ctx, span := s.startSpan(ctx, "instantiate", info)
	resp, err := s.instantiate(ctx, info, msg)
	return resp, s.finish(ctx, span, "instantiate", err)
}

func (s *Service) instantiate(ctx context.Context, info models.MessageInfo, msg models.InstantiateMsg) (*models.Response, error) {
	if err := requireSender(info); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	cfg, err := models.NewConfig(info.Sender, msg, s.denom)
	if err != nil {
		return nil, err
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
		return params.Initialize(ctx, st, *cfg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contract instantiated",
		"request_id", requestcontext.RequestID(ctx),
		"owner", cfg.Owner,
		"post_fee", cfg.PostFee.String(),
		"agent_cut_percent", cfg.AgentCutPercent,
		"contract", cfg.Contract,
		"version", cfg.Version,
	)
	return models.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("owner", cfg.Owner.String()), nil
}
