package service

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"postledger/internal/contract/gate"
	"postledger/internal/contract/ledger"
	"postledger/internal/contract/models"
	"postledger/internal/contract/params"
	"postledger/internal/contract/posts"
	"postledger/internal/contract/store"
	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
	"postledger/pkg/requestcontext"
)

// Post publishes content under the identity in the token and charges the post
// fee, split between the owner and the token's agent.
func (s *Service) Post(ctx context.Context, info models.MessageInfo, msg models.PostMsg) (*models.Response, error) {
	ctx, span := s.startSpan(ctx, "post", info)
	resp, err := s.post(ctx, info, msg)
	return resp, s.finish(ctx, span, "post", err)
}

func (s *Service) post(ctx context.Context, info models.MessageInfo, msg models.PostMsg) (*models.Response, error) {
	var (
		id                     uint64
		ownerShare, agentShare domain.Uint128
		req                    gate.Authorized[string]
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
		var err error
		req, err = gate.Authorize(ctx, s.verifier, msg.Token, msg.Content)
		if err != nil {
			return err
		}
		cfg, err := params.Load(ctx, st)
		if err != nil {
			return err
		}
		if err := checkLengths(cfg, req.Username, req.Action); err != nil {
			return err
		}
		if err := checkText(req.Username, req.Action); err != nil {
			return err
		}

		ownerShare, agentShare, err = cfg.FeeSplit()
		if err != nil {
			return err
		}
		l := ledger.New(st)
		if err := l.Transfer(ctx, req.Actor, cfg.Owner, ownerShare); err != nil {
			return err
		}
		if err := l.Transfer(ctx, req.Actor, req.Agent, agentShare); err != nil {
			return err
		}

		p := posts.New(st)
		id, err = p.NextID(ctx)
		if err != nil {
			return err
		}
		return p.Append(ctx, id, models.Post{
			PosterAddress: req.Actor,
			Username:      req.Username,
			Content:       req.Action,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObservePost(ownerShare, agentShare)
	s.logger.InfoContext(ctx, "post created",
		"request_id", requestcontext.RequestID(ctx),
		"post_id", id,
		"poster", req.Actor,
		"agent", req.Agent,
		"sender", info.Sender,
	)
	return models.NewResponse().
		AddAttribute("method", "post").
		AddAttribute("post_id", strconv.FormatUint(id, 10)), nil
}

// checkLengths compares byte lengths against the configured limits, content
// first.
func checkLengths(cfg *models.Config, username, content string) error {
	if len(content) > int(cfg.PostCharLimit) {
		return &models.ExceededCharLimitError{Field: "content", Length: len(content), Max: cfg.PostCharLimit}
	}
	if len(username) > int(cfg.NameCharLimit) {
		return &models.ExceededCharLimitError{Field: "username", Length: len(username), Max: cfg.NameCharLimit}
	}
	return nil
}

// checkText rejects text no backing store can hold: invalid UTF-8 or NUL.
func checkText(username, content string) error {
	for _, f := range []struct{ name, value string }{{"content", content}, {"username", username}} {
		if !utf8.ValidString(f.value) || strings.ContainsRune(f.value, 0) {
			return dErrors.New(dErrors.CodeValidation, f.name+" must be valid UTF-8 without NUL characters")
		}
	}
	return nil
}
