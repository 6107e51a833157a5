// Package params owns the write-once contract configuration.
package params

import (
	"context"
	"errors"

	"postledger/internal/contract/models"
	"postledger/internal/contract/store"
	dErrors "postledger/pkg/domain-errors"
	"postledger/pkg/platform/sentinel"
)

// Initialize stores cfg and resets the post counter to zero. It fails with a
// conflict if the contract is already instantiated.
func Initialize(ctx context.Context, st store.State, cfg models.Config) error {
	if cfg.AgentCutPercent > 100 {
		return dErrors.New(dErrors.CodeValidation, "agent_cut_percent must be between 0 and 100")
	}
	if cfg.Owner.IsZero() || cfg.Denom == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "owner and denom are required")
	}
	if err := st.PutConfig(ctx, cfg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "contract already instantiated")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store config")
	}
	if err := st.PutCounter(ctx, 0); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize post counter")
	}
	return nil
}

// Load returns the configuration. A missing configuration is fatal.
func Load(ctx context.Context, st store.ConfigStore) (*models.Config, error) {
	cfg, err := st.GetConfig(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "contract is not instantiated")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load config")
	}
	return cfg, nil
}
