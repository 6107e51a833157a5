package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
)

func TestConfig_FeeSplit(t *testing.T) {
	tests := []struct {
		name      string
		fee       uint64
		cut       uint8
		wantOwner uint64
		wantAgent uint64
	}{
		{"ninety percent agent", 10000, 90, 1000, 9000},
		{"no agent cut", 10000, 0, 10000, 0},
		{"full agent cut", 10000, 100, 0, 10000},
		{"odd fee floors both legs", 7, 50, 3, 3},
		{"zero fee", 0, 30, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{PostFee: domain.NewUint128(tt.fee), AgentCutPercent: tt.cut}
			owner, agent, err := cfg.FeeSplit()
			require.NoError(t, err)
			assert.Equal(t, domain.NewUint128(tt.wantOwner), owner)
			assert.Equal(t, domain.NewUint128(tt.wantAgent), agent)

			total, err := owner.Add(agent)
			require.NoError(t, err)
			residue, err := cfg.PostFee.Sub(total)
			require.NoError(t, err, "shares never exceed the fee")
			assert.True(t, residue.Cmp(domain.NewUint128(1)) <= 0, "residue is at most one unit")
		})
	}
}

func TestNewConfig(t *testing.T) {
	owner := domain.Address("juno1owner")

	cfg, err := NewConfig(owner, InstantiateMsg{NameCharLimit: 20, PostCharLimit: 140, AgentCutPercent: 90, PostFee: domain.NewUint128(10000)}, DefaultDenom)
	require.NoError(t, err)
	assert.Equal(t, owner, cfg.Owner)
	assert.Equal(t, "ujunox", cfg.Denom)
	assert.Equal(t, ContractVersion, cfg.Version)

	_, err = NewConfig(owner, InstantiateMsg{AgentCutPercent: 101}, DefaultDenom)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewConfig("", InstantiateMsg{}, DefaultDenom)
	assert.Error(t, err)
}

func TestExecuteMsg_Validate(t *testing.T) {
	t.Run("decodes externally tagged variants", func(t *testing.T) {
		var msg ExecuteMsg
		require.NoError(t, json.Unmarshal([]byte(`{"deposit_funds":{"amount":"500"}}`), &msg))
		require.NoError(t, msg.Validate())
		assert.Equal(t, "deposit_funds", msg.Kind())
		assert.Equal(t, domain.NewUint128(500), msg.DepositFunds.Amount)
	})

	t.Run("rejects zero or several variants", func(t *testing.T) {
		empty := ExecuteMsg{}
		assert.True(t, dErrors.HasCode(empty.Validate(), dErrors.CodeValidation))

		both := ExecuteMsg{
			DepositFunds:  &AmountMsg{Amount: domain.NewUint128(1)},
			WithdrawFunds: &AmountMsg{Amount: domain.NewUint128(1)},
		}
		assert.True(t, dErrors.HasCode(both.Validate(), dErrors.CodeValidation))
	})

	t.Run("rejects zero amounts", func(t *testing.T) {
		zero := ExecuteMsg{WithdrawFunds: &AmountMsg{}}
		assert.Error(t, zero.Validate())
	})

	t.Run("leaves a missing token to the gate", func(t *testing.T) {
		noToken := ExecuteMsg{Post: &PostMsg{Content: "hi"}}
		assert.NoError(t, noToken.Validate())
	})
}

func TestMustPay(t *testing.T) {
	coin := func(amount uint64, denom string) domain.Coin {
		return domain.Coin{Denom: denom, Amount: domain.NewUint128(amount)}
	}
	reason := func(err error) PaymentReason {
		var pe *PaymentError
		require.ErrorAs(t, err, &pe)
		return pe.Reason
	}

	got, err := MustPay(MessageInfo{Funds: domain.Coins{coin(500, DefaultDenom)}}, DefaultDenom)
	require.NoError(t, err)
	assert.Equal(t, domain.NewUint128(500), got)

	_, err = MustPay(MessageInfo{}, DefaultDenom)
	assert.Equal(t, PaymentNoFunds, reason(err))

	_, err = MustPay(MessageInfo{Funds: domain.Coins{coin(0, DefaultDenom)}}, DefaultDenom)
	assert.Equal(t, PaymentNoFunds, reason(err))

	_, err = MustPay(MessageInfo{Funds: domain.Coins{coin(5, "uatom")}}, DefaultDenom)
	assert.Equal(t, PaymentMissingDenom, reason(err))

	_, err = MustPay(MessageInfo{Funds: domain.Coins{coin(5, DefaultDenom), coin(5, "uatom")}}, DefaultDenom)
	assert.Equal(t, PaymentMultipleDenoms, reason(err))
	assert.True(t, dErrors.HasCode(err, dErrors.CodePaymentMismatch))
}

func TestTypedErrorsCarryCodes(t *testing.T) {
	err := error(&InsufficientFundsError{Available: domain.NewUint128(400), Requested: domain.NewUint128(500)})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	assert.Equal(t, "insufficient funds (got 400, needed 500)", err.Error())

	err = &ExceededCharLimitError{Field: "content", Length: 141, Max: 140}
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExceededCharLimit))
	assert.Equal(t, 141, err.(*ExceededCharLimitError).Details()["length"])
}
