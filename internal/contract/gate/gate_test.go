package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"postledger/internal/contract/gate"
	"postledger/internal/contract/gate/mocks"
	dErrors "postledger/pkg/domain-errors"
)

//go:generate mockgen -source=gate.go -destination=mocks/gate-mocks.go -package=mocks Verifier
type AuthorizeSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	verifier *mocks.MockVerifier
}

func TestAuthorizeSuite(t *testing.T) {
	suite.Run(t, new(AuthorizeSuite))
}

func (s *AuthorizeSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verifier = mocks.NewMockVerifier(s.ctrl)
}

func (s *AuthorizeSuite) TearDownTest() {
	s.ctrl.Finish()
}

type postAction struct{ Content string }

func (s *AuthorizeSuite) TestVerifiedTokenCarriesIdentity() {
	ctx := context.Background()
	s.verifier.EXPECT().Verify(ctx, "tok").Return(gate.Identity{
		User:     "juno1user",
		Username: "alice",
		Agent:    "juno1agent",
	}, nil)

	got, err := gate.Authorize(ctx, s.verifier, "tok", postAction{Content: "hi"})
	s.Require().NoError(err)
	s.Equal("juno1user", got.Actor.String())
	s.Equal("alice", got.Username)
	s.Equal("juno1agent", got.Agent.String())
	s.Equal("hi", got.Action.Content)
}

func (s *AuthorizeSuite) TestEmptyTokenSkipsVerifier() {
	_, err := gate.Authorize(context.Background(), s.verifier, "", postAction{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthorizeSuite) TestVerifierFailureIsUnauthorized() {
	s.verifier.EXPECT().Verify(gomock.Any(), "tok").Return(gate.Identity{}, errors.New("boom"))

	_, err := gate.Authorize(context.Background(), s.verifier, "tok", postAction{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthorizeSuite) TestInternalVerifierFaultPassesThrough() {
	s.verifier.EXPECT().Verify(gomock.Any(), "tok").
		Return(gate.Identity{}, dErrors.Wrap(errors.New("dial tcp: refused"), dErrors.CodeInternal, "revocation check failed"))

	_, err := gate.Authorize(context.Background(), s.verifier, "tok", postAction{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *AuthorizeSuite) TestIncompleteIdentityIsRejected() {
	s.verifier.EXPECT().Verify(gomock.Any(), "tok").Return(gate.Identity{User: "juno1user"}, nil)

	_, err := gate.Authorize(context.Background(), s.verifier, "tok", postAction{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestAuthorizeKeepsUnauthorizedMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mocks.NewMockVerifier(ctrl)
	v.EXPECT().Verify(gomock.Any(), "tok").
		Return(gate.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))

	_, err := gate.Authorize(context.Background(), v, "tok", 1)
	require.Error(t, err)
	assert.Equal(t, "token has expired", dErrors.Message(err))
}
