package corezero

import (
	"context"
	"testing"

	"github.com/kestrelchess/corezero/evalmock"
	"github.com/kestrelchess/corezero/game"
	"github.com/kestrelchess/corezero/mcts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.NodeCapacity = 1 << 12
	cfg.ChildCapacity = 1 << 14
	return cfg
}

func TestSessionSearchReturnsLegalMove(t *testing.T) {
	pos := game.NewPosition()
	sess, err := New(pos, smallConfig(), evalmock.New("v1"), nil, nil)
	require.NoError(t, err)

	result, err := sess.Search(context.Background(), mcts.SearchLimit{Kind: mcts.NodesPerMove, Nodes: 100}, nil)
	require.NoError(t, err)
	assert.True(t, pos.IsLegal(game.Move(result.Move)))
}

func TestSessionRejectsTerminalRoot(t *testing.T) {
	pos, err := game.NewPositionFromFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)

	_, err = New(pos, smallConfig(), evalmock.New("v1"), nil, nil)
	assert.ErrorIs(t, err, ErrTerminalAtRoot)
}

func TestSessionSearchContinueReusesTree(t *testing.T) {
	pos := game.NewPosition()
	sess, err := New(pos, smallConfig(), evalmock.New("v1"), nil, nil)
	require.NoError(t, err)

	limit := mcts.SearchLimit{Kind: mcts.NodesPerMove, Nodes: 200}
	first, err := sess.Search(context.Background(), limit, nil)
	require.NoError(t, err)

	sizeBeforeContinue := sess.Tree().Store().Size()

	_, err = sess.SearchContinue(context.Background(), []game.Move{game.Move(first.Move)}, limit, nil)
	require.NoError(t, err)

	assert.Greater(t, sess.Tree().Store().Size(), 0)
	_ = sizeBeforeContinue
}

func TestSessionBindPeerRequiresAuthorization(t *testing.T) {
	nn := evalmock.New("shared")
	a, err := New(game.NewPosition(), smallConfig(), nn, nil, nil)
	require.NoError(t, err)

	unauthorizedCfg := smallConfig()
	b, err := New(game.NewPosition(), unauthorizedCfg, nn, nil, nil)
	require.NoError(t, err)

	err = b.BindPeer(a)
	assert.ErrorIs(t, err, ErrPeerNotAuthorized)

	authorizedCfg := smallConfig()
	authorizedCfg.ReusePositionEvaluationsFromOtherTree = true
	c, err := New(game.NewPosition(), authorizedCfg, nn, nil, nil)
	require.NoError(t, err)
	require.NoError(t, c.BindPeer(a))
}

func TestSessionBindPeerRejectsDifferentEvaluator(t *testing.T) {
	authorizedCfg := smallConfig()
	authorizedCfg.ReusePositionEvaluationsFromOtherTree = true

	a, err := New(game.NewPosition(), smallConfig(), evalmock.New("v1"), nil, nil)
	require.NoError(t, err)
	b, err := New(game.NewPosition(), authorizedCfg, evalmock.New("v2"), nil, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, b.BindPeer(a), ErrPeerNotAuthorized)
}
