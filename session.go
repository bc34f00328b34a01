package corezero

import (
	"context"
	"io"
	"log"

	"github.com/hashicorp/go-multierror"
	"github.com/kestrelchess/corezero/game"
	"github.com/kestrelchess/corezero/mcts"
	"github.com/pkg/errors"
)

// Session is the top-level search object a caller drives one move at a
// time (§3 "Search session", §4.9). It owns the node arena, the position
// cache, and the current tree; repeated calls to SearchContinue reuse
// whatever subtree survives each move played.
type Session struct {
	cfg       Config
	store     *mcts.NodeStore
	cache     *mcts.PositionCache
	tree      *mcts.Tree
	primary   mcts.Evaluator
	secondary mcts.Evaluator
	log       *log.Logger

	movesPlayed int
	qHistory    []float32
	peer        *Session
}

// New creates a session with a fresh tree rooted at start. primary is
// required; secondary may be nil.
func New(start game.State, cfg Config, primary, secondary mcts.Evaluator, logger *log.Logger) (*Session, error) {
	if !cfg.IsValid() {
		return nil, errors.New("corezero: invalid Config")
	}
	if ended, _ := start.Terminal(); ended {
		return nil, errors.WithStack(ErrTerminalAtRoot)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "corezero: ", log.LstdFlags)
	}

	store := mcts.NewNodeStore(cfg.NodeCapacity, cfg.ChildCapacity)
	cache := mcts.NewPositionCache(cfg.CacheMode, cfg.CacheCapacity)
	tree, err := mcts.NewTree(store, cache, start)
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:       cfg,
		store:     store,
		cache:     cache,
		tree:      tree,
		primary:   primary,
		secondary: secondary,
		log:       logger,
	}, nil
}

// Search searches from the current tree's root for up to limit, returning
// the chosen move (§4.8). It neither re-roots nor resets the tree: on a
// new session it is a fresh search, and a repeated call keeps adding to
// the tree left by the previous one (ResetGame starts a new tree).
func (s *Session) Search(ctx context.Context, limit mcts.SearchLimit, onProgress func(mcts.Progress)) (mcts.Result, error) {
	mgr := mcts.NewManager(s.tree, s.primary, s.secondary, s.cfg.managerConfig(), s.log)
	result, err := mgr.Run(ctx, limit, s.movesPlayed, s.qVolatility(), onProgress)
	if err != nil {
		return mcts.Result{}, err
	}
	s.recordQ(result.Q)
	return result, nil
}

// SearchContinue re-roots the tree down the moves played since the last
// search (the caller's own move plus, usually, the opponent's reply),
// reusing whatever subtree survives, then searches for up to limit
// (§4.9 "search_continue"). If fewer than
// Config.ThresholdFractionNodesReusable of the old root's visits survive
// the re-root, it discards the retained subtree and starts fresh instead
// of paying re-root bookkeeping for a sliver of reused work.
func (s *Session) SearchContinue(ctx context.Context, moves []game.Move, limit mcts.SearchLimit, onProgress func(mcts.Progress)) (mcts.Result, error) {
	reused, err := s.tree.ReRoot(moves)
	if err != nil {
		if errors.Cause(err) == mcts.ErrInconsistentLeaf {
			return mcts.Result{}, errors.WithStack(ErrInconsistentContinuation)
		}
		return mcts.Result{}, err
	}
	if reused < s.cfg.ThresholdFractionNodesReusable {
		s.log.Printf("continuation reused only %.4f of prior visits (threshold %.4f); restarting fresh tree", reused, s.cfg.ThresholdFractionNodesReusable)
		fresh, ferr := mcts.NewTree(s.store, s.cache, s.tree.RootState())
		if ferr != nil {
			return mcts.Result{}, ferr
		}
		s.tree = fresh
	}

	if ended, _ := s.tree.RootState().Terminal(); ended {
		return mcts.Result{}, errors.WithStack(ErrTerminalAtRoot)
	}

	s.movesPlayed += len(moves)
	return s.Search(ctx, limit, onProgress)
}

// ResetGame discards the current tree and starts a brand new one at
// start, clearing move/Q history (§4.9 "ResetGame").
func (s *Session) ResetGame(start game.State) error {
	tree, err := mcts.NewTree(s.store, s.cache, start)
	if err != nil {
		return err
	}
	s.tree = tree
	s.movesPlayed = 0
	s.qHistory = nil
	return nil
}

// BindPeer authorizes this session to read through to peer's position
// cache for positions this session's own tree and cache have not seen
// (§4.10 "peer-tree reuse"). Both sessions must share the same evaluator
// identity and this session's Config must set
// ReusePositionEvaluationsFromOtherTree.
func (s *Session) BindPeer(peer *Session) error {
	if !s.cfg.ReusePositionEvaluationsFromOtherTree {
		return errors.WithStack(ErrPeerNotAuthorized)
	}
	if s.primary.Identity() != peer.primary.Identity() {
		return errors.WithStack(ErrPeerNotAuthorized)
	}
	s.peer = peer
	s.tree.BindPeer(peer.tree)
	return nil
}

// ClearSharedContext severs this session's peer back-reference (§4.10).
func (s *Session) ClearSharedContext() {
	s.peer = nil
	s.tree.ClearSharedContext()
}

// Tree exposes the current search tree, for diagnostics (e.g. DOT dump).
func (s *Session) Tree() *mcts.Tree { return s.tree }

// Close releases any resources held by this session's evaluators, if
// they implement io.Closer, aggregating independent close failures
// rather than stopping at the first one.
func (s *Session) Close() error {
	var errs error
	for _, ev := range []mcts.Evaluator{s.primary, s.secondary} {
		closer, ok := ev.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if errs != nil {
		return errs
	}
	return nil
}

// recordQ keeps a short rolling history of best-move Q so qVolatility
// can measure how much the engine's evaluation has been swinging.
func (s *Session) recordQ(q float32) {
	const window = 8
	s.qHistory = append(s.qHistory, q)
	if len(s.qHistory) > window {
		s.qHistory = s.qHistory[len(s.qHistory)-window:]
	}
}

// qVolatility returns a 0..1 measure of how much recent best-move Q has
// swung, used by the Limit Manager's think-harder multiplier (§4.8).
func (s *Session) qVolatility() float32 {
	if len(s.qHistory) < 2 {
		return 0
	}
	var maxAbsDelta float32
	for i := 1; i < len(s.qHistory); i++ {
		d := s.qHistory[i] - s.qHistory[i-1]
		if d < 0 {
			d = -d
		}
		if d > maxAbsDelta {
			maxAbsDelta = d
		}
	}
	v := maxAbsDelta / 2 // deltas range over [-2, 2]
	if v > 1 {
		v = 1
	}
	return v
}
