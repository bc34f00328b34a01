package mcts

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"golang.org/x/exp/rand"
)

// Progress is a point-in-time snapshot of a running search, handed to a
// caller-supplied callback (§4.8 "progress callback").
type Progress struct {
	Nodes       int
	NPS         float64
	ElapsedMS   int64
	BestMove    int32
	BestN       uint32
	BestQ       float32
}

// ManagerConfig configures the Search Manager (§4.8, §6).
type ManagerConfig struct {
	Flow  FlowConfig
	Sel   SelectorConfig
	Limit LimitManager

	// ProgressInterval bounds how often onProgress fires; the manager
	// never calls it more often than this, and never re-enters it while
	// a previous call is still running (§4.8 "single-threaded
	// dispatcher").
	ProgressInterval time.Duration

	// FutilityPruningEnabled allows the manager to stop a search early
	// once the best move's visit lead passes the threshold isFutile
	// checks (§6 "futility_pruning_stop_search_enabled").
	FutilityPruningEnabled bool

	// FirstMoveTemperature, when > 0, makes the first ply of a game
	// sample its move from a softmax over visit counts instead of
	// taking the argmax (§4.8 "softmax-temperature sampling").
	FirstMoveTemperature float32
}

// DefaultManagerConfig returns reasonable defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Flow:                   DefaultFlowConfig(),
		Sel:                    DefaultSelectorConfig(),
		Limit:                  DefaultLimitManager{BaseFraction: 0.05, ThinkHarderMax: 2.5},
		ProgressInterval:       100 * time.Millisecond,
		FutilityPruningEnabled: true,
	}
}

// Manager is the Search Manager (§4.8): it drives a Flow against one
// Tree until the configured limit says stop, dispatches progress, and
// picks the final move.
type Manager struct {
	tree *Tree
	flow *Flow
	cfg  ManagerConfig
	log  *log.Logger

	progressMu   sync.Mutex
	inProgress   bool
}

// NewManager builds a Manager for tree, using primary (and optionally
// secondary) evaluators.
func NewManager(tree *Tree, primary, secondary Evaluator, cfg ManagerConfig, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(log.Writer(), "mcts: ", log.LstdFlags)
	}
	return &Manager{
		tree: tree,
		flow: NewFlow(tree, primary, secondary, cfg.Flow, cfg.Sel),
		cfg:  cfg,
		log:  logger,
	}
}

// Result is what Run returns: the chosen move and the root's final
// statistics, for UCI-style reporting.
type Result struct {
	Move     int32
	Visits   uint32
	Q        float32
	CentipawnScore int
}

// Run drives the search under limit until it should stop, calling
// onProgress at most every cfg.ProgressInterval. onProgress may be nil.
func (m *Manager) Run(ctx context.Context, gameLimit SearchLimit, movesPlayed int, qVolatility float32, onProgress func(Progress)) (Result, error) {
	moveLimit := m.cfg.Limit.AllocateMove(gameLimit, movesPlayed, qVolatility)

	if m.cfg.Sel.RootPreloadDepth > 0 {
		if err := m.flow.Preload(ctx, m.cfg.Sel.RootPreloadDepth); err != nil {
			return Result{}, err
		}
	}

	started := time.Now()
	lastProgress := started
	startSize := m.tree.store.Size()

	shouldStop := func() bool {
		if m.cfg.FutilityPruningEnabled && m.isFutile() {
			return true
		}
		return m.cfg.Limit.ShouldStop(moveLimit, started, m.tree.store.Size()-startSize)
	}

	onBatch := func() {
		if onProgress == nil {
			return
		}
		now := time.Now()
		m.progressMu.Lock()
		if now.Sub(lastProgress) < m.cfg.ProgressInterval {
			m.progressMu.Unlock()
			return
		}
		lastProgress = now
		m.progressMu.Unlock()
		m.dispatchProgress(now, started, onProgress)
	}

	err := m.flow.RunBatches(ctx, shouldStop, onBatch)
	if err != nil {
		return Result{}, err
	}

	return m.bestMove(movesPlayed), nil
}

// dispatchProgress calls onProgress at most once at a time, dropping the
// call entirely (rather than queueing) if a previous dispatch is still
// in flight, per §4.8 "never reentrant, never backed up".
func (m *Manager) dispatchProgress(now, started time.Time, onProgress func(Progress)) {
	m.progressMu.Lock()
	if m.inProgress {
		m.progressMu.Unlock()
		return
	}
	m.inProgress = true
	m.progressMu.Unlock()

	defer func() {
		m.progressMu.Lock()
		m.inProgress = false
		m.progressMu.Unlock()
	}()

	root := m.tree.store.Node(m.tree.root)
	best, bestN, bestQ := m.bestChild(root)
	elapsed := now.Sub(started)
	nodes := m.tree.store.Size()
	nps := float64(0)
	if elapsed.Seconds() > 0 {
		nps = float64(nodes) / elapsed.Seconds()
	}
	onProgress(Progress{
		Nodes:     nodes,
		NPS:       nps,
		ElapsedMS: elapsed.Milliseconds(),
		BestMove:  best,
		BestN:     bestN,
		BestQ:     bestQ,
	})
}

// bestChild picks the root's most-visited child, breaking ties toward
// higher Q, then toward the earlier child slot (§4.8 "best move
// selection").
func (m *Manager) bestChild(root *Node) (move int32, visits uint32, q float32) {
	if !root.HasChildren() {
		return 0, 0, 0
	}
	slots := m.tree.store.ChildSlots(root.ChildrenStart(), root.NumPolicyMoves())
	bestIdx := -1
	var bestN uint32
	var bestQ float32
	for i, slot := range slots {
		if !slot.Child.Valid() {
			continue
		}
		c := m.tree.store.Node(slot.Child)
		n := c.Visits()
		q := -c.Q()
		if bestIdx == -1 || n > bestN || (n == bestN && q > bestQ) {
			bestIdx, bestN, bestQ = i, n, q
		}
	}
	if bestIdx == -1 {
		return 0, 0, 0
	}
	return slots[bestIdx].Move, bestN, bestQ
}

// bestMove computes the final Result, applying first-move softmax
// sampling when configured and this is the game's opening move.
func (m *Manager) bestMove(movesPlayed int) Result {
	root := m.tree.store.Node(m.tree.root)
	if movesPlayed == 0 && m.cfg.FirstMoveTemperature > 0 {
		if mv, n, q, ok := m.sampleFirstMove(root); ok {
			return Result{Move: mv, Visits: n, Q: q, CentipawnScore: CentipawnFromQ(q)}
		}
	}
	mv, n, q := m.bestChild(root)
	return Result{Move: mv, Visits: n, Q: q, CentipawnScore: CentipawnFromQ(q)}
}

func (m *Manager) sampleFirstMove(root *Node) (move int32, visits uint32, q float32, ok bool) {
	if !root.HasChildren() {
		return 0, 0, 0, false
	}
	slots := m.tree.store.ChildSlots(root.ChildrenStart(), root.NumPolicyMoves())
	logits := make([]float32, len(slots))
	for i, slot := range slots {
		if slot.Child.Valid() {
			logits[i] = float32(m.tree.store.Node(slot.Child).Visits())
		}
	}
	probs := make([]float32, len(logits))
	softmax(probs, logits, m.cfg.FirstMoveTemperature)

	r := rand.Float64()
	var cum float32
	for i, p := range probs {
		cum += p
		if float64(cum) >= r || i == len(probs)-1 {
			if !slots[i].Child.Valid() {
				return 0, 0, 0, false
			}
			c := m.tree.store.Node(slots[i].Child)
			return slots[i].Move, c.Visits(), -c.Q(), true
		}
	}
	return 0, 0, 0, false
}

// isFutile reports whether the current root statistics make further
// search unlikely to change the best move (§6
// "futility_pruning_stop_search_enabled"): the leading move's visit
// count exceeds the runner-up's by more than the square root of the node
// store's remaining free capacity. It does not consult this move's node
// or time budget.
func (m *Manager) isFutile() bool {
	root := m.tree.store.Node(m.tree.root)
	if !root.HasChildren() {
		return false
	}
	slots := m.tree.store.ChildSlots(root.ChildrenStart(), root.NumPolicyMoves())
	var bestN, secondN uint32
	for _, slot := range slots {
		if !slot.Child.Valid() {
			continue
		}
		n := m.tree.store.Node(slot.Child).Visits()
		if n > bestN {
			secondN = bestN
			bestN = n
		} else if n > secondN {
			secondN = n
		}
	}
	if bestN == 0 {
		return false
	}
	remaining := m.tree.store.Capacity() - m.tree.store.Size()
	return remaining > 0 && bestN > secondN && math32.Sqrt(float32(remaining)) < float32(bestN-secondN)
}
