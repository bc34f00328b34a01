// This command plays one game of an engine against itself using the
// mock evaluator, demonstrating tree reuse across moves
// (Session.SearchContinue) and, with -peer, peer-tree cache reuse by a
// second session that shares that evaluator and reads the first
// session's cache.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	corezero "github.com/kestrelchess/corezero"
	"github.com/kestrelchess/corezero/evalmock"
	"github.com/kestrelchess/corezero/game"
	"github.com/kestrelchess/corezero/mcts"
)

var (
	nodesFlag  = flag.Int("nodes", 200, "nodes to search per move")
	movesFlag  = flag.Int("max_moves", 60, "maximum plies to play before stopping")
	peerFlag   = flag.Bool("peer", false, "also run a second session sharing the first session's cache")
)

func main() {
	flag.Parse()

	logger := log.New(log.Writer(), "selfplay: ", log.LstdFlags)

	cfg := corezero.DefaultConfig()
	cfg.NodeCapacity = 1 << 16
	cfg.ChildCapacity = 1 << 18
	nn := evalmock.New("mock-v1")

	sess, err := corezero.New(game.NewPosition(), cfg, nn, nil, logger)
	if err != nil {
		log.Fatal(err)
	}

	var peer *corezero.Session
	if *peerFlag {
		peerCfg := cfg
		peerCfg.ReusePositionEvaluationsFromOtherTree = true
		peer, err = corezero.New(game.NewPosition(), peerCfg, nn, nil, logger)
		if err != nil {
			log.Fatal(err)
		}
		if err := peer.BindPeer(sess); err != nil {
			log.Fatal(err)
		}
	}

	ctx := context.Background()
	limit := mcts.SearchLimit{Kind: mcts.NodesPerMove, Nodes: *nodesFlag}

	var played []game.Move
	for ply := 0; ply < *movesFlag; ply++ {
		var result mcts.Result
		var err error
		if ply == 0 {
			result, err = sess.Search(ctx, limit, nil)
		} else {
			result, err = sess.SearchContinue(ctx, played[len(played)-1:], limit, nil)
		}
		if err != nil {
			if errors.Is(err, corezero.ErrTerminalAtRoot) {
				break
			}
			log.Fatal(err)
		}
		mv := game.Move(result.Move)
		fmt.Printf("ply %d: move=%d visits=%d Q=%.4f cp=%d\n", ply, mv, result.Visits, result.Q, result.CentipawnScore)
		played = append(played, mv)

		if peer != nil {
			if _, err := peer.Search(ctx, mcts.SearchLimit{Kind: mcts.NodesPerMove, Nodes: *nodesFlag / 2}, nil); err != nil {
				log.Printf("peer search: %v", err)
			}
		}
	}
}
