// This command runs a short search from the standard starting position
// and writes the resulting tree as a Graphviz DOT file, exercising
// corezero.WriteDOT.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	corezero "github.com/kestrelchess/corezero"
	"github.com/kestrelchess/corezero/evalmock"
	"github.com/kestrelchess/corezero/game"
	"github.com/kestrelchess/corezero/mcts"
)

var (
	nodesFlag = flag.Int("nodes", 500, "nodes to search")
	depthFlag = flag.Int("depth", 3, "plies to render from the root")
	outFlag   = flag.String("out", "tree.dot", "output DOT file path")
)

func main() {
	flag.Parse()

	cfg := corezero.DefaultConfig()
	cfg.NodeCapacity = 1 << 16
	cfg.ChildCapacity = 1 << 18

	sess, err := corezero.New(game.NewPosition(), cfg, evalmock.New("mock-v1"), nil, nil)
	if err != nil {
		log.Fatal(err)
	}

	_, err = sess.Search(context.Background(), mcts.SearchLimit{Kind: mcts.NodesPerMove, Nodes: *nodesFlag}, nil)
	if err != nil {
		log.Fatal(err)
	}

	dot, err := corezero.WriteDOT(sess.Tree(), *depthFlag)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(*outFlag, []byte(dot), 0644); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s", *outFlag)
}
