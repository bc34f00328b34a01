// This command plays random games and records every distinct encoded
// move it sees, to sanity-check that the reference game package's move
// encoding stays dense and stable across many random positions.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/kestrelchess/corezero/game"
)

var (
	numGameFlag   = flag.Int("num_game", 1000, "number of random games to play")
	movesPathFlag = flag.String("path", "chess_moves.txt", "file to append newly seen moves to")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*movesPathFlag, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	seen := make(map[game.Move]struct{})
	for i := 0; i < *numGameFlag; i++ {
		pos := game.NewPosition()
		for {
			ended, _ := pos.Terminal()
			if ended {
				break
			}
			legal := pos.LegalMoves()
			if len(legal) == 0 {
				break
			}
			for _, mv := range legal {
				if _, ok := seen[mv]; ok {
					continue
				}
				seen[mv] = struct{}{}
				if _, err := f.WriteString(encodedLine(mv)); err != nil {
					log.Fatal(err)
				}
			}
			pick := legal[rand.Intn(len(legal))]
			pos = pos.Apply(pick).(*game.Position)
		}
	}
	log.Printf("recorded %d distinct moves out of an action space of %d", len(seen), game.ActionSpaceSize)
}

func encodedLine(mv game.Move) string {
	return fmt.Sprintf("%d\n", mv)
}
