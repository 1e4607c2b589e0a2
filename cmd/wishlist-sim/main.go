// Command wishlist-sim drives a Wishlist against a fake Mediator so its
// selection behavior can be inspected from the command line without a
// real torrent client attached.
package main

import (
	"fmt"

	"github.com/alexflint/go-arg"
	"github.com/anacrolix/envpprof"
	"github.com/anacrolix/missinggo/v2/bitmap"
	"github.com/pkg/errors"

	"github.com/go-torrent/wishlist"
)

type args struct {
	Pieces         int     `arg:"--pieces" default:"8" help:"number of pieces in the simulated torrent"`
	BlocksPerPiece int     `arg:"--blocks-per-piece" default:"4" help:"blocks per piece"`
	Sequential     bool    `arg:"--sequential" help:"simulate sequential download policy"`
	PeerCoverage   float64 `arg:"--peer-coverage" default:"1.0" help:"fraction of pieces the simulated peer has, from piece 0 up"`
	Rounds         int     `arg:"--rounds" default:"3" help:"number of Next() calls to simulate"`
	BatchSize      int     `arg:"--batch" default:"4" help:"blocks requested per round"`
}

func main() {
	defer envpprof.Stop()

	var a args
	arg.MustParse(&a)

	if err := run(a); err != nil {
		fmt.Println("wishlist-sim:", err)
	}
}

func run(a args) error {
	if a.Pieces <= 0 || a.BlocksPerPiece <= 0 {
		return errors.New("pieces and blocks-per-piece must be positive")
	}

	m := newSimMediator(a.Pieces, a.BlocksPerPiece, a.Sequential)
	wl, err := wishlist.New(m)
	if err != nil {
		return errors.Wrap(err, "constructing wishlist")
	}
	defer wl.Close()

	peerHas := simPeerHaveSet(a.Pieces, a.PeerCoverage)

	for round := 0; round < a.Rounds; round++ {
		spans := wl.Next(a.BatchSize, func(p wishlist.PieceIndex) bool {
			return peerHas.Contains(bitmap.BitIndex(p))
		})
		if len(spans) == 0 {
			fmt.Printf("round %d: nothing to request\n", round)
			break
		}
		fmt.Printf("round %d: requesting %v\n", round, spans)
		m.fireSentRequest(spans)
		for _, span := range spans {
			for b := span.Begin; b < span.End; b++ {
				m.markBlockOwned(b)
			}
		}
	}
	return nil
}

// simPeerHaveSet builds the have-bitmap for a simulated peer that owns
// the first coverage fraction of pieces, by piece index.
func simPeerHaveSet(pieces int, coverage float64) *bitmap.Bitmap {
	have := &bitmap.Bitmap{}
	n := int(float64(pieces) * coverage)
	if n > pieces {
		n = pieces
	}
	have.AddRange(0, bitmap.BitRange(n))
	return have
}
