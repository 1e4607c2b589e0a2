package wishlist

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/anacrolix/log"
	glist "github.com/bahlo/generic-list-go"
	"github.com/pkg/errors"

	"github.com/go-torrent/wishlist/internal/candidateorder"
)

type candidateKey = candidateorder.CandidateKey

// Wishlist is the stateful piece-selection engine for a single torrent.
// It maintains the sorted set of wanted, not-owned pieces, the
// per-piece unrequested-block sets, and an outstanding-request bitmap,
// reacting to the ten events described by Events and answering Next in
// bounded time.
//
// A Wishlist is confined to a single goroutine: it neither spawns tasks
// nor blocks, and none of its methods may be called re-entrantly from a
// Mediator callback.
type Wishlist struct {
	mediator Mediator
	logger   log.Logger

	candidates map[PieceIndex]*candidate
	blockPiece map[BlockIndex]PieceIndex
	order      *candidateorder.Set

	// outstanding is the dense bit vector over all blocks of the
	// torrent; a set bit means some peer has been asked for the block
	// and it has neither arrived, nor been rejected, choked or
	// cancelled.
	outstanding *roaring.Bitmap

	tokens [10]func()
}

// New constructs a Wishlist over mediator, subscribes to all ten events,
// and builds the initial candidate set.
func New(mediator Mediator) (*Wishlist, error) {
	if mediator.PieceCount() <= 0 {
		return nil, errors.New("wishlist: mediator reports zero pieces")
	}
	w := &Wishlist{
		mediator:    mediator,
		logger:      log.Default,
		candidates:  make(map[PieceIndex]*candidate),
		blockPiece:  make(map[BlockIndex]PieceIndex),
		order:       candidateorder.NewSet(),
		outstanding: roaring.New(),
	}
	w.subscribe()
	w.rebuildAll()
	return w, nil
}

func (w *Wishlist) subscribe() {
	w.tokens[0] = w.mediator.ObserveFilesWantedChanged(w.onFilesWantedChanged)
	w.tokens[1] = w.mediator.ObservePriorityChanged(w.onPriorityChanged)
	w.tokens[2] = w.mediator.ObserveSentRequest(w.onSentRequest)
	w.tokens[3] = w.mediator.ObserveSentCancel(w.onSentCancel)
	w.tokens[4] = w.mediator.ObserveGotReject(w.onGotReject)
	w.tokens[5] = w.mediator.ObserveGotChoke(w.onGotChoke)
	w.tokens[6] = w.mediator.ObservePeerDisconnect(w.onPeerDisconnect)
	w.tokens[7] = w.mediator.ObserveGotBlock(w.onGotBlock)
	w.tokens[8] = w.mediator.ObservePieceCompleted(w.onPieceCompleted)
	w.tokens[9] = w.mediator.ObserveGotBadPiece(w.onGotBadPiece)
}

// Close releases all ten event subscriptions. A closed Wishlist must not
// be used again.
func (w *Wishlist) Close() {
	for i, unsubscribe := range w.tokens {
		if unsubscribe != nil {
			unsubscribe()
		}
		w.tokens[i] = nil
	}
}

// Next returns up to n blocks the given peer can usefully be asked for,
// arranged as merged, non-overlapping contiguous spans. If the first
// pass (blocks nobody has been asked for) finds nothing, an endgame
// fallback pass allows re-requesting outstanding-but-not-owned blocks.
func (w *Wishlist) Next(n int, peerHasPiece func(PieceIndex) bool) []BlockSpan {
	if n <= 0 || len(w.candidates) == 0 {
		return nil
	}
	sequential := w.mediator.IsSequentialDownload()
	blocks := w.collect(n, peerHasPiece, sequential, false)
	if len(blocks) == 0 {
		blocks = w.collect(n, peerHasPiece, sequential, true)
	}
	return assembleSpans(blocks)
}

// NextAvailable is Next with peer availability ignored, for the
// seed/fully-available case.
func (w *Wishlist) NextAvailable(n int) []BlockSpan {
	return w.Next(n, func(PieceIndex) bool { return true })
}

// collect runs one pass (unrequested, or endgame when fallback is true)
// over the candidate order, honoring peerHasPiece and, in sequential
// mode, the single-file-per-call boundary rule.
func (w *Wishlist) collect(n int, peerHasPiece func(PieceIndex) bool, sequential, fallback bool) []BlockIndex {
	picked := make([]BlockIndex, 0, n)
	added := roaring.New()

	haveMarker := false
	var curPriority int8
	var curFileRank uint32

	w.order.Scan(func(key candidateKey) bool {
		if len(picked) >= n {
			return false
		}
		if sequential {
			if haveMarker && (key.Priority != curPriority || key.FileRank != curFileRank) {
				if len(picked) > 0 {
					return false
				}
				curPriority, curFileRank = key.Priority, key.FileRank
			} else if !haveMarker {
				curPriority, curFileRank = key.Priority, key.FileRank
				haveMarker = true
			}
		}

		cand := w.candidates[key.Piece]
		if cand == nil {
			return true
		}
		if !peerHasPiece(cand.piece) {
			return true
		}

		if fallback {
			w.extractFallback(cand, n, &picked, added)
		} else {
			w.extractUnrequested(cand, n, &picked, added)
		}
		return true
	})
	return picked
}

func (w *Wishlist) extractUnrequested(cand *candidate, n int, picked *[]BlockIndex, added *roaring.Bitmap) {
	if cand.unrequested.IsEmpty() {
		return
	}
	it := cand.unrequested.Iterator()
	for it.HasNext() && len(*picked) < n {
		b := it.Next()
		*picked = append(*picked, b)
		added.Add(b)
	}
}

func (w *Wishlist) extractFallback(cand *candidate, n int, picked *[]BlockIndex, added *roaring.Bitmap) {
	for b := cand.span.Begin; b < cand.span.End && len(*picked) < n; b++ {
		if w.mediator.ClientHasBlock(b) {
			continue
		}
		if added.Contains(b) {
			continue
		}
		*picked = append(*picked, b)
		added.Add(b)
	}
}

// assembleSpans sorts picked block indices ascending and folds runs of
// consecutive indices into merged spans.
func assembleSpans(blocks []BlockIndex) []BlockSpan {
	if len(blocks) == 0 {
		return nil
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	runs := glist.New[BlockSpan]()
	for _, b := range blocks {
		if back := runs.Back(); back != nil && back.Value.End == b {
			back.Value.End = b + 1
			continue
		}
		runs.PushBack(BlockSpan{Begin: b, End: b + 1})
	}

	ret := make([]BlockSpan, 0, runs.Len())
	for e := runs.Front(); e != nil; e = e.Next() {
		ret = append(ret, e.Value)
	}
	return ret
}
