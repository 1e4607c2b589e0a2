package wishlist

import "github.com/RoaringBitmap/roaring"

// candidate is one (wanted, not-owned) piece tracked by the Wishlist.
// Candidates are owned exclusively by the Wishlist and are never shared.
type candidate struct {
	piece PieceIndex

	// span is the current block span; rawSpan is an unchanged copy taken
	// at creation time, restored by got_bad_piece without re-querying
	// the Mediator.
	span, rawSpan BlockSpan

	fileRank       uint32
	priority       Priority
	inTail         bool
	inPriorityFile bool

	// unrequested holds blocks of span that are wanted, not owned, and
	// not outstanding. It is the sole source of truth for "should next()
	// offer this block"; the Wishlist's outstanding bitmap is the sole
	// source of truth for "has anyone been asked for this block".
	unrequested *roaring.Bitmap
}

func (c *candidate) key() candidateKey {
	return candidateKey{
		Priority:     int8(c.priority),
		FileRank:     c.fileRank,
		PriorityFile: c.inPriorityFile,
		Tail:         c.inTail,
		Piece:        c.piece,
	}
}
