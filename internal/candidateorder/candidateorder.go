// Package candidateorder provides the ordered-set primitive the wishlist
// engine uses to keep its candidate set sorted by a five-field key. It
// is adapted from anacrolix/torrent's internal/request-strategy
// ajwerner-btree.go, generalized from a PieceRequestOrderItem keyed by
// (priority, partial, availability, piece, infohash) to a CandidateKey
// keyed by (priority, file rank, priority file, tail, piece).
package candidateorder

import (
	"github.com/ajwerner/btree"
	"github.com/anacrolix/multiless"
)

// CandidateKey is the sort key for one Candidate. The underlying set
// treats two keys as the same entry only when they compare equal; keys for
// the same Piece with different sort fields are distinct entries.
type CandidateKey struct {
	Priority     int8
	FileRank     uint32
	PriorityFile bool
	Tail         bool
	Piece        uint32
}

// less returns the full ordering computation so callers can either take
// its boolean verdict (MustLess) or its tri-state ordering (OrderingInt),
// matching the pieceOrderLess usage in ajwerner-btree.go it is adapted
// from.
//
// Tail only breaks ties among pieces that are neither a priority file:
// once a piece is a priority file, its tail-ness is moot and pieces in
// that group fall straight through to piece-index order.
func less(a, b *CandidateKey) multiless.Computation {
	ml := multiless.New().
		Int(int(b.Priority), int(a.Priority)).
		Int(int(a.FileRank), int(b.FileRank)).
		Bool(b.PriorityFile, a.PriorityFile)
	if !a.PriorityFile && !b.PriorityFile {
		ml = ml.Bool(b.Tail, a.Tail)
	}
	return ml.Int(int(a.Piece), int(b.Piece))
}

// Less reports whether a sorts before b: higher priority first, then
// earliest file rank, then priority files before non-priority, then
// (among non-priority-file pieces) tail pieces before body pieces, then
// ascending piece index.
func Less(a, b CandidateKey) bool {
	return less(&a, &b).MustLess()
}

// Set is an ordered set of CandidateKeys, backed by an ajwerner/btree
// Set, the same generic ordered-set container anacrolix/torrent uses for
// its piece request order.
type Set struct {
	tree btree.Set[CandidateKey]
}

// NewSet constructs an empty, ready-to-use Set.
func NewSet() *Set {
	return &Set{
		tree: btree.MakeSet(func(a, b CandidateKey) int {
			return less(&a, &b).OrderingInt()
		}),
	}
}

// Add inserts key, replacing an entry that compares equal to it. It does
// not look up other entries by Piece: a key with the same Piece but
// different sort fields is added alongside the old one, so moving a piece
// means removing its old key first.
func (s *Set) Add(key CandidateKey) {
	s.tree.Upsert(key)
}

// Remove deletes key if present. It is a no-op otherwise.
func (s *Set) Remove(key CandidateKey) {
	s.tree.Delete(key)
}

// Scan calls f with every key in ascending sort order until f returns
// false or the set is exhausted.
func (s *Set) Scan(f func(CandidateKey) bool) {
	it := s.tree.Iterator()
	for it.First(); it.Valid(); it.Next() {
		if !f(it.Cur()) {
			return
		}
	}
}
