package wishlist

import "github.com/RoaringBitmap/roaring"

// Mediator is the capability set the Wishlist queries to learn about a
// torrent, and through which it receives event notifications. It is a
// pure query surface: the torrent layer implements it, typically backed
// internally by a fileorder.Order and a piecepolicy.Policy, though the
// Wishlist itself never imports those packages directly — it only ever
// asks the Mediator.
//
// Implementations must not re-enter any Wishlist method from inside a
// Mediator method or from an event handler callback; the Wishlist is not
// reentrant.
type Mediator interface {
	// ClientHasPiece reports whether every block of piece is owned.
	ClientHasPiece(piece PieceIndex) bool
	// ClientWantsPiece reports whether any wanted file overlaps piece.
	ClientWantsPiece(piece PieceIndex) bool
	// ClientHasBlock reports whether block is owned.
	ClientHasBlock(block BlockIndex) bool
	// FileIndexForPiece returns the alphabetical rank of the earliest
	// wanted file overlapping piece, or NoFileRank if none does.
	FileIndexForPiece(piece PieceIndex) uint32
	// BlockSpan returns the half-open block range covering piece.
	BlockSpan(piece PieceIndex) BlockSpan
	// PieceCount returns the total number of pieces in the torrent.
	PieceCount() int
	// Priority returns the effective priority of piece, with any
	// edge-piece boosts already applied.
	Priority(piece PieceIndex) Priority
	// IsPieceInFileTail reports whether piece falls in the tail region
	// of a wanted video file it overlaps.
	IsPieceInFileTail(piece PieceIndex) bool
	// IsPieceInPriorityFile reports whether piece overlaps a wanted
	// priority file (disc index, album cover).
	IsPieceInPriorityFile(piece PieceIndex) bool
	// IsSequentialDownload reports whether sequential download policy is
	// active for this torrent.
	IsSequentialDownload() bool
	// Blocks returns a reference to the owned-blocks bitmap. The
	// Wishlist only ever reads it.
	Blocks() *roaring.Bitmap

	Events
}

// PeerID identifies the peer an event concerns. It is left as an opaque value:
// the Wishlist never inspects it, it only appears in the event
// signatures because spec.md's event table includes it.
type (
	PeerID any
)

// Events is the capability set of subscription points. Each Observe
// method returns an unsubscribe function; calling it releases the
// subscription. This is the capability-set re-expression of the
// teacher's cyclic Mediator/Wishlist observer graph: the Wishlist never
// holds a typed reference back into the Mediator's internals, only the
// closures it was handed.
type Events interface {
	ObserveFilesWantedChanged(func(files []FileIndex, wanted bool)) (unsubscribe func())
	ObservePriorityChanged(func(files []FileIndex, priority Priority)) (unsubscribe func())
	ObserveSentRequest(func(peer PeerID, span BlockSpan)) (unsubscribe func())
	ObserveSentCancel(func(peer PeerID, block BlockIndex)) (unsubscribe func())
	ObserveGotReject(func(peer PeerID, block BlockIndex)) (unsubscribe func())
	ObserveGotChoke(func(peer PeerID, requests *roaring.Bitmap)) (unsubscribe func())
	ObservePeerDisconnect(func(peer PeerID, have, requests *roaring.Bitmap)) (unsubscribe func())
	ObserveGotBlock(func(block BlockIndex)) (unsubscribe func())
	ObservePieceCompleted(func(piece PieceIndex)) (unsubscribe func())
	ObserveGotBadPiece(func(piece PieceIndex)) (unsubscribe func())
}
