package main

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/go-torrent/wishlist"
)

// simMediator is a minimal, single-subscriber wishlist.Mediator used to
// exercise a Wishlist from the command line. Every piece belongs to a
// single unranked, non-priority, non-tail file; all pieces are wanted.
type simMediator struct {
	pieces         int
	blocksPerPiece int
	sequential     bool

	owned *roaring.Bitmap

	onSentRequest func(peer wishlist.PeerID, span wishlist.BlockSpan)
	onGotBlock    func(block wishlist.BlockIndex)
}

func newSimMediator(pieces, blocksPerPiece int, sequential bool) *simMediator {
	return &simMediator{
		pieces:         pieces,
		blocksPerPiece: blocksPerPiece,
		sequential:     sequential,
		owned:          roaring.New(),
	}
}

func (m *simMediator) ClientHasPiece(piece wishlist.PieceIndex) bool {
	span := m.BlockSpan(piece)
	for b := span.Begin; b < span.End; b++ {
		if !m.owned.Contains(uint32(b)) {
			return false
		}
	}
	return true
}

func (m *simMediator) ClientWantsPiece(piece wishlist.PieceIndex) bool {
	return int(piece) < m.pieces
}

func (m *simMediator) ClientHasBlock(block wishlist.BlockIndex) bool {
	return m.owned.Contains(uint32(block))
}

func (m *simMediator) FileIndexForPiece(wishlist.PieceIndex) uint32 {
	return 0
}

func (m *simMediator) BlockSpan(piece wishlist.PieceIndex) wishlist.BlockSpan {
	begin := wishlist.BlockIndex(int(piece) * m.blocksPerPiece)
	return wishlist.BlockSpan{Begin: begin, End: begin + wishlist.BlockIndex(m.blocksPerPiece)}
}

func (m *simMediator) PieceCount() int {
	return m.pieces
}

func (m *simMediator) Priority(wishlist.PieceIndex) wishlist.Priority {
	return wishlist.PriorityNormal
}

func (m *simMediator) IsPieceInFileTail(wishlist.PieceIndex) bool {
	return false
}

func (m *simMediator) IsPieceInPriorityFile(wishlist.PieceIndex) bool {
	return false
}

func (m *simMediator) IsSequentialDownload() bool {
	return m.sequential
}

func (m *simMediator) Blocks() *roaring.Bitmap {
	return m.owned
}

func (m *simMediator) ObserveFilesWantedChanged(func([]wishlist.FileIndex, bool)) func() {
	return func() {}
}

func (m *simMediator) ObservePriorityChanged(func([]wishlist.FileIndex, wishlist.Priority)) func() {
	return func() {}
}

func (m *simMediator) ObserveSentRequest(f func(wishlist.PeerID, wishlist.BlockSpan)) func() {
	m.onSentRequest = f
	return func() { m.onSentRequest = nil }
}

func (m *simMediator) ObserveSentCancel(func(wishlist.PeerID, wishlist.BlockIndex)) func() {
	return func() {}
}

func (m *simMediator) ObserveGotReject(func(wishlist.PeerID, wishlist.BlockIndex)) func() {
	return func() {}
}

func (m *simMediator) ObserveGotChoke(func(wishlist.PeerID, *roaring.Bitmap)) func() {
	return func() {}
}

func (m *simMediator) ObservePeerDisconnect(func(wishlist.PeerID, *roaring.Bitmap, *roaring.Bitmap)) func() {
	return func() {}
}

func (m *simMediator) ObserveGotBlock(f func(wishlist.BlockIndex)) func() {
	m.onGotBlock = f
	return func() { m.onGotBlock = nil }
}

func (m *simMediator) ObservePieceCompleted(func(wishlist.PieceIndex)) func() {
	return func() {}
}

func (m *simMediator) ObserveGotBadPiece(func(wishlist.PieceIndex)) func() {
	return func() {}
}

// fireSentRequest notifies the Wishlist that spans have been requested
// from the simulated peer, marking their blocks outstanding.
func (m *simMediator) fireSentRequest(spans []wishlist.BlockSpan) {
	if m.onSentRequest == nil {
		return
	}
	for _, span := range spans {
		m.onSentRequest("sim-peer", span)
	}
}

// markBlockOwned simulates the block's data having arrived: it records
// ownership and fires got_block so the Wishlist drops the block from its
// candidate's unrequested set.
func (m *simMediator) markBlockOwned(block wishlist.BlockIndex) {
	m.owned.Add(uint32(block))
	if m.onGotBlock != nil {
		m.onGotBlock(block)
	}
}
