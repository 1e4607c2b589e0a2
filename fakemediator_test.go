package wishlist

import "github.com/RoaringBitmap/roaring"

// fakeMediator is an in-memory, single-subscriber Mediator used to drive
// Wishlist from tests without a real torrent attached. Fields default to
// the "one normal-priority, unranked, non-tail, non-priority-file piece
// per call" case; tests override only what a scenario needs.
type fakeMediator struct {
	pieces         int
	blocksPerPiece int
	sequential     bool

	fileRank       map[PieceIndex]uint32
	priority       map[PieceIndex]Priority
	notWanted      map[PieceIndex]bool
	inTail         map[PieceIndex]bool
	inPriorityFile map[PieceIndex]bool

	owned *roaring.Bitmap

	onFilesWantedChanged func([]FileIndex, bool)
	onPriorityChanged    func([]FileIndex, Priority)
	onSentRequest        func(PeerID, BlockSpan)
	onSentCancel         func(PeerID, BlockIndex)
	onGotReject          func(PeerID, BlockIndex)
	onGotChoke           func(PeerID, *roaring.Bitmap)
	onPeerDisconnect     func(PeerID, *roaring.Bitmap, *roaring.Bitmap)
	onGotBlock           func(BlockIndex)
	onPieceCompleted     func(PieceIndex)
	onGotBadPiece        func(PieceIndex)
}

func newFakeMediator(pieces, blocksPerPiece int) *fakeMediator {
	return &fakeMediator{
		pieces:         pieces,
		blocksPerPiece: blocksPerPiece,
		fileRank:       map[PieceIndex]uint32{},
		priority:       map[PieceIndex]Priority{},
		notWanted:      map[PieceIndex]bool{},
		inTail:         map[PieceIndex]bool{},
		inPriorityFile: map[PieceIndex]bool{},
		owned:          roaring.New(),
	}
}

func (m *fakeMediator) BlockSpan(piece PieceIndex) BlockSpan {
	begin := BlockIndex(int(piece) * m.blocksPerPiece)
	return BlockSpan{Begin: begin, End: begin + BlockIndex(m.blocksPerPiece)}
}

func (m *fakeMediator) ClientHasPiece(piece PieceIndex) bool {
	span := m.BlockSpan(piece)
	for b := span.Begin; b < span.End; b++ {
		if !m.owned.Contains(b) {
			return false
		}
	}
	return true
}

func (m *fakeMediator) ClientWantsPiece(piece PieceIndex) bool {
	if int(piece) >= m.pieces {
		return false
	}
	return !m.notWanted[piece]
}

func (m *fakeMediator) ClientHasBlock(block BlockIndex) bool {
	return m.owned.Contains(block)
}

func (m *fakeMediator) FileIndexForPiece(piece PieceIndex) uint32 {
	return m.fileRank[piece]
}

func (m *fakeMediator) PieceCount() int {
	return m.pieces
}

func (m *fakeMediator) Priority(piece PieceIndex) Priority {
	return m.priority[piece]
}

func (m *fakeMediator) IsPieceInFileTail(piece PieceIndex) bool {
	return m.inTail[piece]
}

func (m *fakeMediator) IsPieceInPriorityFile(piece PieceIndex) bool {
	return m.inPriorityFile[piece]
}

func (m *fakeMediator) IsSequentialDownload() bool {
	return m.sequential
}

func (m *fakeMediator) Blocks() *roaring.Bitmap {
	return m.owned
}

func (m *fakeMediator) ObserveFilesWantedChanged(f func([]FileIndex, bool)) func() {
	m.onFilesWantedChanged = f
	return func() { m.onFilesWantedChanged = nil }
}

func (m *fakeMediator) ObservePriorityChanged(f func([]FileIndex, Priority)) func() {
	m.onPriorityChanged = f
	return func() { m.onPriorityChanged = nil }
}

func (m *fakeMediator) ObserveSentRequest(f func(PeerID, BlockSpan)) func() {
	m.onSentRequest = f
	return func() { m.onSentRequest = nil }
}

func (m *fakeMediator) ObserveSentCancel(f func(PeerID, BlockIndex)) func() {
	m.onSentCancel = f
	return func() { m.onSentCancel = nil }
}

func (m *fakeMediator) ObserveGotReject(f func(PeerID, BlockIndex)) func() {
	m.onGotReject = f
	return func() { m.onGotReject = nil }
}

func (m *fakeMediator) ObserveGotChoke(f func(PeerID, *roaring.Bitmap)) func() {
	m.onGotChoke = f
	return func() { m.onGotChoke = nil }
}

func (m *fakeMediator) ObservePeerDisconnect(f func(PeerID, *roaring.Bitmap, *roaring.Bitmap)) func() {
	m.onPeerDisconnect = f
	return func() { m.onPeerDisconnect = nil }
}

func (m *fakeMediator) ObserveGotBlock(f func(BlockIndex)) func() {
	m.onGotBlock = f
	return func() { m.onGotBlock = nil }
}

func (m *fakeMediator) ObservePieceCompleted(f func(PieceIndex)) func() {
	m.onPieceCompleted = f
	return func() { m.onPieceCompleted = nil }
}

func (m *fakeMediator) ObserveGotBadPiece(f func(PieceIndex)) func() {
	m.onGotBadPiece = f
	return func() { m.onGotBadPiece = nil }
}

func (m *fakeMediator) fireSentRequest(span BlockSpan) {
	if m.onSentRequest != nil {
		m.onSentRequest("peer", span)
	}
}

func (m *fakeMediator) fireSentCancel(block BlockIndex) {
	if m.onSentCancel != nil {
		m.onSentCancel("peer", block)
	}
}

func (m *fakeMediator) fireGotReject(block BlockIndex) {
	if m.onGotReject != nil {
		m.onGotReject("peer", block)
	}
}

func (m *fakeMediator) fireGotChoke(requests *roaring.Bitmap) {
	if m.onGotChoke != nil {
		m.onGotChoke("peer", requests)
	}
}

func (m *fakeMediator) firePeerDisconnect(have, requests *roaring.Bitmap) {
	if m.onPeerDisconnect != nil {
		m.onPeerDisconnect("peer", have, requests)
	}
}

// fireGotBlock marks the block owned and notifies the Wishlist, mirroring
// how a real client updates its own bitfield before firing got_block.
func (m *fakeMediator) fireGotBlock(block BlockIndex) {
	m.owned.Add(block)
	if m.onGotBlock != nil {
		m.onGotBlock(block)
	}
}

func (m *fakeMediator) firePieceCompleted(piece PieceIndex) {
	if m.onPieceCompleted != nil {
		m.onPieceCompleted(piece)
	}
}

func (m *fakeMediator) fireGotBadPiece(piece PieceIndex) {
	if m.onGotBadPiece != nil {
		m.onGotBadPiece(piece)
	}
}

func (m *fakeMediator) fireFilesWantedChanged(files []FileIndex, wanted bool) {
	if m.onFilesWantedChanged != nil {
		m.onFilesWantedChanged(files, wanted)
	}
}

func (m *fakeMediator) firePriorityChanged(files []FileIndex, p Priority) {
	if m.onPriorityChanged != nil {
		m.onPriorityChanged(files, p)
	}
}
