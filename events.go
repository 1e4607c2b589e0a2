package wishlist

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/anacrolix/log"
)

// rebuildAll rebuilds the whole candidate set from scratch: every piece
// the Mediator reports as wanted, not owned and not PriorityNone gets a
// candidate; every
// other piece's candidate, if any, is dropped. Used at construction and
// on files_wanted_changed.
func (w *Wishlist) rebuildAll() {
	count := w.mediator.PieceCount()
	seen := make(map[PieceIndex]bool, len(w.candidates))
	for p := 0; p < count; p++ {
		piece := PieceIndex(p)
		if w.mediator.ClientWantsPiece(piece) && !w.mediator.ClientHasPiece(piece) &&
			w.mediator.Priority(piece) != PriorityNone {
			seen[piece] = true
			w.upsertCandidate(piece)
		}
	}
	for piece := range w.candidates {
		if !seen[piece] {
			w.dropCandidate(piece)
		}
	}
}

// upsertCandidate creates a candidate for piece if it doesn't exist yet,
// or refreshes its sort-key fields (priority, file rank, tail,
// priority-file) if it does, re-keying it in the ordered index. A piece
// whose refreshed priority comes back PriorityNone is dropped instead:
// Wishlist never holds a candidate the Mediator says is not wanted at all.
func (w *Wishlist) upsertCandidate(piece PieceIndex) {
	priority := w.mediator.Priority(piece)
	if cand, ok := w.candidates[piece]; ok {
		if priority == PriorityNone {
			w.dropCandidate(piece)
			return
		}
		w.order.Remove(cand.key())
		cand.priority = priority
		cand.fileRank = w.mediator.FileIndexForPiece(piece)
		cand.inTail = w.mediator.IsPieceInFileTail(piece)
		cand.inPriorityFile = w.mediator.IsPieceInPriorityFile(piece)
		w.order.Add(cand.key())
		return
	}
	if priority == PriorityNone {
		return
	}

	span := w.mediator.BlockSpan(piece)
	cand := &candidate{
		piece:          piece,
		span:           span,
		rawSpan:        span,
		priority:       priority,
		fileRank:       w.mediator.FileIndexForPiece(piece),
		inTail:         w.mediator.IsPieceInFileTail(piece),
		inPriorityFile: w.mediator.IsPieceInPriorityFile(piece),
		unrequested:    roaring.New(),
	}
	w.fillUnrequested(cand, span)
	w.candidates[piece] = cand
	for b := span.Begin; b < span.End; b++ {
		w.blockPiece[b] = piece
	}
	w.order.Add(cand.key())
}

// fillUnrequested populates cand.unrequested with every block of span
// that is neither owned nor already outstanding.
func (w *Wishlist) fillUnrequested(cand *candidate, span BlockSpan) {
	cand.unrequested.Clear()
	for b := span.Begin; b < span.End; b++ {
		if w.mediator.ClientHasBlock(b) {
			continue
		}
		if w.outstanding.Contains(b) {
			continue
		}
		cand.unrequested.Add(b)
	}
}

func (w *Wishlist) dropCandidate(piece PieceIndex) {
	cand, ok := w.candidates[piece]
	if !ok {
		return
	}
	w.order.Remove(cand.key())
	for b := cand.span.Begin; b < cand.span.End; b++ {
		delete(w.blockPiece, b)
	}
	delete(w.candidates, piece)
}

func (w *Wishlist) candidateForBlock(block BlockIndex) *candidate {
	piece, ok := w.blockPiece[block]
	if !ok {
		w.logger.Levelf(log.Debug, "wishlist: event for block %d of unknown piece", block)
		return nil
	}
	return w.candidates[piece]
}

// onFilesWantedChanged handles files_wanted_changed: it rebuilds the
// candidate set from scratch. The Mediator is responsible for having
// already refreshed its own FileOrder before firing this event; Wishlist
// only needs to re-derive which pieces are now wanted-and-not-owned and
// re-read their sort keys.
func (w *Wishlist) onFilesWantedChanged(_ []FileIndex, _ bool) {
	w.rebuildAll()
}

// onPriorityChanged handles priority_changed: refresh priority and file
// rank on every existing candidate and re-sort.
func (w *Wishlist) onPriorityChanged(_ []FileIndex, _ Priority) {
	pieces := make([]PieceIndex, 0, len(w.candidates))
	for piece := range w.candidates {
		pieces = append(pieces, piece)
	}
	for _, piece := range pieces {
		w.upsertCandidate(piece)
	}
}

// onSentRequest handles sent_request: mark blocks outstanding and erase
// them from the owning candidate's unrequested set. Idempotent: firing
// twice for overlapping spans leaves the state identical to firing once.
func (w *Wishlist) onSentRequest(_ PeerID, span BlockSpan) {
	for b := span.Begin; b < span.End; b++ {
		w.outstanding.Add(b)
		if cand := w.candidateForBlock(b); cand != nil {
			cand.unrequested.Remove(b)
		}
	}
}

// onSentCancel handles sent_cancel: clears the outstanding bit only. The
// block is not restored to the unrequested pool here; got_reject,
// got_choke, peer_disconnect or the endgame pass are what make a
// cancelled block requestable again. See DESIGN.md for why this
// resolution of spec.md's open question was chosen.
func (w *Wishlist) onSentCancel(_ PeerID, block BlockIndex) {
	w.outstanding.Remove(block)
}

// onGotReject handles got_reject: clears the outstanding bit and, if the
// block isn't owned, reinserts it into the owning candidate's
// unrequested set.
func (w *Wishlist) onGotReject(_ PeerID, block BlockIndex) {
	w.outstanding.Remove(block)
	w.reinstateIfNotOwned(block)
}

// onGotChoke handles got_choke: for every block the peer had
// outstanding, clear its Outstanding bit and, if not owned, reinstate it.
func (w *Wishlist) onGotChoke(_ PeerID, requests *roaring.Bitmap) {
	w.reinstateAll(requests)
}

// onPeerDisconnect has the same effect as got_choke for the peer's
// outstanding requests; the have bitmap isn't needed by Wishlist.
func (w *Wishlist) onPeerDisconnect(_ PeerID, _ *roaring.Bitmap, requests *roaring.Bitmap) {
	w.reinstateAll(requests)
}

func (w *Wishlist) reinstateAll(requests *roaring.Bitmap) {
	if requests == nil {
		return
	}
	it := requests.Iterator()
	for it.HasNext() {
		block := it.Next()
		w.outstanding.Remove(block)
		w.reinstateIfNotOwned(block)
	}
}

func (w *Wishlist) reinstateIfNotOwned(block BlockIndex) {
	if w.mediator.ClientHasBlock(block) {
		return
	}
	if cand := w.candidateForBlock(block); cand != nil {
		cand.unrequested.Add(block)
	}
}

// onGotBlock handles got_block: the block is now owned, so clear its
// outstanding bit and drop it from its candidate's unrequested set.
func (w *Wishlist) onGotBlock(block BlockIndex) {
	w.outstanding.Remove(block)
	if cand := w.candidateForBlock(block); cand != nil {
		cand.unrequested.Remove(block)
	}
}

// onPieceCompleted handles piece_completed: the candidate for the piece
// is removed entirely.
func (w *Wishlist) onPieceCompleted(piece PieceIndex) {
	w.dropCandidate(piece)
}

// onGotBadPiece handles got_bad_piece: resets the candidate's block span
// to its raw value, clears its unrequested set, and re-inserts every
// block of the piece the client does not currently own.
func (w *Wishlist) onGotBadPiece(piece PieceIndex) {
	cand, ok := w.candidates[piece]
	if !ok {
		w.logger.Levelf(log.Debug, "wishlist: got_bad_piece for unknown piece %d", piece)
		return
	}
	for b := cand.span.Begin; b < cand.span.End; b++ {
		delete(w.blockPiece, b)
	}
	cand.span = cand.rawSpan
	for b := cand.span.Begin; b < cand.span.End; b++ {
		w.blockPiece[b] = piece
		w.outstanding.Remove(b)
	}
	w.fillUnrequestedIgnoringOutstanding(cand)
}

// fillUnrequestedIgnoringOutstanding rebuilds the unrequested set after a
// bad-piece reset: every block not currently owned is eligible again,
// since got_bad_piece already cleared Outstanding for the whole piece.
func (w *Wishlist) fillUnrequestedIgnoringOutstanding(cand *candidate) {
	cand.unrequested.Clear()
	for b := cand.span.Begin; b < cand.span.End; b++ {
		if w.mediator.ClientHasBlock(b) {
			continue
		}
		cand.unrequested.Add(b)
	}
}
