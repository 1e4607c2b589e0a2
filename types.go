// Package wishlist implements the piece-selection engine of a BitTorrent
// client: it decides which blocks to request next from which peer.
package wishlist

import "fmt"

// PieceIndex identifies a piece of the torrent. Piece count is fixed once
// metainfo is installed.
type PieceIndex = uint32

// BlockIndex identifies a block, a fixed-size sub-range of a piece. Blocks
// are numbered contiguously across the whole torrent.
type BlockIndex = uint32

// FileIndex identifies a file in the torrent. File count is fixed once
// metainfo is installed.
type FileIndex = uint32

// Priority is a small signed value; only relative order matters.
type Priority int8

const (
	// PriorityNone means the piece is not wanted at all.
	PriorityNone   Priority = -2
	PriorityLow    Priority = -1
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 1
)

func (p Priority) String() string {
	switch p {
	case PriorityNone:
		return "none"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("Priority(%d)", int8(p))
	}
}

// NoFileRank is the sentinel file rank for a piece that no wanted file
// covers. It must compare greater than every real rank so such pieces
// never come first.
const NoFileRank = ^uint32(0)

// BlockSpan is a half-open range of block indices [Begin, End).
type BlockSpan struct {
	Begin, End BlockIndex
}

// Len returns the number of blocks covered by the span.
func (s BlockSpan) Len() int {
	if s.End <= s.Begin {
		return 0
	}
	return int(s.End - s.Begin)
}

// Empty reports whether the span covers no blocks.
func (s BlockSpan) Empty() bool {
	return s.End <= s.Begin
}

func (s BlockSpan) String() string {
	return fmt.Sprintf("[%d,%d)", s.Begin, s.End)
}
