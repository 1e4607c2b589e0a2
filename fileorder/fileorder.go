// Package fileorder derives the case-insensitive alphabetical ranking of a
// torrent's wanted files and the piece-to-file mapping that the rest of
// the wishlist engine orders candidates by.
package fileorder

import (
	"sort"
	"strings"

	g "github.com/anacrolix/generics"
	"github.com/elliotchance/orderedmap"
)

// PieceIndex and FileIndex are aliases of the same underlying
// type used by the root wishlist package, so values round-trip between
// packages without conversion.
type (
	PieceIndex = uint32
	FileIndex  = uint32
)

// NoFileRank is the sentinel rank for a piece no wanted file covers.
const NoFileRank = ^uint32(0)

// FileInfo is the minimal file record FileOrder needs: its subpath
// (directory components plus basename) and its length in bytes.
// Metainfo parsing itself is out of scope for this engine; callers are
// expected to derive FileInfo from whatever metainfo representation they
// already have.
type FileInfo struct {
	Path   []string
	Length int64
}

// DisplayPath joins Path with "/", matching how BitTorrent metainfo
// represents multi-file torrent subpaths.
func (fi FileInfo) DisplayPath() string {
	return strings.Join(fi.Path, "/")
}

func (fi FileInfo) dirname() string {
	if len(fi.Path) <= 1 {
		return ""
	}
	return strings.Join(fi.Path[:len(fi.Path)-1], "/")
}

func (fi FileInfo) basename() string {
	if len(fi.Path) == 0 {
		return ""
	}
	return fi.Path[len(fi.Path)-1]
}

func (fi FileInfo) stemAndExt() (stem, ext string) {
	base := fi.basename()
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return base, ""
	}
	return base[:i], base[i:]
}

// PieceFileSpan describes the half-open byte range [Begin, End) of a file
// within a piece's coordinate space, i.e. relative to the start of the
// torrent, used to decide which files a piece overlaps.
type PieceFileSpan struct {
	Begin, End int64
}

// Order holds the alphabetical file ranking and the derived
// piece-to-file-rank mapping for a torrent's current wanted-file set.
//
// It is rebuilt wholesale by Recalculate; there is no incremental
// update, so a rebuild can never leave it partially updated.
type Order struct {
	files []FileInfo
	// fileByteSpan[i] is the torrent-relative byte span of files[i].
	fileByteSpan []PieceFileSpan
	wanted       []bool

	// fileRank maps FileIndex to its dense alphabetical rank among wanted
	// files. Unwanted files have no entry. An OrderedMap gives O(1)
	// lookup and a stable rank-ascending iteration order for Files().
	fileRank *orderedmap.OrderedMap

	// pieceFileRank[p] is the alphabetical rank of the earliest wanted
	// file overlapping piece p, or NoFileRank if none does.
	pieceFileRank []uint32
}

// New constructs an Order over the given files and their torrent-relative
// byte spans (len(files) == len(byteSpans)). Call Recalculate to populate
// it once the wanted mask and piece count are known.
func New(files []FileInfo, byteSpans []PieceFileSpan) *Order {
	return &Order{
		files:        files,
		fileByteSpan: byteSpans,
	}
}

// Recalculate rebuilds the file-rank and piece-file-rank tables from
// scratch given the current wanted mask and each piece's torrent-relative
// byte span.
func (o *Order) Recalculate(wanted []bool, pieceByteSpans []PieceFileSpan) {
	o.wanted = wanted

	indices := make([]int, 0, len(o.files))
	for i, w := range wanted {
		if w {
			indices = append(indices, i)
		}
	}
	sortFileIndices(o.files, indices)

	o.fileRank = orderedmap.NewOrderedMap()
	for rank, fi := range indices {
		o.fileRank.Set(FileIndex(fi), rank)
	}

	o.pieceFileRank = make([]uint32, len(pieceByteSpans))
	for p, pieceSpan := range pieceByteSpans {
		best := NoFileRank
		for fi, fileSpan := range o.fileByteSpan {
			if fi >= len(wanted) || !wanted[fi] {
				continue
			}
			if !overlaps(pieceSpan, fileSpan) {
				continue
			}
			rankVal, ok := o.fileRank.Get(FileIndex(fi))
			if !ok {
				continue
			}
			rank := rankVal.(int)
			if uint32(rank) < best {
				best = uint32(rank)
			}
		}
		o.pieceFileRank[p] = best
	}
}

func overlaps(a, b PieceFileSpan) bool {
	return a.Begin < b.End && b.Begin < a.End
}

// FileIndexForPiece returns the alphabetical rank of the earliest wanted
// file overlapping piece, or NoFileRank if no wanted file overlaps it.
func (o *Order) FileIndexForPiece(piece PieceIndex) uint32 {
	if int(piece) >= len(o.pieceFileRank) {
		return NoFileRank
	}
	return o.pieceFileRank[piece]
}

// RankOf returns the alphabetical rank of a wanted file, if any.
func (o *Order) RankOf(file FileIndex) g.Option[int] {
	rankVal, ok := o.fileRank.Get(file)
	if !ok {
		return g.Option[int]{}
	}
	return g.Option[int]{Value: rankVal.(int), Ok: true}
}

// Files returns wanted FileIndexes in ascending alphabetical rank order.
func (o *Order) Files() []FileIndex {
	if o.fileRank == nil {
		return nil
	}
	ret := make([]FileIndex, 0, o.fileRank.Len())
	for el := o.fileRank.Front(); el != nil; el = el.Next() {
		ret = append(ret, el.Key.(FileIndex))
	}
	return ret
}

// sortFileIndices sorts indices into o.files according to the case
// insensitive dirname/basename/stem/extension rule:
//  1. compare dirnames case-insensitively; lesser wins.
//  2. if equal, split basenames into stem+extension at the last '.'.
//  3. if extensions match case-insensitively and one stem is a
//     case-insensitive prefix of the other, the shorter stem wins.
//  4. otherwise compare full basenames case-insensitively.
func sortFileIndices(files []FileInfo, indices []int) {
	sort.SliceStable(indices, func(i, j int) bool {
		return lessFile(files[indices[i]], files[indices[j]])
	})
}

func lessFile(a, b FileInfo) bool {
	da, db := strings.ToLower(a.dirname()), strings.ToLower(b.dirname())
	if da != db {
		return da < db
	}
	stemA, extA := a.stemAndExt()
	stemB, extB := b.stemAndExt()
	loExtA, loExtB := strings.ToLower(extA), strings.ToLower(extB)
	if loExtA == loExtB {
		loA, loB := strings.ToLower(stemA), strings.ToLower(stemB)
		if loA != loB && (strings.HasPrefix(loA, loB) || strings.HasPrefix(loB, loA)) {
			if len(loA) != len(loB) {
				return len(loA) < len(loB)
			}
		}
	}
	return strings.ToLower(a.basename()) < strings.ToLower(b.basename())
}
