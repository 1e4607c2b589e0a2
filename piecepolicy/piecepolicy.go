// Package piecepolicy classifies a single piece along two boolean axes:
// whether it falls in a wanted video file's tail, and whether it falls in
// a small "priority" file such as a disc index or album cover.
package piecepolicy

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	minTailSize int64 = 1 << 20  // 1 MiB
	maxTailSize int64 = 20 << 20 // 20 MiB
	tailFrac          = 0.02
)

var videoExtensions = map[string]bool{
	".avi":  true,
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".m4v":  true,
	".webm": true,
}

const audioExtension = ".cue"

// FileRecord is the minimal per-file information the policy needs: its
// subpath, its torrent-relative byte span, an optional MIME type (empty
// if unknown, in which case extension sniffing is used instead), and
// whether it is currently wanted.
type FileRecord struct {
	Path       []string
	Begin, End int64
	MIME       string
	Wanted     bool
}

func (f FileRecord) basename() string {
	if len(f.Path) == 0 {
		return ""
	}
	return f.Path[len(f.Path)-1]
}

func (f FileRecord) extension() string {
	base := f.basename()
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(base[i:])
}

func (f FileRecord) length() int64 {
	return f.End - f.Begin
}

func (f FileRecord) isVideo() bool {
	if strings.HasPrefix(f.MIME, "video/") {
		return true
	}
	return videoExtensions[f.extension()]
}

func (f FileRecord) isAudio() bool {
	if strings.HasPrefix(f.MIME, "audio/") {
		return true
	}
	return f.extension() == audioExtension
}

func (f FileRecord) isCoverImage() bool {
	ext := f.extension()
	return ext == ".jpg" || ext == ".jpeg"
}

// TailSize returns clamp(length*0.02, 1MiB, 20MiB), the size of the "tail"
// region at the end of a file of the given length.
func TailSize(length int64) int64 {
	t := int64(float64(length) * tailFrac)
	if t < minTailSize {
		t = minTailSize
	}
	if t > maxTailSize {
		t = maxTailSize
	}
	return t
}

func overlapsTail(f FileRecord, pieceBegin, pieceEnd int64) bool {
	tail := TailSize(f.length())
	tailBegin := f.End - tail
	return pieceEnd > tailBegin && pieceBegin < f.End
}

func overlapsByteRange(f FileRecord, pieceBegin, pieceEnd int64) bool {
	return pieceBegin < f.End && f.Begin < pieceEnd
}

func isPriorityFile(f FileRecord, hasAudioAndCover bool) bool {
	switch f.extension() {
	case ".ifo", ".bup":
		return true
	}
	switch strings.ToLower(f.basename()) {
	case "index.bdmv", "movieobject.bdmv":
		return true
	}
	return f.isCoverImage() && hasAudioAndCover
}

// Policy classifies pieces of a single torrent. It holds no mutable state
// beyond the derived has-audio-and-cover flag, computed once when the
// file set is installed.
type Policy struct {
	files            []FileRecord
	hasAudioAndCover bool
}

// New computes the policy's derived flags from the torrent's full file
// set (not just the wanted subset: has-audio-and-cover reflects what the
// torrent contains, independent of what's currently wanted).
func New(files []FileRecord) *Policy {
	p := &Policy{files: files}
	var hasAudio, hasCover bool
	for _, f := range files {
		if f.isAudio() {
			hasAudio = true
		}
		if f.isCoverImage() {
			hasCover = true
		}
	}
	p.hasAudioAndCover = hasAudio && hasCover
	return p
}

// HasAudioAndCover reports whether the torrent contains both an
// audio-typed file and a jpg/jpeg file.
func (p *Policy) HasAudioAndCover() bool {
	return p.hasAudioAndCover
}

// IsInFileTail reports whether the piece spanning [pieceBegin, pieceEnd)
// overlaps the tail region of at least one wanted video file it overlaps.
func (p *Policy) IsInFileTail(pieceBegin, pieceEnd int64) bool {
	for _, f := range p.files {
		if !f.Wanted || !f.isVideo() {
			continue
		}
		if !overlapsByteRange(f, pieceBegin, pieceEnd) {
			continue
		}
		if overlapsTail(f, pieceBegin, pieceEnd) {
			return true
		}
	}
	return false
}

// IsInPriorityFile reports whether the piece spanning [pieceBegin,
// pieceEnd) overlaps at least one wanted priority file (DVD/Blu-ray
// index, or album art when the torrent has audio and cover art).
func (p *Policy) IsInPriorityFile(pieceBegin, pieceEnd int64) bool {
	for _, f := range p.files {
		if !f.Wanted {
			continue
		}
		if !overlapsByteRange(f, pieceBegin, pieceEnd) {
			continue
		}
		if isPriorityFile(f, p.hasAudioAndCover) {
			return true
		}
	}
	return false
}

// String renders the policy's derived state for debug logging, using
// human-readable sizes for the tail thresholds rather than raw byte
// counts.
func (p *Policy) String() string {
	return fmt.Sprintf(
		"piecepolicy(files=%d, hasAudioAndCover=%v, tailRange=%s..%s)",
		len(p.files), p.hasAudioAndCover,
		humanize.Bytes(uint64(minTailSize)), humanize.Bytes(uint64(maxTailSize)),
	)
}
