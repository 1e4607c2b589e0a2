package piecepolicy

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestTailSizeClamped(t *testing.T) {
	c := qt.New(t)
	c.Assert(TailSize(10<<20), qt.Equals, minTailSize)    // 2% of 10MiB < 1MiB floor
	c.Assert(TailSize(1<<30), qt.Equals, maxTailSize)     // 2% of 1GiB > 20MiB ceiling
	c.Assert(TailSize(500<<20), qt.Equals, int64(10<<20)) // 2% of 500MiB, within range
}

func TestIsInFileTailOnlyForVideo(t *testing.T) {
	c := qt.New(t)
	video := FileRecord{Path: []string{"movie.mkv"}, Begin: 0, End: 100 << 20, Wanted: true}
	other := FileRecord{Path: []string{"readme.txt"}, Begin: 100 << 20, End: 101 << 20, Wanted: true}
	p := New([]FileRecord{video, other})

	tailBegin := video.End - TailSize(video.length())
	c.Assert(p.IsInFileTail(tailBegin, tailBegin+1), qt.IsTrue)
	c.Assert(p.IsInFileTail(0, 1), qt.IsFalse)
	c.Assert(p.IsInFileTail(other.Begin, other.End), qt.IsFalse)
}

func TestIsInFileTailIgnoresUnwanted(t *testing.T) {
	c := qt.New(t)
	video := FileRecord{Path: []string{"movie.mkv"}, Begin: 0, End: 100 << 20, Wanted: false}
	p := New([]FileRecord{video})
	tailBegin := video.End - TailSize(video.length())
	c.Assert(p.IsInFileTail(tailBegin, tailBegin+1), qt.IsFalse)
}

func TestIsInPriorityFileExtensions(t *testing.T) {
	c := qt.New(t)
	ifo := FileRecord{Path: []string{"VIDEO_TS", "VTS_01_0.IFO"}, Begin: 0, End: 100, Wanted: true}
	p := New([]FileRecord{ifo})
	c.Assert(p.IsInPriorityFile(0, 1), qt.IsTrue)
}

func TestIsInPriorityFileBDMV(t *testing.T) {
	c := qt.New(t)
	idx := FileRecord{Path: []string{"BDMV", "index.bdmv"}, Begin: 0, End: 100, Wanted: true}
	p := New([]FileRecord{idx})
	c.Assert(p.IsInPriorityFile(0, 1), qt.IsTrue)
}

func TestCoverArtOnlyPriorityWithAudioAndCover(t *testing.T) {
	c := qt.New(t)
	cover := FileRecord{Path: []string{"cover.jpg"}, Begin: 100, End: 200, Wanted: true}

	withoutAudio := New([]FileRecord{cover})
	c.Assert(withoutAudio.IsInPriorityFile(100, 101), qt.IsFalse)

	cue := FileRecord{Path: []string{"album.cue"}, Begin: 0, End: 100, Wanted: true}
	withAudio := New([]FileRecord{cue, cover})
	c.Assert(withAudio.HasAudioAndCover(), qt.IsTrue)
	c.Assert(withAudio.IsInPriorityFile(100, 101), qt.IsTrue)
}
