// Package preview tracks which rendered image belongs to the most recent
// form snapshot.
package preview

import (
	"github.com/blacktop/superchat/internal/blob"
	"github.com/blacktop/superchat/internal/superchat"
)

type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is an immutable copy of the form taken when it settled. IDs only
// ever grow.
type Snapshot struct {
	ID     uint64
	Params superchat.Params
}

// Tracker is not safe for concurrent use; it is meant to be driven from a
// single update loop with responses fed back tagged by snapshot ID.
type Tracker struct {
	blobs   *blob.Store
	seq     uint64
	current Snapshot
	state   State
	err     error

	shown   string // object URL of the displayed image
	shownID uint64
}

func New(blobs *blob.Store) *Tracker {
	return &Tracker{blobs: blobs}
}

// Begin makes p the current snapshot and marks it Loading.
func (t *Tracker) Begin(p superchat.Params) Snapshot {
	t.seq++
	t.current = Snapshot{ID: t.seq, Params: p}
	t.state = Loading
	t.err = nil
	return t.current
}

// Current returns the latest snapshot, if any.
func (t *Tracker) Current() (Snapshot, bool) {
	return t.current, t.seq > 0
}

// Resolve publishes url as the image of snapshot id. Responses for anything
// but the current snapshot are revoked and dropped.
func (t *Tracker) Resolve(id uint64, url string) bool {
	if id != t.current.ID || t.state != Loading {
		t.blobs.Revoke(url)
		return false
	}
	if t.shown != "" {
		t.blobs.Revoke(t.shown)
	}
	t.shown, t.shownID = url, id
	t.state = Ready
	return true
}

// Fail records err for snapshot id if it is still current. The displayed
// image is left alone.
func (t *Tracker) Fail(id uint64, err error) bool {
	if id != t.current.ID || t.state != Loading {
		return false
	}
	t.state = Failed
	t.err = err
	return true
}

// Retry starts a new snapshot with the parameters of a failed one.
func (t *Tracker) Retry() (Snapshot, bool) {
	if t.state != Failed {
		return Snapshot{}, false
	}
	return t.Begin(t.current.Params), true
}

func (t *Tracker) State() State { return t.state }
func (t *Tracker) Err() error   { return t.err }

// ImageURL is the object URL of the image on display, empty before the first
// successful render.
func (t *Tracker) ImageURL() string { return t.shown }

// Muted reports whether the displayed image is out of date.
func (t *Tracker) Muted() bool {
	return t.state == Loading || (t.shown != "" && t.shownID != t.current.ID)
}
