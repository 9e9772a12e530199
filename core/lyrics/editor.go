package lyrics

import (
	"context"
	"errors"
	"sync"
)

// ErrNotEditing is returned by Commit when no edit is open.
var ErrNotEditing = errors.New("lyrics editor is not open")

// Committer persists edited lyrics.
type Committer interface {
	Commit(ctx context.Context, trackID, text string) error
}

// Editor keeps a draft next to the committed text. The draft only reaches the committed
// side through Commit; Discard throws it away.
type Editor struct {
	mu        sync.Mutex
	store     Committer
	trackID   string
	committed string
	draft     string
	editing   bool
}

func NewEditor(store Committer) *Editor {
	return &Editor{store: store}
}

// Begin opens an edit of text for trackID, seeding the draft with it.
func (e *Editor) Begin(trackID, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trackID = trackID
	e.committed = text
	e.draft = text
	e.editing = true
}

func (e *Editor) SetDraft(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editing {
		e.draft = text
	}
}

// Commit writes the draft through the store and closes the edit. On error the edit stays open.
func (e *Editor) Commit(ctx context.Context) error {
	e.mu.Lock()
	if !e.editing {
		e.mu.Unlock()
		return ErrNotEditing
	}
	trackID, draft := e.trackID, e.draft
	e.mu.Unlock()

	if err := e.store.Commit(ctx, trackID, draft); err != nil {
		return err
	}

	e.mu.Lock()
	e.committed = draft
	e.editing = false
	e.mu.Unlock()
	return nil
}

// Discard closes the edit and resets the draft to the committed text.
func (e *Editor) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = e.committed
	e.editing = false
}

func (e *Editor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

func (e *Editor) Draft() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

func (e *Editor) Committed() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committed
}
