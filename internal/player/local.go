package player

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
)

// localState device-only player state, JSON values keyed per course. This is
// a separate ledger from the server-side progress entity and is never
// reconciled with it; bookmarking on one device is invisible on another.
type localState struct {
	kv       driver.KeyValueDB
	courseID string
}

func newLocalState(kv driver.KeyValueDB, courseID string) *localState {
	return &localState{kv: kv, courseID: courseID}
}

func (ls *localState) key(kind string) string {
	return fmt.Sprintf("course:%s:%s", ls.courseID, kind)
}

func (ls *localState) lastAccessed() (*lastAccessed, error) {
	out := new(lastAccessed)
	if err := ls.load("last-accessed", out); err != nil {
		return nil, err
	}
	return out, nil
}

func (ls *localState) setLastAccessed(la *lastAccessed) error {
	return ls.save("last-accessed", la)
}

func (ls *localState) bookmarks() ([]string, error) {
	var ids []string
	if err := ls.load("bookmarks", &ids); err != nil && !errors.Is(err, driver.ErrKeyNotFound) {
		return nil, err
	}
	return ids, nil
}

func (ls *localState) setBookmarks(ids []string) error {
	return ls.save("bookmarks", ids)
}

func (ls *localState) notes() (map[string]string, error) {
	notes := make(map[string]string)
	if err := ls.load("notes", &notes); err != nil && !errors.Is(err, driver.ErrKeyNotFound) {
		return nil, err
	}
	return notes, nil
}

func (ls *localState) setNotes(notes map[string]string) error {
	return ls.save("notes", notes)
}

func (ls *localState) completed() (map[string]bool, error) {
	flags := make(map[string]bool)
	if err := ls.load("completed", &flags); err != nil && !errors.Is(err, driver.ErrKeyNotFound) {
		return nil, err
	}
	return flags, nil
}

func (ls *localState) setCompleted(flags map[string]bool) error {
	return ls.save("completed", flags)
}

func (ls *localState) load(kind string, out interface{}) error {
	raw, err := ls.kv.Get(ls.key(kind))
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func (ls *localState) save(kind string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ls.kv.Set(ls.key(kind), string(raw))
}

// Bookmarked report whether a lesson is bookmarked on this device
func (p *Player) Bookmarked(lessonID string) bool {
	ids, err := p.local.bookmarks()
	if err != nil {
		return false
	}
	for _, id := range ids {
		if id == lessonID {
			return true
		}
	}
	return false
}

// Bookmarks bookmarked lesson ids, in bookmarking order
func (p *Player) Bookmarks() []string {
	ids, _ := p.local.bookmarks()
	return ids
}

// ToggleBookmark add or remove a device-local bookmark for a lesson
func (p *Player) ToggleBookmark(lessonID string) error {
	ids, err := p.local.bookmarks()
	if err != nil {
		return err
	}
	out := ids[:0]
	found := false
	for _, id := range ids {
		if id == lessonID {
			found = true
			continue
		}
		out = append(out, id)
	}
	if !found {
		out = append(out, lessonID)
	}
	return p.local.setBookmarks(out)
}

// Note device-local free-text note for a lesson
func (p *Player) Note(lessonID string) string {
	notes, err := p.local.notes()
	if err != nil {
		return ""
	}
	return notes[lessonID]
}

// SetNote store a note for a lesson; an empty text removes it
func (p *Player) SetNote(lessonID, text string) error {
	notes, err := p.local.notes()
	if err != nil {
		return err
	}
	if text == "" {
		delete(notes, lessonID)
	} else {
		notes[lessonID] = text
	}
	return p.local.setNotes(notes)
}

// CompletedLocally report the device-local completion flag for a lesson
func (p *Player) CompletedLocally(lessonID string) bool {
	flags, err := p.local.completed()
	if err != nil {
		return false
	}
	return flags[lessonID]
}

// MarkCompletedLocally set the device-local completion flag for a lesson.
// This flag is independent of the server-side progress ledger.
func (p *Player) MarkCompletedLocally(lessonID string) error {
	flags, err := p.local.completed()
	if err != nil {
		return err
	}
	flags[lessonID] = true
	return p.local.setCompleted(flags)
}
