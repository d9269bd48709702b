// Package rollback implements the reversible-mutation journal used by the
// service-node registry so a chain reorganization can detach back to an
// earlier height and replay forward.
package rollback

import (
	"errors"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
)

// ErrUnreachable is returned when a detach walks past a PreventBefore
// sentinel, meaning the journal horizon has been exceeded and the
// registry must be re-initialised from scratch.
var ErrUnreachable = errors.New("rollback: journal horizon exceeded, registry must be re-initialised")

// Kind discriminates the tagged variants of a rollback event.
type Kind int

// The three event kinds the journal records.
const (
	KindChange Kind = iota
	KindNew
	KindPreventBefore
)

// Event is a single journalled mutation. Exactly one of PriorInfo (for
// KindChange), Key (for KindChange/KindNew), or PreventHeight (for
// KindPreventBefore) is meaningful, selected by Kind.
type Event struct {
	Kind          Kind
	BlockHeight   uint64
	Key           database.AccountID
	PriorInfo     any
	PreventHeight uint64
}

// Journal is an ordered, append-only deque of rollback events for a
// single registry.
type Journal struct {
	events []Event
}

// NewJournal constructs an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// PushChange records that key's prior value (before a mutation) was
// priorInfo, so a detach can restore it.
func (j *Journal) PushChange(height uint64, key database.AccountID, priorInfo any) {
	j.events = append(j.events, Event{Kind: KindChange, BlockHeight: height, Key: key, PriorInfo: priorInfo})
}

// PushNew records that key was newly inserted, so a detach can erase it.
func (j *Journal) PushNew(height uint64, key database.AccountID) {
	j.events = append(j.events, Event{Kind: KindNew, BlockHeight: height, Key: key})
}

// PushPreventBefore records the retention horizon after culling older
// events, as the oldest entry of the journal at preventHeight. Any detach
// attempting to walk past this sentinel fails.
func (j *Journal) PushPreventBefore(height uint64, preventHeight uint64) {
	j.events = append([]Event{{Kind: KindPreventBefore, BlockHeight: preventHeight, PreventHeight: preventHeight}}, j.events...)
}

// Cull removes every event strictly older than the given height.
func (j *Journal) Cull(olderThan uint64) {
	kept := j.events[:0]
	for _, e := range j.events {
		if e.BlockHeight >= olderThan {
			kept = append(kept, e)
		}
	}
	j.events = kept
}

// Len reports the number of events currently journalled.
func (j *Journal) Len() int {
	return len(j.events)
}

// Events returns a copy of the journal's current event slice, for callers
// that need to persist it (the servicenode registry's snapshot writer).
func (j *Journal) Events() []Event {
	return append([]Event{}, j.events...)
}

// Load replaces the journal's events wholesale, for callers restoring a
// journal from a persisted snapshot.
func (j *Journal) Load(events []Event) {
	j.events = append([]Event{}, events...)
}

// Apply is implemented by the registry: it undoes a single event,
// restoring or erasing the mapping it describes.
type Apply interface {
	RestoreChange(key database.AccountID, priorInfo any)
	EraseNew(key database.AccountID)
}

// Detach undoes every event with BlockHeight >= target, in reverse
// order, applying each one against reg. Encountering a PreventBefore
// event aborts the operation with ErrUnreachable.
func (j *Journal) Detach(target uint64, reg Apply) error {
	for len(j.events) > 0 {
		back := j.events[len(j.events)-1]
		if back.BlockHeight < target {
			break
		}

		switch back.Kind {
		case KindChange:
			reg.RestoreChange(back.Key, back.PriorInfo)
		case KindNew:
			reg.EraseNew(back.Key)
		case KindPreventBefore:
			return ErrUnreachable
		}

		j.events = j.events[:len(j.events)-1]
	}

	return nil
}
