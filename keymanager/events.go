package keymanager

import (
	"sync"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/hexutil"
	"github.com/annchain/keymanager/eventbus"
)

const (
	EventCommitteeCreated eventbus.EventType = iota + 1
	EventThresholdKeyUpdated
	EventManagerChanged
	EventCommitteesPruned
	EventImplementationUpgraded
)

var eventTypeNames = map[eventbus.EventType]string{
	EventCommitteeCreated:       "CommitteeCreated",
	EventThresholdKeyUpdated:    "ThresholdKeyUpdated",
	EventManagerChanged:         "ManagerChanged",
	EventCommitteesPruned:       "CommitteesPruned",
	EventImplementationUpgraded: "ImplementationUpgraded",
}

// EventName returns the notification name of t as it appears on the wire.
func EventName(t eventbus.EventType) string {
	if n, ok := eventTypeNames[t]; ok {
		return n
	}
	return "Unknown"
}

// EventTypes lists every notification type in declaration order.
func EventTypes() []eventbus.EventType {
	return []eventbus.EventType{
		EventCommitteeCreated,
		EventThresholdKeyUpdated,
		EventManagerChanged,
		EventCommitteesPruned,
		EventImplementationUpgraded,
	}
}

type CommitteeCreatedEvent struct {
	Id uint64 `json:"id"`
}

func (e *CommitteeCreatedEvent) GetEventType() eventbus.EventType { return EventCommitteeCreated }

type ThresholdKeyUpdatedEvent struct {
	Value hexutil.Bytes `json:"value"`
}

func (e *ThresholdKeyUpdatedEvent) GetEventType() eventbus.EventType { return EventThresholdKeyUpdated }

type ManagerChangedEvent struct {
	Old common.Address `json:"old"`
	New common.Address `json:"new"`
}

func (e *ManagerChangedEvent) GetEventType() eventbus.EventType { return EventManagerChanged }

type CommitteesPrunedEvent struct {
	FromId uint64 `json:"from_id"`
	ToId   uint64 `json:"to_id"`
}

func (e *CommitteesPrunedEvent) GetEventType() eventbus.EventType { return EventCommitteesPruned }

type ImplementationUpgradedEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (e *ImplementationUpgradedEvent) GetEventType() eventbus.EventType {
	return EventImplementationUpgraded
}

// Notifier receives every notification after the mutation that caused it is
// durable. *eventbus.DefaultEventBus satisfies it.
type Notifier interface {
	Route(ev eventbus.Event)
}

// JournalEntry is a notification with its position in the journal.
type JournalEntry struct {
	Seq   uint64         `json:"seq"`
	Name  string         `json:"name"`
	Event eventbus.Event `json:"event"`
}

// Journal keeps the most recent notifications in emission order. Sequence
// numbers start at 1 and never repeat.
type Journal struct {
	mu      sync.RWMutex
	entries []JournalEntry
	nextSeq uint64
	limit   int
}

func NewJournal(limit int) *Journal {
	if limit <= 0 {
		limit = 1024
	}
	return &Journal{nextSeq: 1, limit: limit}
}

func (j *Journal) Append(ev eventbus.Event) JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	entry := JournalEntry{Seq: j.nextSeq, Name: EventName(ev.GetEventType()), Event: ev}
	j.nextSeq++
	j.entries = append(j.entries, entry)
	if len(j.entries) > j.limit {
		j.entries = append([]JournalEntry(nil), j.entries[len(j.entries)-j.limit:]...)
	}
	return entry
}

// Since returns the retained entries with Seq >= from.
func (j *Journal) Since(from uint64) []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []JournalEntry
	for _, e := range j.entries {
		if e.Seq >= from {
			out = append(out, e)
		}
	}
	return out
}

// LastSeq is the sequence number of the latest entry, 0 if nothing was journaled.
func (j *Journal) LastSeq() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.nextSeq - 1
}
