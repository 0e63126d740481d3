package keymanager

import (
	"fmt"
	"math"
	"sync"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/eventbus"
	"github.com/sirupsen/logrus"
)

type RegistryConfig struct {
	// Administrator and Manager seed the roles of a registry that has no stored state.
	Administrator common.Address
	Manager       common.Address
	Clock         Clock
	// Store may be nil, in which case state lives in memory only.
	Store    Store
	Notifier Notifier
	// Guard overrides the built-in RoleStore for authorization checks.
	Guard   Guard
	Journal *Journal
}

// Registry is the authoritative committee store. Mutations are serialized by
// a single writer lock; readers see a consistent snapshot.
type Registry struct {
	mu sync.RWMutex
	// emitMu keeps notifications in mutation order without holding mu while
	// handlers run.
	emitMu sync.Mutex

	nextId           uint64
	oldestStoredId   uint64
	committees       map[uint64]*Committee
	lastTimestamp    uint64
	lastRegisteredAt uint64
	thresholdKey     []byte
	thresholdKeySet  bool

	roles    *RoleStore
	guard    Guard
	clock    Clock
	store    Store
	notifier Notifier
	journal  *Journal
}

func NewRegistry(config RegistryConfig) (*Registry, error) {
	r := &Registry{
		committees: make(map[uint64]*Committee),
		clock:      config.Clock,
		store:      config.Store,
		notifier:   config.Notifier,
		journal:    config.Journal,
	}
	if r.clock == nil {
		r.clock = NewSystemClock(0)
	}
	if r.journal == nil {
		r.journal = NewJournal(0)
	}

	var meta *Meta
	var stored []*Committee
	if r.store != nil {
		var err error
		meta, stored, err = r.store.Load()
		if err != nil {
			return nil, &StoreError{Op: "load", Err: err}
		}
	}

	if meta == nil {
		if config.Administrator.IsZero() {
			logrus.Warn("no administrator configured, manager can never be changed")
		}
		r.roles = NewRoleStore(config.Administrator, config.Manager)
		if r.store != nil {
			if err := r.store.PutMeta(r.metaLocked()); err != nil {
				return nil, &StoreError{Op: "init", Err: err}
			}
		}
	} else {
		if err := r.restore(meta, stored); err != nil {
			return nil, err
		}
	}

	r.guard = config.Guard
	if r.guard == nil {
		r.guard = r.roles
	}
	if a, ok := r.clock.(interface{ AdvanceTo(uint64) }); ok {
		a.AdvanceTo(r.lastRegisteredAt)
	}
	logrus.WithFields(logrus.Fields{
		"next":    r.nextId,
		"oldest":  r.oldestStoredId,
		"manager": r.roles.Manager().Hex(),
		"admin":   r.roles.Administrator().Hex(),
	}).Info("committee registry ready")
	return r, nil
}

func (r *Registry) restore(meta *Meta, stored []*Committee) error {
	if meta.OldestStoredId > meta.NextId {
		return &StoreError{Op: "load", Err: fmt.Errorf("oldest id %d beyond next id %d", meta.OldestStoredId, meta.NextId)}
	}
	for _, c := range stored {
		if c.Id < meta.OldestStoredId || c.Id >= meta.NextId {
			return &StoreError{Op: "load", Err: fmt.Errorf("committee %d outside retained range [%d, %d)", c.Id, meta.OldestStoredId, meta.NextId)}
		}
		r.committees[c.Id] = c
	}
	if uint64(len(r.committees)) != meta.NextId-meta.OldestStoredId {
		return &StoreError{Op: "load", Err: fmt.Errorf("expected %d committees, found %d", meta.NextId-meta.OldestStoredId, len(r.committees))}
	}
	r.nextId = meta.NextId
	r.oldestStoredId = meta.OldestStoredId
	r.lastTimestamp = meta.LastEffectiveTimestamp
	r.lastRegisteredAt = meta.LastRegisteredAt
	r.thresholdKey = common.CopyBytes(meta.ThresholdKey)
	r.thresholdKeySet = meta.ThresholdKeySet
	r.roles = NewRoleStore(meta.Administrator, meta.Manager)
	return nil
}

func (r *Registry) metaLocked() *Meta {
	return &Meta{
		NextId:                 r.nextId,
		OldestStoredId:         r.oldestStoredId,
		LastEffectiveTimestamp: r.lastTimestamp,
		LastRegisteredAt:       r.lastRegisteredAt,
		ThresholdKey:           r.thresholdKey,
		ThresholdKeySet:        r.thresholdKeySet,
		Manager:                r.roles.Manager(),
		Administrator:          r.roles.Administrator(),
	}
}

func (r *Registry) authorize(caller common.Address, role Role) error {
	if !r.guard.HasRole(caller, role) {
		logrus.WithField("caller", caller.Hex()).WithField("role", role).Debug("unauthorized call rejected")
		return &UnauthorizedError{Caller: caller, Role: role}
	}
	return nil
}

// unlockAndEmit releases the writer lock and delivers evs before any later
// mutation can deliver its own.
func (r *Registry) unlockAndEmit(evs ...eventbus.Event) {
	r.emitMu.Lock()
	r.mu.Unlock()
	defer r.emitMu.Unlock()
	r.deliver(evs)
}

func (r *Registry) emit(evs ...eventbus.Event) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	r.deliver(evs)
}

func (r *Registry) deliver(evs []eventbus.Event) {
	for _, ev := range evs {
		r.journal.Append(ev)
		if r.notifier != nil {
			r.notifier.Route(ev)
		}
	}
}

// AppendCommittee stores a new committee effective from effectiveTimestamp and
// returns its id.
func (r *Registry) AppendCommittee(caller common.Address, effectiveTimestamp uint64, members []CommitteeMember) (uint64, error) {
	r.mu.Lock()
	if err := r.authorize(caller, RoleManager); err != nil {
		r.mu.Unlock()
		return 0, err
	}
	if len(members) == 0 {
		r.mu.Unlock()
		return 0, ErrEmptyMembership
	}
	if r.nextId > 0 && effectiveTimestamp <= r.lastTimestamp {
		last := r.lastTimestamp
		r.mu.Unlock()
		return 0, &NonMonotonicTimestampError{Given: effectiveTimestamp, Last: last}
	}
	if r.nextId == math.MaxUint64 {
		r.mu.Unlock()
		return 0, ErrIdSpaceExhausted
	}

	c := &Committee{
		Id:                 r.nextId,
		EffectiveTimestamp: effectiveTimestamp,
		RegisteredAt:       r.clock.Position(),
		Members:            make([]CommitteeMember, len(members)),
	}
	for i, m := range members {
		c.Members[i] = m.clone()
	}
	meta := r.metaLocked()
	meta.NextId = c.Id + 1
	meta.LastEffectiveTimestamp = effectiveTimestamp
	meta.LastRegisteredAt = c.RegisteredAt
	if r.store != nil {
		if err := r.store.PutCommittee(c, meta); err != nil {
			r.mu.Unlock()
			logrus.WithError(err).WithField("id", c.Id).Error("failed to persist committee")
			return 0, &StoreError{Op: "append", Err: err}
		}
	}
	r.committees[c.Id] = c
	r.nextId = meta.NextId
	r.lastTimestamp = effectiveTimestamp
	r.lastRegisteredAt = c.RegisteredAt

	logrus.WithFields(logrus.Fields{
		"id":      c.Id,
		"ts":      effectiveTimestamp,
		"members": len(c.Members),
	}).Info("committee appended")
	r.unlockAndEmit(&CommitteeCreatedEvent{Id: c.Id})
	return c.Id, nil
}

// GetCommittee returns a copy of the committee stored under id.
func (r *Registry) GetCommittee(id uint64) (*Committee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, err := r.committeeLocked(id)
	if err != nil {
		return nil, err
	}
	return c.clone(), nil
}

func (r *Registry) committeeLocked(id uint64) (*Committee, error) {
	if id < r.oldestStoredId || id >= r.nextId {
		return nil, &NotFoundError{Id: id}
	}
	c, ok := r.committees[id]
	if !ok {
		return nil, &NotFoundError{Id: id}
	}
	return c, nil
}

// Committees returns copies of every retained committee in id order.
func (r *Registry) Committees() []*Committee {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Committee, 0, len(r.committees))
	for id := r.oldestStoredId; id < r.nextId; id++ {
		if c, ok := r.committees[id]; ok {
			out = append(out, c.clone())
		}
	}
	return out
}

// PruneUpTo deletes committees [OldestStoredId, upToId]. Nothing is deleted if
// any of them became effective less than PruneSafetyMargin seconds ago.
func (r *Registry) PruneUpTo(caller common.Address, upToId uint64) error {
	r.mu.Lock()
	if err := r.authorize(caller, RoleManager); err != nil {
		r.mu.Unlock()
		return err
	}
	from := r.oldestStoredId
	if upToId < from || upToId >= r.nextId {
		err := &InvalidRangeError{UpTo: upToId, Oldest: from, Next: r.nextId}
		r.mu.Unlock()
		return err
	}
	now := r.clock.Now()
	for id := from; id <= upToId; id++ {
		c, ok := r.committees[id]
		if !ok {
			continue
		}
		if now < PruneSafetyMargin || c.EffectiveTimestamp >= now-PruneSafetyMargin {
			r.mu.Unlock()
			logrus.WithFields(logrus.Fields{
				"id":  id,
				"ts":  c.EffectiveTimestamp,
				"now": now,
			}).Debug("refused to prune recent committee")
			return &TooRecentToPruneError{Id: id, EffectiveTimestamp: c.EffectiveTimestamp, Now: now}
		}
	}

	meta := r.metaLocked()
	meta.OldestStoredId = upToId + 1
	if r.store != nil {
		if err := r.store.DeleteCommittees(from, upToId, meta); err != nil {
			r.mu.Unlock()
			logrus.WithError(err).WithField("from", from).WithField("to", upToId).Error("failed to prune committees")
			return &StoreError{Op: "prune", Err: err}
		}
	}
	for id := from; id <= upToId; id++ {
		delete(r.committees, id)
	}
	r.oldestStoredId = meta.OldestStoredId

	logrus.WithField("from", from).WithField("to", upToId).Info("committees pruned")
	r.unlockAndEmit(&CommitteesPrunedEvent{FromId: from, ToId: upToId})
	return nil
}

// SetThresholdKey stores the threshold encryption key. It can be set once.
func (r *Registry) SetThresholdKey(caller common.Address, key []byte) error {
	r.mu.Lock()
	if err := r.authorize(caller, RoleManager); err != nil {
		r.mu.Unlock()
		return err
	}
	if r.thresholdKeySet {
		r.mu.Unlock()
		return ErrAlreadySet
	}
	if len(key) == 0 {
		r.mu.Unlock()
		return ErrEmptyThresholdKey
	}
	meta := r.metaLocked()
	meta.ThresholdKey = common.CopyBytes(key)
	meta.ThresholdKeySet = true
	if r.store != nil {
		if err := r.store.PutMeta(meta); err != nil {
			r.mu.Unlock()
			return &StoreError{Op: "threshold_key", Err: err}
		}
	}
	r.thresholdKey = meta.ThresholdKey
	r.thresholdKeySet = true

	logrus.WithField("len", len(key)).Info("threshold key set")
	r.unlockAndEmit(&ThresholdKeyUpdatedEvent{Value: common.CopyBytes(key)})
	return nil
}

// SetManager hands the manager role to newManager.
func (r *Registry) SetManager(caller common.Address, newManager common.Address) error {
	r.mu.Lock()
	if err := r.authorize(caller, RoleAdministrator); err != nil {
		r.mu.Unlock()
		return err
	}
	old := r.roles.Manager()
	if newManager.IsZero() || newManager == old {
		r.mu.Unlock()
		return ErrInvalidAddress
	}
	meta := r.metaLocked()
	meta.Manager = newManager
	if r.store != nil {
		if err := r.store.PutMeta(meta); err != nil {
			r.mu.Unlock()
			return &StoreError{Op: "manager", Err: err}
		}
	}
	r.roles.setManager(newManager)

	logrus.WithField("old", old.Hex()).WithField("new", newManager.Hex()).Info("manager changed")
	r.unlockAndEmit(&ManagerChangedEvent{Old: old, New: newManager})
	return nil
}

// ThresholdKey returns the key and whether it was ever set.
func (r *Registry) ThresholdKey() ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return common.CopyBytes(r.thresholdKey), r.thresholdKeySet
}

func (r *Registry) Manager() common.Address {
	return r.roles.Manager()
}

func (r *Registry) Administrator() common.Address {
	return r.roles.Administrator()
}

func (r *Registry) Guard() Guard {
	return r.guard
}

func (r *Registry) Clock() Clock {
	return r.clock
}

func (r *Registry) Journal() *Journal {
	return r.journal
}

func (r *Registry) NextId() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextId
}

func (r *Registry) OldestStoredId() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.oldestStoredId
}

type Status struct {
	NextId                 uint64         `json:"next_id"`
	OldestStoredId         uint64         `json:"oldest_stored_id"`
	Retained               int            `json:"retained"`
	LastEffectiveTimestamp uint64         `json:"last_effective_timestamp"`
	ActiveCommitteeId      *uint64        `json:"active_committee_id"`
	Now                    uint64         `json:"now"`
	ThresholdKeySet        bool           `json:"threshold_key_set"`
	Manager                common.Address `json:"manager"`
	Administrator          common.Address `json:"administrator"`
	LastEventSeq           uint64         `json:"last_event_seq"`
}

func (r *Registry) Status() Status {
	now := r.clock.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Status{
		NextId:                 r.nextId,
		OldestStoredId:         r.oldestStoredId,
		Retained:               len(r.committees),
		LastEffectiveTimestamp: r.lastTimestamp,
		Now:                    now,
		ThresholdKeySet:        r.thresholdKeySet,
		Manager:                r.roles.Manager(),
		Administrator:          r.roles.Administrator(),
		LastEventSeq:           r.journal.LastSeq(),
	}
	if id, err := r.resolveLocked(now); err == nil {
		s.ActiveCommitteeId = &id
	}
	return s
}
