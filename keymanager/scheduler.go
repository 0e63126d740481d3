package keymanager

// ResolveActiveCommittee returns the id of the committee in force at now: the
// highest retained id whose effective timestamp is not after now.
func (r *Registry) ResolveActiveCommittee(now uint64) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(now)
}

// CurrentCommitteeId resolves the active committee at the registry clock's time.
func (r *Registry) CurrentCommitteeId() (uint64, error) {
	return r.ResolveActiveCommittee(r.clock.Now())
}

// ActiveCommittee resolves the committee in force at now and returns it from
// the same snapshot. The returned value is shared and must not be modified.
func (r *Registry) ActiveCommittee(now uint64) (*Committee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, err := r.resolveLocked(now)
	if err != nil {
		return nil, err
	}
	return r.committees[id], nil
}

func (r *Registry) resolveLocked(now uint64) (uint64, error) {
	if r.oldestStoredId >= r.nextId {
		return 0, ErrNoCommitteeScheduled
	}
	for id := r.nextId; id > r.oldestStoredId; id-- {
		c, ok := r.committees[id-1]
		if !ok {
			continue
		}
		if c.EffectiveTimestamp <= now {
			return id - 1, nil
		}
	}
	return 0, ErrNoCommitteeScheduled
}
