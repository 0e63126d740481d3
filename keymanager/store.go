package keymanager

import "github.com/annchain/keymanager/common"

// Meta is the registry state that is not part of any single committee.
type Meta struct {
	NextId         uint64
	OldestStoredId uint64
	// LastEffectiveTimestamp belongs to committee NextId-1 and outlives its pruning.
	LastEffectiveTimestamp uint64
	LastRegisteredAt       uint64
	ThresholdKey           []byte
	ThresholdKeySet        bool
	Manager                common.Address
	Administrator          common.Address
}

// Store persists registry state. Every method must apply its changes
// atomically: either all of them are durable or none is.
type Store interface {
	// PutCommittee writes c together with the meta that results from appending it.
	PutCommittee(c *Committee, meta *Meta) error
	// DeleteCommittees removes ids [from, to] and writes meta.
	DeleteCommittees(from, to uint64, meta *Meta) error
	PutMeta(meta *Meta) error
	// Load returns nil meta when nothing was ever stored.
	Load() (*Meta, []*Committee, error)
}
