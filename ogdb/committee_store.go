package ogdb

import (
	"fmt"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/keymanager"
	"github.com/sirupsen/logrus"
)

var (
	committeePrefix = []byte("c")
	metaKey         = []byte("meta")
)

func committeeKey(id uint64) []byte {
	return append(append([]byte{}, committeePrefix...), common.Uint64ToBytes(id)...)
}

// CommitteeStore persists the key manager registry in a Database. Each call
// is a single batch so it either lands completely or not at all.
type CommitteeStore struct {
	db Database
}

func NewCommitteeStore(db Database) *CommitteeStore {
	return &CommitteeStore{db: db}
}

func (s *CommitteeStore) PutCommittee(c *keymanager.Committee, meta *keymanager.Meta) error {
	cb, err := c.MarshalMsg(nil)
	if err != nil {
		return err
	}
	mb, err := meta.MarshalMsg(nil)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	if err := batch.Put(committeeKey(c.Id), cb); err != nil {
		return err
	}
	if err := batch.Put(metaKey, mb); err != nil {
		return err
	}
	return batch.Write()
}

func (s *CommitteeStore) DeleteCommittees(from, to uint64, meta *keymanager.Meta) error {
	if from > to {
		return fmt.Errorf("bad range [%d, %d]", from, to)
	}
	mb, err := meta.MarshalMsg(nil)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	for id := from; ; id++ {
		if err := batch.Delete(committeeKey(id)); err != nil {
			return err
		}
		if id == to {
			break
		}
	}
	if err := batch.Put(metaKey, mb); err != nil {
		return err
	}
	return batch.Write()
}

func (s *CommitteeStore) PutMeta(meta *keymanager.Meta) error {
	mb, err := meta.MarshalMsg(nil)
	if err != nil {
		return err
	}
	return s.db.Put(metaKey, mb)
}

func (s *CommitteeStore) Load() (*keymanager.Meta, []*keymanager.Committee, error) {
	has, err := s.db.Has(metaKey)
	if err != nil {
		return nil, nil, err
	}
	if !has {
		return nil, nil, nil
	}
	mb, err := s.db.Get(metaKey)
	if err != nil {
		return nil, nil, err
	}
	meta := &keymanager.Meta{}
	if _, err := meta.UnmarshalMsg(mb); err != nil {
		return nil, nil, fmt.Errorf("decode meta: %v", err)
	}

	var committees []*keymanager.Committee
	var decodeErr error
	err = s.db.Scan(committeePrefix, func(key, value []byte) bool {
		c := &keymanager.Committee{}
		if _, err := c.UnmarshalMsg(value); err != nil {
			decodeErr = fmt.Errorf("decode committee %x: %v", key, err)
			return false
		}
		committees = append(committees, c)
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	if decodeErr != nil {
		return nil, nil, decodeErr
	}
	logrus.WithFields(logrus.Fields{
		"next":       meta.NextId,
		"oldest":     meta.OldestStoredId,
		"committees": len(committees),
	}).Debug("loaded registry state")
	return meta, committees, nil
}
