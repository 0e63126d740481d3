package keymanager

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/crypto"
	"github.com/annchain/keymanager/eventbus"
	"github.com/stretchr/testify/require"
)

var (
	testAdmin   = common.BytesToAddress([]byte{0xad})
	testManager = common.BytesToAddress([]byte{0x3a})
	stranger    = common.BytesToAddress([]byte{0x55})
)

type fakeClock struct {
	mu  sync.Mutex
	now uint64
	pos uint64
}

func (c *fakeClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Position() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos++
	return c.pos
}

func (c *fakeClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// memStore keeps encoded records so tests exercise the msgp codec too.
type memStore struct {
	meta       []byte
	committees map[uint64][]byte
	fail       error
}

func newMemStore() *memStore {
	return &memStore{committees: make(map[uint64][]byte)}
}

func (s *memStore) PutCommittee(c *Committee, meta *Meta) error {
	if s.fail != nil {
		return s.fail
	}
	cb, err := c.MarshalMsg(nil)
	if err != nil {
		return err
	}
	mb, err := meta.MarshalMsg(nil)
	if err != nil {
		return err
	}
	s.committees[c.Id] = cb
	s.meta = mb
	return nil
}

func (s *memStore) DeleteCommittees(from, to uint64, meta *Meta) error {
	if s.fail != nil {
		return s.fail
	}
	mb, err := meta.MarshalMsg(nil)
	if err != nil {
		return err
	}
	for id := from; id <= to; id++ {
		delete(s.committees, id)
	}
	s.meta = mb
	return nil
}

func (s *memStore) PutMeta(meta *Meta) error {
	if s.fail != nil {
		return s.fail
	}
	mb, err := meta.MarshalMsg(nil)
	if err != nil {
		return err
	}
	s.meta = mb
	return nil
}

func (s *memStore) Load() (*Meta, []*Committee, error) {
	if s.meta == nil {
		return nil, nil, nil
	}
	meta := &Meta{}
	if _, err := meta.UnmarshalMsg(s.meta); err != nil {
		return nil, nil, err
	}
	var out []*Committee
	for _, b := range s.committees {
		c := &Committee{}
		if _, err := c.UnmarshalMsg(b); err != nil {
			return nil, nil, err
		}
		out = append(out, c)
	}
	return meta, out, nil
}

var errDiskFull = errors.New("disk full")

type recordingNotifier struct {
	events []eventbus.Event
}

func (n *recordingNotifier) Route(ev eventbus.Event) {
	n.events = append(n.events, ev)
}

func newTestRegistry(t *testing.T, clock Clock, store Store) *Registry {
	r, err := NewRegistry(RegistryConfig{
		Administrator: testAdmin,
		Manager:       testManager,
		Clock:         clock,
		Store:         store,
	})
	require.NoError(t, err)
	return r
}

func member(i int) CommitteeMember {
	return CommitteeMember{
		SigKey:         []byte{byte(i), 1},
		DhKey:          []byte{byte(i), 2},
		DkgKey:         []byte{byte(i), 3},
		SigAddress:     common.BytesToAddress([]byte{0xee, byte(i)}),
		NetworkAddress: fmt.Sprintf("127.0.0.1:%d", 8000+i),
	}
}

func members(n int) []CommitteeMember {
	out := make([]CommitteeMember, n)
	for i := range out {
		out[i] = member(i)
	}
	return out
}

type testKey struct {
	priv    crypto.PrivateKey
	pub     crypto.PublicKey
	address common.Address
}

func newTestKeys(t *testing.T, n int) []testKey {
	signer := crypto.SignerSecp256k1{}
	keys := make([]testKey, n)
	for i := range keys {
		pub, priv, err := signer.RandomKeyPair()
		require.NoError(t, err)
		keys[i] = testKey{priv: priv, pub: pub, address: signer.Address(pub)}
	}
	return keys
}

func signedMembers(keys []testKey) []CommitteeMember {
	out := make([]CommitteeMember, len(keys))
	for i, k := range keys {
		out[i] = CommitteeMember{
			SigKey:     k.pub.Bytes,
			SigAddress: k.address,
		}
	}
	return out
}

func sign(t *testing.T, k testKey, digest common.Hash) []byte {
	signer := crypto.SignerSecp256k1{}
	sig, err := signer.Sign(k.priv, digest.ToBytes())
	require.NoError(t, err)
	return sig
}
