package keymanager

import (
	"sync"

	"github.com/annchain/keymanager/common"
	"github.com/sirupsen/logrus"
)

// KeyManager is the operation surface exposed to callers. Implementations are
// stateless over a shared Registry so they can be swapped without losing state.
type KeyManager interface {
	Version() string
	SetManager(caller common.Address, newManager common.Address) error
	SetThresholdKey(caller common.Address, key []byte) error
	AppendCommittee(caller common.Address, effectiveTimestamp uint64, members []CommitteeMember) (uint64, error)
	GetCommittee(id uint64) (*Committee, error)
	ResolveActiveCommittee() (uint64, error)
	PruneUpTo(caller common.Address, upToId uint64) error
	VerifyQuorum(digest common.Hash, signatures []byte) (bool, error)
	VerifyQuorumOrdered(digest common.Hash, signatures [][]byte) (bool, error)
	ThresholdKey() ([]byte, bool)
	Status() Status
	Events(from uint64) []JournalEntry
}

// Factory builds a KeyManager implementation over existing state.
type Factory func(registry *Registry, verifier *Verifier) KeyManager

const ManagerVersion = "v1"

// Manager is the default KeyManager.
type Manager struct {
	registry *Registry
	verifier *Verifier
}

func NewManager(registry *Registry, verifier *Verifier) KeyManager {
	return &Manager{registry: registry, verifier: verifier}
}

func (m *Manager) Version() string { return ManagerVersion }

func (m *Manager) SetManager(caller common.Address, newManager common.Address) error {
	return m.registry.SetManager(caller, newManager)
}

func (m *Manager) SetThresholdKey(caller common.Address, key []byte) error {
	return m.registry.SetThresholdKey(caller, key)
}

func (m *Manager) AppendCommittee(caller common.Address, effectiveTimestamp uint64, members []CommitteeMember) (uint64, error) {
	return m.registry.AppendCommittee(caller, effectiveTimestamp, members)
}

func (m *Manager) GetCommittee(id uint64) (*Committee, error) {
	return m.registry.GetCommittee(id)
}

func (m *Manager) ResolveActiveCommittee() (uint64, error) {
	return m.registry.CurrentCommitteeId()
}

func (m *Manager) PruneUpTo(caller common.Address, upToId uint64) error {
	return m.registry.PruneUpTo(caller, upToId)
}

func (m *Manager) VerifyQuorum(digest common.Hash, signatures []byte) (bool, error) {
	return m.verifier.VerifyQuorum(digest, signatures)
}

func (m *Manager) VerifyQuorumOrdered(digest common.Hash, signatures [][]byte) (bool, error) {
	return m.verifier.VerifyQuorumOrdered(digest, signatures)
}

func (m *Manager) ThresholdKey() ([]byte, bool) {
	return m.registry.ThresholdKey()
}

func (m *Manager) Status() Status {
	return m.registry.Status()
}

func (m *Manager) Events(from uint64) []JournalEntry {
	return m.registry.Journal().Since(from)
}

// Handle is the stable entry point callers hold on to. The implementation
// behind it can be replaced by a caller with RoleUpgrader.
type Handle struct {
	mu       sync.RWMutex
	impl     KeyManager
	registry *Registry
	verifier *Verifier
}

func NewHandle(registry *Registry, verifier *Verifier, factory Factory) *Handle {
	if factory == nil {
		factory = NewManager
	}
	return &Handle{
		impl:     factory(registry, verifier),
		registry: registry,
		verifier: verifier,
	}
}

func (h *Handle) current() KeyManager {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.impl
}

// UpgradeTo swaps the implementation. Registry state is untouched.
func (h *Handle) UpgradeTo(caller common.Address, factory Factory) error {
	if !h.registry.Guard().HasRole(caller, RoleUpgrader) {
		return &UnauthorizedError{Caller: caller, Role: RoleUpgrader}
	}
	next := factory(h.registry, h.verifier)
	h.mu.Lock()
	prev := h.impl
	h.impl = next
	h.mu.Unlock()

	logrus.WithField("from", prev.Version()).WithField("to", next.Version()).Info("implementation upgraded")
	h.registry.emit(&ImplementationUpgradedEvent{From: prev.Version(), To: next.Version()})
	return nil
}

func (h *Handle) Verifier() *Verifier { return h.verifier }

func (h *Handle) Version() string { return h.current().Version() }

func (h *Handle) SetManager(caller common.Address, newManager common.Address) error {
	return h.current().SetManager(caller, newManager)
}

func (h *Handle) SetThresholdKey(caller common.Address, key []byte) error {
	return h.current().SetThresholdKey(caller, key)
}

func (h *Handle) AppendCommittee(caller common.Address, effectiveTimestamp uint64, members []CommitteeMember) (uint64, error) {
	return h.current().AppendCommittee(caller, effectiveTimestamp, members)
}

func (h *Handle) GetCommittee(id uint64) (*Committee, error) {
	return h.current().GetCommittee(id)
}

func (h *Handle) ResolveActiveCommittee() (uint64, error) {
	return h.current().ResolveActiveCommittee()
}

func (h *Handle) PruneUpTo(caller common.Address, upToId uint64) error {
	return h.current().PruneUpTo(caller, upToId)
}

func (h *Handle) VerifyQuorum(digest common.Hash, signatures []byte) (bool, error) {
	return h.current().VerifyQuorum(digest, signatures)
}

func (h *Handle) VerifyQuorumOrdered(digest common.Hash, signatures [][]byte) (bool, error) {
	return h.current().VerifyQuorumOrdered(digest, signatures)
}

func (h *Handle) ThresholdKey() ([]byte, bool) {
	return h.current().ThresholdKey()
}

func (h *Handle) Status() Status {
	return h.current().Status()
}

func (h *Handle) Events(from uint64) []JournalEntry {
	return h.current().Events(from)
}
