package keymanager

import (
	"sync"

	"github.com/annchain/keymanager/common"
)

type Role int

const (
	RoleAdministrator Role = iota
	RoleManager
	// RoleUpgrader may swap the implementation behind a Handle.
	RoleUpgrader
)

func (r Role) String() string {
	switch r {
	case RoleAdministrator:
		return "administrator"
	case RoleManager:
		return "manager"
	case RoleUpgrader:
		return "upgrader"
	default:
		return "unknown"
	}
}

// Guard answers whether a caller holds a role.
type Guard interface {
	HasRole(caller common.Address, role Role) bool
}

// RoleStore is the built-in Guard. The administrator also holds RoleUpgrader.
// The zero address never holds any role.
type RoleStore struct {
	mu            sync.RWMutex
	administrator common.Address
	manager       common.Address
}

func NewRoleStore(administrator, manager common.Address) *RoleStore {
	return &RoleStore{administrator: administrator, manager: manager}
}

func (r *RoleStore) HasRole(caller common.Address, role Role) bool {
	if caller.IsZero() {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch role {
	case RoleAdministrator, RoleUpgrader:
		return caller == r.administrator
	case RoleManager:
		return caller == r.manager
	}
	return false
}

func (r *RoleStore) Administrator() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.administrator
}

func (r *RoleStore) Manager() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.manager
}

func (r *RoleStore) setManager(m common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manager = m
}
