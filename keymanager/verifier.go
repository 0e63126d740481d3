package keymanager

import (
	"sync"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/crypto"
	mapset "github.com/deckarep/golang-set"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
)

// CommitteeSource yields the committee in force at a point in time.
type CommitteeSource interface {
	ActiveCommittee(now uint64) (*Committee, error)
}

// SignatureChecker decides whether sig over digest is a valid signature of member.
type SignatureChecker interface {
	CheckSignature(member CommitteeMember, digest common.Hash, sig []byte) bool
}

// Verifier decides whether a set of signatures reaches the quorum of the
// currently active committee.
type Verifier struct {
	source CommitteeSource
	clock  Clock
	signer *crypto.SignerSecp256k1
	// recovered caches (digest || signature) -> signer address.
	recovered *lru.Cache

	mu               sync.RWMutex
	contractCheckers map[common.Address]SignatureChecker
}

// NewVerifier builds a verifier. cacheSize <= 0 disables the recovery cache.
func NewVerifier(source CommitteeSource, clock Clock, cacheSize int) (*Verifier, error) {
	v := &Verifier{
		source:           source,
		clock:            clock,
		signer:           &crypto.SignerSecp256k1{},
		contractCheckers: make(map[common.Address]SignatureChecker),
	}
	if cacheSize > 0 {
		cache, err := lru.New(cacheSize)
		if err != nil {
			return nil, err
		}
		v.recovered = cache
	}
	return v, nil
}

// RegisterContractChecker makes ordered verification use checker instead of
// plain ECDSA for the member whose SigAddress is addr.
func (v *Verifier) RegisterContractChecker(addr common.Address, checker SignatureChecker) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if checker == nil {
		delete(v.contractCheckers, addr)
		return
	}
	v.contractCheckers[addr] = checker
}

func (v *Verifier) contractChecker(addr common.Address) (SignatureChecker, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c, ok := v.contractCheckers[addr]
	return c, ok
}

func (v *Verifier) recover(digest common.Hash, sig []byte) (common.Address, bool) {
	var key string
	if v.recovered != nil {
		key = string(digest.Bytes[:]) + string(sig)
		if addr, ok := v.recovered.Get(key); ok {
			return addr.(common.Address), true
		}
	}
	addr, err := v.signer.RecoverAddress(digest, sig)
	if err != nil {
		logrus.WithError(err).Trace("signature not recoverable")
		return common.Address{}, false
	}
	if v.recovered != nil {
		v.recovered.Add(key, addr)
	}
	return addr, true
}

// CheckSignature is the plain ECDSA check against member.SigAddress.
func (v *Verifier) CheckSignature(member CommitteeMember, digest common.Hash, sig []byte) bool {
	if member.SigAddress.IsZero() {
		return false
	}
	addr, ok := v.recover(digest, sig)
	return ok && addr == member.SigAddress
}

// VerifyQuorum checks a flat buffer of 65 byte signatures in any order. Each
// member is credited at most once however many of its signatures appear.
func (v *Verifier) VerifyQuorum(digest common.Hash, signatures []byte) (bool, error) {
	if len(signatures)%crypto.SignatureLength != 0 {
		return false, ErrInvalidSignatureLength
	}
	committee, err := v.source.ActiveCommittee(v.clock.Now())
	if err != nil {
		return false, err
	}
	threshold := committee.Threshold()

	// a SigAddress shared by several members identifies none of them
	index := make(map[common.Address]int, len(committee.Members))
	for i, m := range committee.Members {
		if m.SigAddress.IsZero() {
			continue
		}
		if _, dup := index[m.SigAddress]; dup {
			index[m.SigAddress] = -1
			continue
		}
		index[m.SigAddress] = i
	}

	credited := mapset.NewThreadUnsafeSet()
	for off := 0; off < len(signatures); off += crypto.SignatureLength {
		addr, ok := v.recover(digest, signatures[off:off+crypto.SignatureLength])
		if !ok {
			continue
		}
		i, ok := index[addr]
		if !ok || i < 0 || credited.Contains(i) {
			continue
		}
		credited.Add(i)
		if credited.Cardinality() >= threshold {
			logrus.WithFields(logrus.Fields{
				"committee": committee.Id,
				"credited":  credited.Cardinality(),
				"threshold": threshold,
			}).Debug("quorum reached")
			return true, nil
		}
	}
	logrus.WithFields(logrus.Fields{
		"committee": committee.Id,
		"credited":  credited.Cardinality(),
		"threshold": threshold,
	}).Debug("quorum not reached")
	return false, nil
}

// VerifyQuorumOrdered checks signatures[i] against member i only. An empty
// entry means the member did not sign.
func (v *Verifier) VerifyQuorumOrdered(digest common.Hash, signatures [][]byte) (bool, error) {
	if digest.Empty() {
		return false, ErrInvalidDigest
	}
	committee, err := v.source.ActiveCommittee(v.clock.Now())
	if err != nil {
		return false, err
	}
	if len(signatures) != len(committee.Members) {
		return false, ErrInvalidSignatureLength
	}
	threshold := committee.Threshold()
	count := 0
	for i, sig := range signatures {
		if len(sig) == 0 {
			continue
		}
		member := committee.Members[i]
		var checker SignatureChecker = v
		if c, ok := v.contractChecker(member.SigAddress); ok {
			checker = c
		}
		if !checker.CheckSignature(member, digest, sig) {
			logrus.WithField("committee", committee.Id).WithField("index", i).Trace("signature rejected")
			continue
		}
		count++
		if count >= threshold {
			logrus.WithFields(logrus.Fields{
				"committee": committee.Id,
				"credited":  count,
				"threshold": threshold,
			}).Debug("ordered quorum reached")
			return true, nil
		}
	}
	logrus.WithFields(logrus.Fields{
		"committee": committee.Id,
		"credited":  count,
		"threshold": threshold,
	}).Debug("ordered quorum not reached")
	return false, nil
}
