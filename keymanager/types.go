package keymanager

import (
	"fmt"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/hexutil"
)

// CommitteeMember is one participant's key material for one committee.
// Fields are never modified once the member is part of a stored committee.
type CommitteeMember struct {
	SigKey hexutil.Bytes `json:"sig_key"`
	DhKey  hexutil.Bytes `json:"dh_key"`
	DkgKey hexutil.Bytes `json:"dkg_key"`
	// SigAddress is derived from SigKey and is what recovered signatures are matched against.
	// Zero when the member does not take part in quorum signing.
	SigAddress       common.Address `json:"sig_address"`
	NetworkAddress   string         `json:"network_address"`
	AuxiliaryAddress string         `json:"auxiliary_address"`
}

func (m CommitteeMember) clone() CommitteeMember {
	return CommitteeMember{
		SigKey:           common.CopyBytes(m.SigKey),
		DhKey:            common.CopyBytes(m.DhKey),
		DkgKey:           common.CopyBytes(m.DkgKey),
		SigAddress:       m.SigAddress,
		NetworkAddress:   m.NetworkAddress,
		AuxiliaryAddress: m.AuxiliaryAddress,
	}
}

// Committee is the frozen member set active from EffectiveTimestamp until the
// next committee takes over.
type Committee struct {
	Id                 uint64            `json:"id"`
	EffectiveTimestamp uint64            `json:"effective_timestamp"`
	RegisteredAt       uint64            `json:"registered_at"`
	Members            []CommitteeMember `json:"members"`
}

func (c *Committee) clone() *Committee {
	members := make([]CommitteeMember, len(c.Members))
	for i, m := range c.Members {
		members[i] = m.clone()
	}
	return &Committee{
		Id:                 c.Id,
		EffectiveTimestamp: c.EffectiveTimestamp,
		RegisteredAt:       c.RegisteredAt,
		Members:            members,
	}
}

// Threshold is the quorum size of c.
func (c *Committee) Threshold() int {
	return QuorumThreshold(len(c.Members))
}

func (c *Committee) String() string {
	return fmt.Sprintf("committee-%d[ts=%d members=%d]", c.Id, c.EffectiveTimestamp, len(c.Members))
}

// QuorumThreshold returns floor(2*(n-1)/3) + 1, the number of members that must
// agree for a committee of n to tolerate floor((n-1)/3) faulty members.
func QuorumThreshold(n int) int {
	if n <= 0 {
		return 1
	}
	return 2*(n-1)/3 + 1
}
