package keymanager

import (
	"testing"

	"github.com/annchain/keymanager/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitteeMsgp(t *testing.T) {
	c := &Committee{
		Id:                 42,
		EffectiveTimestamp: 1700000000,
		RegisteredAt:       7,
		Members:            members(3),
	}
	c.Members[2].AuxiliaryAddress = "10.0.0.1:9000"

	b, err := c.MarshalMsg(nil)
	require.NoError(t, err)
	assert.True(t, len(b) <= c.Msgsize())

	var decoded Committee
	rest, err := decoded.UnmarshalMsg(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, *c, decoded)
}

func TestMetaMsgp(t *testing.T) {
	m := &Meta{
		NextId:                 10,
		OldestStoredId:         4,
		LastEffectiveTimestamp: 99,
		LastRegisteredAt:       12,
		ThresholdKey:           []byte{1, 2},
		ThresholdKeySet:        true,
		Manager:                testManager,
		Administrator:          testAdmin,
	}
	b, err := m.MarshalMsg(nil)
	require.NoError(t, err)

	var decoded Meta
	_, err = decoded.UnmarshalMsg(b)
	require.NoError(t, err)
	assert.Equal(t, *m, decoded)
}

func TestCommitteeMsgpRejectsTruncated(t *testing.T) {
	c := &Committee{Id: 1, Members: []CommitteeMember{{SigAddress: common.BytesToAddress([]byte{1})}}}
	b, err := c.MarshalMsg(nil)
	require.NoError(t, err)

	var decoded Committee
	_, err = decoded.UnmarshalMsg(b[:len(b)-3])
	assert.Error(t, err)

	var m Meta
	_, err = m.UnmarshalMsg(b)
	assert.Error(t, err)
}
