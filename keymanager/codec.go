package keymanager

import (
	"github.com/tinylib/msgp/msgp"
)

// Committees and registry metadata are persisted as msgpack tuples.

// MarshalMsg implements msgp.Marshaler
func (z *CommitteeMember) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	// array header, size 6
	o = append(o, 0x96)
	o = msgp.AppendBytes(o, z.SigKey)
	o = msgp.AppendBytes(o, z.DhKey)
	o = msgp.AppendBytes(o, z.DkgKey)
	o = msgp.AppendBytes(o, z.SigAddress.Bytes[:])
	o = msgp.AppendString(o, z.NetworkAddress)
	o = msgp.AppendString(o, z.AuxiliaryAddress)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *CommitteeMember) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if zb0001 != 6 {
		err = msgp.ArrayError{Wanted: 6, Got: zb0001}
		return
	}
	z.SigKey, bts, err = msgp.ReadBytesBytes(bts, z.SigKey)
	if err != nil {
		return
	}
	z.DhKey, bts, err = msgp.ReadBytesBytes(bts, z.DhKey)
	if err != nil {
		return
	}
	z.DkgKey, bts, err = msgp.ReadBytesBytes(bts, z.DkgKey)
	if err != nil {
		return
	}
	bts, err = msgp.ReadExactBytes(bts, z.SigAddress.Bytes[:])
	if err != nil {
		return
	}
	z.NetworkAddress, bts, err = msgp.ReadStringBytes(bts)
	if err != nil {
		return
	}
	z.AuxiliaryAddress, bts, err = msgp.ReadStringBytes(bts)
	if err != nil {
		return
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *CommitteeMember) Msgsize() (s int) {
	s = 1 + msgp.BytesPrefixSize + len(z.SigKey) + msgp.BytesPrefixSize + len(z.DhKey) +
		msgp.BytesPrefixSize + len(z.DkgKey) + msgp.BytesPrefixSize + len(z.SigAddress.Bytes) +
		msgp.StringPrefixSize + len(z.NetworkAddress) + msgp.StringPrefixSize + len(z.AuxiliaryAddress)
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *Committee) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	// array header, size 4
	o = append(o, 0x94)
	o = msgp.AppendUint64(o, z.Id)
	o = msgp.AppendUint64(o, z.EffectiveTimestamp)
	o = msgp.AppendUint64(o, z.RegisteredAt)
	o = msgp.AppendArrayHeader(o, uint32(len(z.Members)))
	for za0001 := range z.Members {
		o, err = z.Members[za0001].MarshalMsg(o)
		if err != nil {
			return
		}
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Committee) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if zb0001 != 4 {
		err = msgp.ArrayError{Wanted: 4, Got: zb0001}
		return
	}
	z.Id, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	z.EffectiveTimestamp, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	z.RegisteredAt, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	var zb0002 uint32
	zb0002, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if cap(z.Members) >= int(zb0002) {
		z.Members = (z.Members)[:zb0002]
	} else {
		z.Members = make([]CommitteeMember, zb0002)
	}
	for za0001 := range z.Members {
		bts, err = z.Members[za0001].UnmarshalMsg(bts)
		if err != nil {
			return
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *Committee) Msgsize() (s int) {
	s = 1 + 3*msgp.Uint64Size + msgp.ArrayHeaderSize
	for za0001 := range z.Members {
		s += z.Members[za0001].Msgsize()
	}
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *Meta) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	// array header, size 8
	o = append(o, 0x98)
	o = msgp.AppendUint64(o, z.NextId)
	o = msgp.AppendUint64(o, z.OldestStoredId)
	o = msgp.AppendUint64(o, z.LastEffectiveTimestamp)
	o = msgp.AppendUint64(o, z.LastRegisteredAt)
	o = msgp.AppendBytes(o, z.ThresholdKey)
	o = msgp.AppendBool(o, z.ThresholdKeySet)
	o = msgp.AppendBytes(o, z.Manager.Bytes[:])
	o = msgp.AppendBytes(o, z.Administrator.Bytes[:])
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Meta) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if zb0001 != 8 {
		err = msgp.ArrayError{Wanted: 8, Got: zb0001}
		return
	}
	z.NextId, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	z.OldestStoredId, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	z.LastEffectiveTimestamp, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	z.LastRegisteredAt, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	z.ThresholdKey, bts, err = msgp.ReadBytesBytes(bts, z.ThresholdKey)
	if err != nil {
		return
	}
	z.ThresholdKeySet, bts, err = msgp.ReadBoolBytes(bts)
	if err != nil {
		return
	}
	bts, err = msgp.ReadExactBytes(bts, z.Manager.Bytes[:])
	if err != nil {
		return
	}
	bts, err = msgp.ReadExactBytes(bts, z.Administrator.Bytes[:])
	if err != nil {
		return
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *Meta) Msgsize() (s int) {
	s = 1 + 4*msgp.Uint64Size + msgp.BytesPrefixSize + len(z.ThresholdKey) + msgp.BoolSize +
		2*(msgp.BytesPrefixSize+len(z.Manager.Bytes))
	return
}
