// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package common

import (
	"fmt"
	"reflect"

	"github.com/annchain/keymanager/common/hexutil"
)

// Length of hash in bytes.
const (
	HashLength = 32
)

var (
	hashT = reflect.TypeOf(Hash{})
)

// Hash represents the 32 byte digest signatures are produced over.
type Hash struct {
	Bytes [HashLength]byte
}

func (h Hash) Empty() bool {
	return h == Hash{}
}

// BytesToHash sets b to hash.
// If b is larger than len(h), b will be cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h.Bytes[HashLength-len(b):], b)
	return h
}

// HexToHash parses a 0x-prefixed (or bare) 64 character hex string.
func HexToHash(s string) (Hash, error) {
	var h Hash
	b, err := hexutil.DecodeLoose(s)
	if err != nil {
		return h, err
	}
	if len(b) != HashLength {
		return h, fmt.Errorf("hash has length %d, want %d", len(b), HashLength)
	}
	copy(h.Bytes[:], b)
	return h, nil
}

// ToBytes convers Hash to []byte.
func (h Hash) ToBytes() []byte { return h.Bytes[:] }

// Hex converts a hash to a hex string.
func (h Hash) Hex() string { return hexutil.Encode(h.Bytes[:]) }

// TerminalString implements log.TerminalStringer, formatting a string for console
// output during logging.
func (h Hash) TerminalString() string {
	return fmt.Sprintf("%x…%x", h.Bytes[:3], h.Bytes[HashLength-3:])
}

// String implements the stringer interface and is used also by the logger when
// doing full logging into a file.
func (h Hash) String() string {
	return h.Hex()
}

// UnmarshalText parses a hash in hex syntax.
func (h *Hash) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Hash", input, h.Bytes[:])
}

// UnmarshalJSON parses a hash in hex syntax.
func (h *Hash) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(hashT, input, h.Bytes[:])
}

// MarshalText returns the hex representation of h.
func (h Hash) MarshalText() ([]byte, error) {
	return hexutil.Bytes(h.Bytes[:]).MarshalText()
}
