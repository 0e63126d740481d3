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

// Length of Addresses in bytes.
const (
	AddressLength = 20
)

var (
	addressT = reflect.TypeOf(Address{})
)

// Address represents the 20 byte of address.
type Address struct {
	Bytes [AddressLength]byte
}

// BytesToAddress sets b to address.
// If b is larger than len(h), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var h Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(h.Bytes[AddressLength-len(b):], b)
	return h
}

// HexToAddress parses a 0x-prefixed (or bare) 40 character hex string.
func HexToAddress(s string) (Address, error) {
	var h Address
	b, err := hexutil.DecodeLoose(s)
	if err != nil {
		return h, err
	}
	if len(b) != AddressLength {
		return h, fmt.Errorf("address has length %d, want %d", len(b), AddressLength)
	}
	copy(h.Bytes[:], b)
	return h, nil
}

// ToBytes convers Address to []byte.
func (h Address) ToBytes() []byte { return h.Bytes[:] }

// Hex converts a Address to a hex string.
func (h Address) Hex() string { return hexutil.Encode(h.Bytes[:]) }

// IsZero reports whether h is the zero address.
func (h Address) IsZero() bool { return h == Address{} }

// TerminalString implements log.TerminalStringer, formatting a string for console
// output during logging.
func (h Address) TerminalString() string {
	return fmt.Sprintf("%x…%x", h.Bytes[:3], h.Bytes[len(h.Bytes)-3:])
}

func (h Address) ShortString() string {
	return hexutil.Encode(h.Bytes[:8])
}

// String implements the stringer interface and is used also by the logger when
// doing full logging into a file.
func (h Address) String() string {
	return h.Hex()
}

// UnmarshalText parses an Address in hex syntax.
func (h *Address) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Address", input, h.Bytes[:])
}

// UnmarshalJSON parses an Address in hex syntax.
func (h *Address) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(addressT, input, h.Bytes[:])
}

// MarshalText returns the hex representation of h.
func (h Address) MarshalText() ([]byte, error) {
	return hexutil.Bytes(h.Bytes[:]).MarshalText()
}
