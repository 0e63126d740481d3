// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	var emHash Hash
	nHash, err := HexToHash("0xc770f1dccb00c0b845d36d3baee2590defee2d6894f853eb63a60270612271a3")
	require.NoError(t, err)
	mHash, err := HexToHash("c770f1dccb00c0b845d36d3baee2590defee2d6894f853eb63a60270612271a3")
	require.NoError(t, err)

	assert.True(t, emHash.Empty())
	assert.False(t, nHash.Empty())
	assert.Equal(t, nHash, mHash)
	assert.Equal(t, "0xc770f1dccb00c0b845d36d3baee2590defee2d6894f853eb63a60270612271a3", nHash.Hex())

	_, err = HexToHash("0xc770")
	assert.Error(t, err)
}

func TestHashJSON(t *testing.T) {
	h := BytesToHash([]byte{1, 2, 3})
	bs, err := json.Marshal(h)
	require.NoError(t, err)

	var back Hash
	require.NoError(t, json.Unmarshal(bs, &back))
	assert.Equal(t, h, back)
	assert.Equal(t, byte(3), back.Bytes[HashLength-1])
}

func TestAddress(t *testing.T) {
	a, err := HexToAddress("0x970e8128ab834e8eac17ab8e3812f010678cf791")
	require.NoError(t, err)
	assert.False(t, a.IsZero())
	assert.True(t, Address{}.IsZero())
	assert.Equal(t, "0x970e8128ab834e8eac17ab8e3812f010678cf791", a.String())

	bs, err := json.Marshal(a)
	require.NoError(t, err)
	var back Address
	require.NoError(t, json.Unmarshal(bs, &back))
	assert.Equal(t, a, back)

	_, err = HexToAddress("0x1234")
	assert.Error(t, err)

	long := BytesToAddress(make([]byte, 32))
	assert.True(t, long.IsZero())
}

func TestUint64Bytes(t *testing.T) {
	assert.Equal(t, uint64(0x0102), BytesToUint64(Uint64ToBytes(0x0102)))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 2}, Uint64ToBytes(0x0102))
}
