// Copyright 2024 The Cockroach Authors
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

package restable

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestIntID(t *testing.T) {
	a := MakeIntID[uint32](42)
	b := MakeIntID[uint32](42)
	c := MakeIntID[uint32](43)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.EqualValues(t, 42, a.Value())
	require.Equal(t, a.Hash(), b.Hash())
}

func TestIntIDWidths(t *testing.T) {
	require.EqualValues(t, 4, MakeIntID[uint8](0).MinIndexBitWidth())
	require.EqualValues(t, 8, MakeIntID[uint8](0).MaxIndexBitWidth())
	require.EqualValues(t, 16, MakeIntID[uint16](0).MaxIndexBitWidth())
	require.EqualValues(t, 32, MakeIntID[uint32](0).MaxIndexBitWidth())
	require.EqualValues(t, 64, MakeIntID[uint64](0).MaxIndexBitWidth())
}

func TestStringID(t *testing.T) {
	a := MakeStringID("pv:foo", StringBorrowed)
	b := MakeStringID("pv:foo", StringOwned)
	c := MakeStringID("pv:bar", StringBorrowed)
	require.True(t, a.Equal(b))
	require.True(t, b.Equal(a))
	require.False(t, a.Equal(c))
	require.Equal(t, "pv:foo", a.Name())
	require.Equal(t, "pv:foo", b.Name())
	require.Equal(t, a.Hash(), b.Hash())
	require.EqualValues(t, 8, a.MinIndexBitWidth())
	require.EqualValues(t, 32, a.MaxIndexBitWidth())
}

func TestStringIDUndefined(t *testing.T) {
	var undef StringID
	defined := MakeStringID("", StringBorrowed)

	// The undefined identifier equals nothing, not even itself, so a
	// record whose name was never assigned can never be found.
	require.False(t, undef.Equal(undef))
	require.False(t, undef.Equal(defined))
	require.False(t, defined.Equal(undef))
	require.True(t, defined.Equal(defined))
	require.EqualValues(t, 0, undef.Hash())
}

func TestStringIDOwnership(t *testing.T) {
	// A name can be a view into a larger allocation the caller intends to
	// reuse or release. Owned mode detaches from it; borrowed mode aliases
	// it.
	backing := strings.Repeat("pv:waveform.", 4)
	name := backing[:11]

	borrowed := MakeStringID(name, StringBorrowed)
	owned := MakeStringID(name, StringOwned)
	require.True(t, borrowed.Equal(owned))
	require.True(t, unsafe.StringData(name) == unsafe.StringData(borrowed.Name()))
	require.False(t, unsafe.StringData(name) == unsafe.StringData(owned.Name()))
}
