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

// integerHash folds an unsigned integer of at most maxWidth meaningful bits
// down toward minWidth bits by repeatedly XORing the value with its upper
// half. After folding, any mask of width in [minWidth, maxWidth] applied to
// the result still depends on every input bit. The result is intentionally
// not masked here; masking to the current table width is the table's job, so
// one mixer serves tables of any size.
//
// When minWidth >= maxWidth the loop body never runs and the value is
// returned unchanged.
func integerHash(minWidth, maxWidth uint, v uint64) uint {
	for width := maxWidth; width > minWidth; {
		width >>= 1
		v ^= v >> width
	}
	return uint(v)
}

// pearsonHash computes a four-lane permuted-byte hash of s, consuming bytes
// round-robin across four 8-bit lanes and stopping at the first NUL byte.
// Returns the 32-bit lane composite h3<<24 | h2<<16 | h1<<8 | h0.
//
// This is a modification of the algorithm described in "Fast Hashing of
// Variable Length Text Strings", Peter K. Pearson, Communications of the
// ACM, June 1990. Four lanes decorrelate rotations of the input.
func pearsonHash(s string) uint32 {
	var h [4]uint8
	lane := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 0 {
			break
		}
		h[lane] = pearsonPermutedIndex[h[lane]^c]
		lane = (lane + 1) & 3
	}
	return uint32(h[3])<<24 | uint32(h[2])<<16 | uint32(h[1])<<8 | uint32(h[0])
}

// stringHash is the composite pearsonHash passed through the integer mixer
// with the string identifier's width bounds.
func stringHash(s string) uint {
	return integerHash(stringIDMinIndexWidth, stringIDMaxIndexWidth, uint64(pearsonHash(s)))
}

// pearsonPermutedIndex is a fixed permutation of 0..255 driving the lane
// updates in pearsonHash. The exact byte values are part of the
// compatibility surface: hashes derived from them may be stored externally,
// so the table must never change.
var pearsonPermutedIndex = [256]uint8{
	39, 159, 180, 252, 71, 6, 13, 164, 232, 35, 226, 155, 98, 120, 154, 69,
	157, 24, 137, 29, 147, 78, 121, 85, 112, 8, 248, 130, 55, 117, 190, 160,
	176, 131, 228, 64, 211, 106, 38, 27, 140, 30, 88, 210, 227, 104, 84, 77,
	75, 107, 169, 138, 195, 184, 70, 90, 61, 166, 7, 244, 165, 108, 219, 51,
	9, 139, 209, 40, 31, 202, 58, 179, 116, 33, 207, 146, 76, 60, 242, 124,
	254, 197, 80, 167, 153, 145, 129, 233, 132, 48, 246, 86, 156, 177, 36, 187,
	45, 1, 96, 18, 19, 62, 185, 234, 99, 16, 218, 95, 128, 224, 123, 253,
	42, 109, 4, 247, 72, 5, 151, 136, 0, 152, 148, 127, 204, 133, 17, 14,
	182, 217, 54, 199, 119, 174, 82, 57, 215, 41, 114, 208, 206, 110, 239, 23,
	189, 15, 3, 22, 188, 79, 113, 172, 28, 2, 222, 21, 251, 225, 237, 105,
	102, 32, 56, 181, 126, 83, 230, 53, 158, 52, 59, 213, 118, 100, 67, 142,
	220, 170, 144, 115, 205, 26, 125, 168, 249, 66, 175, 97, 255, 92, 229, 91,
	214, 236, 178, 243, 46, 44, 201, 250, 135, 186, 150, 221, 163, 216, 162, 43,
	11, 101, 34, 37, 194, 25, 50, 12, 87, 198, 173, 240, 193, 171, 143, 231,
	111, 141, 191, 103, 74, 245, 223, 20, 161, 235, 122, 63, 89, 149, 73, 238,
	134, 68, 93, 183, 241, 81, 196, 49, 192, 65, 212, 94, 203, 10, 200, 47,
}
