// Copyright 2026 The gaitQ Contributors.
// SPDX-License-Identifier: Apache-2.0
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

package chiptest

// TT1Tag emulates a Type 1 tag (Topaz) with block-organized memory. Blocks
// are eight bytes; segment n spans blocks 16n..16n+15.
type TT1Tag struct {
	// Memory holds the tag's data, 8 bytes per block
	Memory []byte
	// HeaderROM is the two byte HR returned by RID and RALL
	HeaderROM [2]byte
	// UID is the four byte identification returned by RID
	UID [4]byte
}

// NewTT1Tag returns a tag with the given number of blocks, memory filled
// with a recognizable per-byte pattern.
func NewTT1Tag(blocks int) *TT1Tag {
	mem := make([]byte, blocks*8)
	for i := range mem {
		mem[i] = byte(i * 7)
	}
	return &TT1Tag{
		Memory:    mem,
		HeaderROM: [2]byte{0x11, 0x00}, // static memory, Topaz
		UID:       [4]byte{0x01, 0x23, 0x45, 0x67},
	}
}

// Respond implements the tag side of the command set the bit-banger and the
// native forwarding path exercise. A nil return means the tag stays silent.
func (t *TT1Tag) Respond(cmd []byte) []byte {
	if len(cmd) == 0 {
		return nil
	}

	switch cmd[0] {
	case 0x72: // RID
		rsp := make([]byte, 0, 6)
		rsp = append(rsp, t.HeaderROM[:]...)
		return append(rsp, t.UID[:]...)

	case 0x01: // READ (single byte of static memory)
		if len(cmd) < 2 {
			return nil
		}
		add := int(cmd[1]) & 0x7F
		if add >= len(t.Memory) {
			return nil
		}
		return []byte{cmd[1], t.Memory[add]}

	case 0x02: // READ8
		if len(cmd) < 2 {
			return nil
		}
		block := int(cmd[1])
		off := block * 8
		if off+8 > len(t.Memory) {
			return nil
		}
		rsp := make([]byte, 0, 9)
		rsp = append(rsp, cmd[1])
		return append(rsp, t.Memory[off:off+8]...)

	case 0x54, 0x1B: // WRITE-E8, WRITE-NE8
		if len(cmd) < 10 {
			return nil
		}
		block := int(cmd[1])
		off := block * 8
		if off+8 > len(t.Memory) {
			return nil
		}
		copy(t.Memory[off:off+8], cmd[2:10])
		rsp := make([]byte, 0, 9)
		rsp = append(rsp, cmd[1])
		return append(rsp, t.Memory[off:off+8]...)

	case 0x00: // RALL (header ROM plus blocks 0..14)
		limit := 15 * 8
		if limit > len(t.Memory) {
			limit = len(t.Memory)
		}
		rsp := make([]byte, 0, 2+limit)
		rsp = append(rsp, t.HeaderROM[:]...)
		return append(rsp, t.Memory[:limit]...)

	default:
		return nil
	}
}
