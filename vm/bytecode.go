package karel

import (
	"encoding/binary"
	"fmt"
)

// Opcode is the low 4 bits of every instruction's header byte.
type Opcode byte

const (
	OpStep       Opcode = 0x0
	OpLeft       Opcode = 0x1
	OpPickUp     Opcode = 0x2
	OpPlace      Opcode = 0x3
	OpRetn       Opcode = 0x4
	OpStop       Opcode = 0x5
	OpBranch     Opcode = 0x6
	OpBranchLink Opcode = 0x7
	OpRepeat     Opcode = 0x8
)

// Cond is the 3-bit condition code packed into a header byte.
type Cond byte

const (
	CondNone    Cond = 0x0
	CondIsWall  Cond = 0x1
	CondIsFlag  Cond = 0x2
	CondIsHome  Cond = 0x3
	CondIsNorth Cond = 0x4
	CondIsEast  Cond = 0x5
	CondIsSouth Cond = 0x6
	CondIsWest  Cond = 0x7
)

var condNames = map[Cond]string{
	CondNone:    "",
	CondIsWall:  "WALL",
	CondIsFlag:  "FLAG",
	CondIsHome:  "HOME",
	CondIsNorth: "NORTH",
	CondIsEast:  "EAST",
	CondIsSouth: "SOUTH",
	CondIsWest:  "WEST",
}

func (c Cond) String() string {
	s, ok := condNames[c]
	if !ok {
		return "?unknown-cond?"
	}
	return s
}

var opcodeNames = map[Opcode]string{
	OpStep:       "STEP",
	OpLeft:       "LEFT",
	OpPickUp:     "PICK_UP",
	OpPlace:      "PLACE",
	OpRetn:       "RETN",
	OpStop:       "STOP",
	OpBranch:     "BRANCH",
	OpBranchLink: "BRANCH_LINKED",
	OpRepeat:     "REPEAT",
}

func (op Opcode) String() string {
	s, ok := opcodeNames[op]
	if !ok {
		return "?unknown-opcode?"
	}
	return s
}

// Sizes, in bytes, of each instruction form including its header byte.
const (
	sizeNoArg  = 1
	sizeBranch = 1 + 4
	sizeRepeat = 1 + 2 + 4
)

// InstructionSize returns the total encoded size of the instruction whose
// header byte is hdr, including the header itself.
func InstructionSize(hdr byte) int {
	switch Opcode(hdr & 0x0f) {
	case OpBranch, OpBranchLink:
		return sizeBranch
	case OpRepeat:
		return sizeRepeat
	default:
		return sizeNoArg
	}
}

// DecodeHeader splits a header byte into its opcode, condition code and
// inversion flag. Bit layout (low to high): 4 bits opcode, 3 bits
// condition, 1 bit inversion.
func DecodeHeader(hdr byte) (op Opcode, cond Cond, inverse bool) {
	op = Opcode(hdr & 0x0f)
	cond = Cond((hdr >> 4) & 0x07)
	inverse = hdr&0x80 != 0
	return
}

// EncodeHeader packs an opcode, condition code and inversion flag into a
// single header byte.
func EncodeHeader(op Opcode, cond Cond, inverse bool) byte {
	hdr := byte(op) | byte(cond)<<4
	if inverse {
		hdr |= 0x80
	}
	return hdr
}

// RepeatCount extracts the 2-byte little-endian iteration count that
// trails a REPEAT instruction's header byte. instr must start at the
// header byte.
func RepeatCount(instr []byte) uint16 {
	return binary.LittleEndian.Uint16(instr[1:3])
}

// BranchTarget extracts the 4-byte little-endian target address that
// trails a BRANCH or BRANCH_LINKED header byte. instr must start at the
// header byte.
func BranchTarget(instr []byte) uint32 {
	return binary.LittleEndian.Uint32(instr[1:5])
}

// RepeatLoopTop extracts the 4-byte little-endian loop-top address that
// trails a REPEAT instruction's count field. instr must start at the
// header byte.
func RepeatLoopTop(instr []byte) uint32 {
	return binary.LittleEndian.Uint32(instr[3:7])
}

// putU32 appends the little-endian encoding of v to buf.
func putU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// putU16 appends the little-endian encoding of v to buf.
func putU16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// emitSimple appends a 1-byte instruction with no trailing fields.
func emitSimple(buf []byte, op Opcode) []byte {
	return append(buf, EncodeHeader(op, CondNone, false))
}

// emitBranch appends a BRANCH or BRANCH_LINKED instruction. target is
// written verbatim and may be overwritten later with patchU32 once the
// real address is known.
func emitBranch(buf []byte, op Opcode, cond Cond, inverse bool, target uint32) []byte {
	buf = append(buf, EncodeHeader(op, cond, inverse))
	return putU32(buf, target)
}

// emitRepeat appends a REPEAT instruction.
func emitRepeat(buf []byte, n uint16, loopTop uint32) []byte {
	buf = append(buf, EncodeHeader(OpRepeat, CondNone, false))
	buf = putU16(buf, n)
	return putU32(buf, loopTop)
}

// patchU32 overwrites the 4-byte little-endian field at offset off with v.
func patchU32(buf []byte, off uint32, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], v)
}

// FormatInstruction renders the instruction starting at addr in buf as a
// short human-readable string, used by the debug stepper and dump_loaded.
func FormatInstruction(buf []byte, addr uint32) string {
	if int(addr) >= len(buf) {
		return fmt.Sprintf("%d: <out of range>", addr)
	}

	hdr := buf[addr]
	op, cond, inverse := DecodeHeader(hdr)

	condStr := ""
	if cond != CondNone {
		prefix := "IS"
		if inverse {
			prefix = "ISNOT"
		}
		condStr = fmt.Sprintf(" %s %s", prefix, cond)
	}

	switch op {
	case OpBranch, OpBranchLink:
		target := BranchTarget(buf[addr:])
		return fmt.Sprintf("%d: %s%s -> %d", addr, op, condStr, target)
	case OpRepeat:
		n := RepeatCount(buf[addr:])
		loopTop := RepeatLoopTop(buf[addr:])
		return fmt.Sprintf("%d: %s %d-TIMES -> %d", addr, op, n, loopTop)
	default:
		return fmt.Sprintf("%d: %s%s", addr, op, condStr)
	}
}
