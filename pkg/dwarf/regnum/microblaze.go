// Package regnum contains the DWARF register numbering used by debug info
// producers for the supported architectures and the mapping to the physical
// register numbering used by the rest of this module.
package regnum

import (
	"fmt"
)

// The DWARF numbering for MicroBlaze covers the 32 general purpose
// registers, a block of floating point and accumulator slots that the
// architecture does not implement, and a handful of special registers of
// which only rmsr has a physical counterpart.

const (
	MicroblazeR0  = 0 // r1 through r31 follow
	MicroblazeMSR = 67

	microblazeLastDwarfReg = 77
)

// microblazeDwarfToRegnum maps a DWARF register number to a physical
// register number, or -1 when the DWARF number has no physical counterpart
// (floating point slots, condition codes, the virtual argument and return
// address pointers).
var microblazeDwarfToRegnum = [microblazeLastDwarfReg + 1]int{
	0, 1, 2, 3, 4, 5, 6, 7, // r0 - r7
	8, 9, 10, 11, 12, 13, 14, 15, // r8 - r15
	16, 17, 18, 19, 20, 21, 22, 23, // r16 - r23
	24, 25, 26, 27, 28, 29, 30, 31, // r24 - r31
	-1, -1, -1, -1, -1, -1, -1, -1, // $f0 - $f7
	-1, -1, -1, -1, -1, -1, -1, -1, // $f8 - $f15
	-1, -1, -1, -1, -1, -1, -1, -1, // $f16 - $f23
	-1, -1, -1, -1, -1, -1, -1, -1, // $f24 - $f31
	-1, -1, -1, 33, // hi, lo, accum, rmsr
	-1, -1, -1, -1, // $fcc1 - $fcc4
	-1, -1, -1, -1, // $fcc5 - $fcc7, $ap
	-1, -1, // $rap, $frp
}

// MicroblazeToRegnum returns the physical register number corresponding to
// the given DWARF register number. The second return value is false when
// the DWARF number is out of range or has no physical counterpart; callers
// must treat that as "no location information", not as register 0.
func MicroblazeToRegnum(num uint64) (int, bool) {
	if num > microblazeLastDwarfReg {
		return -1, false
	}
	rn := microblazeDwarfToRegnum[num]
	return rn, rn >= 0
}

// MicroblazeMaxDwarfRegnum is the largest DWARF register number assigned
// for MicroBlaze.
const MicroblazeMaxDwarfRegnum = microblazeLastDwarfReg

func MicroblazeToName(num uint64) string {
	switch {
	case num <= 31:
		return fmt.Sprintf("r%d", num)
	case num >= 32 && num <= 63:
		return fmt.Sprintf("$f%d", num-32)
	case num == MicroblazeMSR:
		return "rmsr"
	default:
		return fmt.Sprintf("unknown%d", num)
	}
}
