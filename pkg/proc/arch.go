package proc

import (
	"encoding/binary"
)

// Arch defines an immutable descriptor for a CPU architecture. It is built
// once, at startup, and read-only afterwards; all per-scan state lives in
// the frame caches.
type Arch struct {
	Name string

	// ByteOrder is the byte order of code and data in target memory.
	ByteOrder binary.ByteOrder

	ptrSize  int
	instrLen int
	numRegs  int

	// SPRegNum and PCRegNum are the physical register numbers of the stack
	// pointer and program counter.
	SPRegNum int
	PCRegNum int
	// LRRegNum is the physical register holding the return address.
	LRRegNum int

	registerNames []string
	registerType  func(regnum int) RegisterType

	dwarfToRegnum  func(num uint64) (int, bool)
	regnumToString func(num uint64) string

	extractReturnValue  func(regs Registers, size int, order binary.ByteOrder) ([]byte, error)
	storeReturnValue    func(regs RegisterWriter, value []byte, order binary.ByteOrder) error
	argumentByReference func(size int) bool

	// unwinders are the candidate unwind strategies, consulted in
	// registration order by the frame handle operations.
	unwinders []*frameUnwinder
	frameBase func(fr *Frame) uint64
	unwindRet func(fr *Frame) (uint64, error)

	skipPrologue func(t *Target, pc uint64) uint64
	funcPrologue func(t *Target, entry uint64) PrologueInfo
}

// frameUnwinder is one candidate strategy for reconstructing caller state
// from a frame.
type frameUnwinder struct {
	name string
	// sniff reports whether this unwinder can claim fr. A nil sniff
	// accepts every frame.
	sniff        func(fr *Frame) bool
	frameID      func(fr *Frame) (FrameID, bool)
	prevRegister func(fr *Frame, regnum int) (uint64, error)
}

// PtrSize returns the size of a pointer on this architecture.
func (a *Arch) PtrSize() int {
	return a.ptrSize
}

// InstructionLength returns the (fixed) width of an instruction word.
func (a *Arch) InstructionLength() int {
	return a.instrLen
}

// NumRegisters returns the number of physical registers.
func (a *Arch) NumRegisters() int {
	return a.numRegs
}

// RegisterName returns the name of register regnum, or "" if regnum is out
// of range.
func (a *Arch) RegisterName(regnum int) string {
	if regnum < 0 || regnum >= len(a.registerNames) {
		return ""
	}
	return a.registerNames[regnum]
}

// RegisterType returns how the value of register regnum should be
// interpreted.
func (a *Arch) RegisterType(regnum int) RegisterType {
	return a.registerType(regnum)
}

// DwarfToRegnum maps a DWARF register number to a physical register
// number. The second return value is false when the DWARF number has no
// physical counterpart; callers must treat that as missing location
// information.
func (a *Arch) DwarfToRegnum(num uint64) (int, bool) {
	return a.dwarfToRegnum(num)
}

// DwarfRegisterName returns the name assigned to a DWARF register number.
func (a *Arch) DwarfRegisterName(num uint64) string {
	return a.regnumToString(num)
}

// ExtractReturnValue reads a function return value of the given byte size
// from regs according to the architecture's calling convention.
func (a *Arch) ExtractReturnValue(regs Registers, size int) ([]byte, error) {
	return a.extractReturnValue(regs, size, a.ByteOrder)
}

// StoreReturnValue deposits a synthetic function return value into regs.
func (a *Arch) StoreReturnValue(regs RegisterWriter, value []byte) error {
	return a.storeReturnValue(regs, value, a.ByteOrder)
}

// ArgumentByReference reports whether an argument of the given byte size
// is passed as a hidden pointer instead of by value.
func (a *Arch) ArgumentByReference(size int) bool {
	return a.argumentByReference(size)
}

// unwinderFor returns the first unwinder claiming fr.
func (a *Arch) unwinderFor(fr *Frame) *frameUnwinder {
	for _, u := range a.unwinders {
		if u.sniff == nil || u.sniff(fr) {
			return u
		}
	}
	return nil
}
