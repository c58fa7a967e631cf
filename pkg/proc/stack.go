package proc

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/mbdebug/mbdebug/pkg/logflags"
	"github.com/mbdebug/mbdebug/pkg/symtab"
)

const (
	defaultMaxScanInstructions = 1024
	prologueCacheSize          = 128
)

// Target binds an architecture descriptor to one target's memory and
// symbol table for the duration of a debugging session. It is the entry
// point for prologue analysis and stack unwinding.
type Target struct {
	Arch *Arch
	Mem  MemoryReader
	Syms *symtab.Table

	archLog *logrus.Entry
	log     *logrus.Entry

	// prologueCache memoizes full-function prologue analyses across
	// frames and repeated SkipPrologue calls.
	prologueCache *lru.Cache

	maxScanInstructions int
}

// NewTarget returns a Target for the given architecture, memory and
// symbol table.
func NewTarget(arch *Arch, mem MemoryReader, syms *symtab.Table) *Target {
	cache, _ := lru.New(prologueCacheSize)
	return &Target{
		Arch:                arch,
		Mem:                 mem,
		Syms:                syms,
		archLog:             logflags.MicroblazeLogger(),
		log:                 logflags.UnwindLogger(),
		prologueCache:       cache,
		maxScanInstructions: defaultMaxScanInstructions,
	}
}

// SetMaxScanInstructions bounds the number of instructions a prologue scan
// may examine when the symbol table has no end address for a function.
func (t *Target) SetMaxScanInstructions(n int) {
	if n > 0 {
		t.maxScanInstructions = n
	}
}

// SkipPrologue returns the address of the first instruction after the
// prologue of the function starting at pc.
func (t *Target) SkipPrologue(pc uint64) uint64 {
	return t.Arch.skipPrologue(t, pc)
}

// FunctionPrologue returns the full-function prologue analysis for the
// function entered at entry.
func (t *Target) FunctionPrologue(entry uint64) PrologueInfo {
	return t.Arch.funcPrologue(t, entry)
}

// PrologueInfo is the externally visible result of analyzing one
// function's prologue.
type PrologueInfo struct {
	// FrameSize is the number of stack bytes the function reserves.
	FrameSize int64
	// FPRegNum is the register acting as the frame pointer, the stack
	// pointer register when the function does not set one up.
	FPRegNum int
	// Frameless is true when the function never adjusts the stack pointer.
	Frameless bool
	// PrologueEnd is the first address past the recognized prologue.
	PrologueEnd uint64
	// SavedRegisters maps each spilled register to the offset of its save
	// slot relative to the frame base.
	SavedRegisters map[int]int64
}

// FrameID identifies one frame on the call stack by the address of its
// base and its position in the code. It is used to detect unwind loops
// and frame equality.
type FrameID struct {
	Stack uint64
	Code  uint64
}

// Frame is a handle on one call frame during an unwind. The unwinder's
// per-frame analysis is memoized in the frame's cache slot.
type Frame struct {
	t     *Target
	level int
	pc    uint64
	regs  Registers

	// cache is the opaque slot owned by whichever unwinder claimed the
	// frame.
	cache interface{}
}

// NewFrame returns the innermost frame of the call stack described by
// regs.
func (t *Target) NewFrame(regs Registers) *Frame {
	return &Frame{t: t, pc: regs.PC(), regs: regs}
}

// PC returns the frame's address in block.
func (fr *Frame) PC() uint64 {
	return fr.pc
}

// Level returns the frame's distance from the innermost frame.
func (fr *Frame) Level() int {
	return fr.level
}

// Regs returns the frame's register file.
func (fr *Frame) Regs() Registers {
	return fr.regs
}

// FrameID returns the frame's identity. The second return value is false
// for the outermost frame, which has no identity and terminates
// backtraces.
func (fr *Frame) FrameID() (FrameID, bool) {
	u := fr.t.Arch.unwinderFor(fr)
	if u == nil {
		return FrameID{}, false
	}
	return u.frameID(fr)
}

// PrevRegister returns the value the given register had in the frame's
// caller.
func (fr *Frame) PrevRegister(regnum int) (uint64, error) {
	u := fr.t.Arch.unwinderFor(fr)
	if u == nil {
		return 0, errors.New("no unwinder for frame")
	}
	return u.prevRegister(fr, regnum)
}

// FrameBase returns the address of the beginning of the frame. Locals,
// arguments and frame identity all use the same base on this
// architecture.
func (fr *Frame) FrameBase() uint64 {
	return fr.t.Arch.frameBase(fr)
}

// Location is a position in the target's code.
type Location struct {
	PC uint64
	Fn *symtab.Function
}

// Stackframe represents a frame in the stack trace of a target.
type Stackframe struct {
	// Current is the frame's own position.
	Current Location
	// Base is the address of the beginning of the stack frame.
	Base uint64
	// Ret is the return address for this stack frame, as recovered from
	// the frame itself, before any resume address adjustment.
	Ret uint64
}

// stackIterator walks the call stack one frame at a time.
type stackIterator struct {
	t      *Target
	fr     *Frame
	atend  bool
	frame  Stackframe
	err    error
	lastID FrameID
	hasID  bool
}

func newStackIterator(t *Target, regs Registers) *stackIterator {
	return &stackIterator{t: t, fr: t.NewFrame(regs)}
}

// Next points the iterator to the next stack frame.
func (it *stackIterator) Next() bool {
	if it.err != nil || it.atend {
		return false
	}

	fr := it.fr
	it.frame = Stackframe{
		Current: Location{PC: fr.pc, Fn: it.t.Syms.PCToFunction(fr.pc)},
		Base:    fr.FrameBase(),
	}

	id, ok := fr.FrameID()
	if !ok {
		// Outermost frame, no caller above it.
		it.atend = true
		return true
	}
	if it.hasID && id == it.lastID {
		it.err = fmt.Errorf("frame loop detected at %#x", fr.pc)
		return false
	}
	it.lastID, it.hasID = id, true

	ret, err := it.t.Arch.unwindRet(fr)
	if err != nil || ret == 0 {
		it.atend = true
		return true
	}
	it.frame.Ret = ret

	// Return addresses point before the caller's resume position; the
	// innermost frame's pc is the only one used as-is.
	callerPC := ret + microblazeRetAddrAdjustment

	callerRegs := fr.regs.Copy()
	w, isWriter := callerRegs.(RegisterWriter)
	if !isWriter {
		it.err = errors.New("register set is not writable")
		return false
	}
	for rn := 0; rn < it.t.Arch.NumRegisters(); rn++ {
		if v, err := fr.PrevRegister(rn); err == nil {
			w.SetReg(rn, v)
		}
	}
	w.SetReg(it.t.Arch.SPRegNum, it.frame.Base)
	w.SetReg(it.t.Arch.PCRegNum, callerPC)

	it.t.log.Debugf("unwound frame %d: pc=%#x base=%#x ret=%#x", fr.level, fr.pc, it.frame.Base, ret)

	it.fr = &Frame{t: it.t, level: fr.level + 1, pc: callerPC, regs: callerRegs}
	return true
}

// Frame returns the frame the iterator is pointing at.
func (it *stackIterator) Frame() Stackframe {
	return it.frame
}

// Err returns the error encountered during stack iteration.
func (it *stackIterator) Err() error {
	return it.err
}

// Stacktrace returns the stack trace of the call stack described by regs.
// Note the locations in the array are return addresses, not call
// addresses, except for the innermost frame.
func (t *Target) Stacktrace(regs Registers, depth int) ([]Stackframe, error) {
	if depth < 0 {
		return nil, errors.New("negative maximum stack depth")
	}
	it := newStackIterator(t, regs)
	frames := make([]Stackframe, 0, depth+1)
	for it.Next() {
		frames = append(frames, it.Frame())
		if len(frames) >= depth+1 {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}
