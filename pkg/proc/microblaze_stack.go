package proc

// Function prologues on MicroBlaze consist of:
//
//   - adjustments to the stack pointer (r1) (addi r1, r1, imm)
//   - making a copy of r1 into another register (a "frame" pointer)
//     (add r?, r1, r0)
//   - store words that use r1 or the frame pointer as the base address
//     (swi r?, r1, imm OR swi r?, fp, imm)
//
// MicroBlaze doesn't have a real frame pointer: the compiler may copy the
// SP into a register (usually r19) to act as one. The frame cache's base is
// the beginning of the frame; the SP may point below it.
//
// The prologue ends when an instruction fails to meet any of these
// criteria, unless it is also not a control transfer: optimizing compilers
// schedule unrelated instructions between prologue instructions, so the
// scan continues past those and only a genuine control transfer stops it.

// microblazeScanTerminalGroups lists the raw opcode groups that terminate
// a prologue scan, and microblazeScanContinuableGroups the groups that are
// continuable even though they sit next to the control transfers (the imm
// prefix). The exact boundary of these sets encodes an assumption about
// which opcodes an optimizer may interleave into a prologue; it is kept as
// data so it can be checked against the encoding table.
var microblazeScanTerminalGroups = map[uint8]bool{
	mbGroupBr:   true,
	mbGroupBcc:  true,
	mbGroupRet:  true,
	mbGroupBri:  true,
	mbGroupBcci: true,
}

var microblazeScanContinuableGroups = map[uint8]bool{
	mbGroupImm: true,
}

// microblazeFetchInstruction fetches the instruction word at pc. If the
// memory is unreadable it returns the zero word, so that a scan degrades
// instead of propagating a read fault.
func microblazeFetchInstruction(t *Target, pc uint64) uint32 {
	buf := make([]byte, microblazeInstrLen)
	if _, err := t.Mem.ReadMemory(buf, pc); err != nil {
		return 0
	}
	return t.Arch.ByteOrder.Uint32(buf)
}

// microblazeAnalyzePrologue scans the prologue of the function containing
// pc to determine where registers are saved, the frame size and the end of
// the prologue, filling cache with the results. currentPC bounds the scan:
// no instruction at or beyond it is examined. It returns the address of
// the first instruction of "real" code.
func microblazeAnalyzePrologue(t *Target, pc, currentPC uint64, cache *microblazeFrameCache) uint64 {
	funcAddr, funcEnd := pc, pc+uint64(t.maxScanInstructions*microblazeInstrLen)
	if fn := t.Syms.PCToFunction(pc); fn != nil {
		funcAddr = fn.Entry
		if fn.End != 0 {
			funcEnd = fn.End
		}
		if funcAddr < pc {
			pc = funcAddr
		}
	}

	if currentPC < pc {
		return currentPC
	}

	cache.frameSize = 0
	cache.fpRegnum = microblazeSPRegNum
	cache.frameless = true

	saveHiddenPointerFound := false
	nonStackInstructionFound := false
	prologueEndAddr := uint64(0)
	prologueEndFound := false

	// Two special cases before scanning: if we're about to return the
	// frame has already been deallocated, and if we are stopped at the
	// first instruction of the prologue the frame has not been set up yet.
	insn := decodeInstruction(microblazeFetchInstruction(t, pc))
	if insn.classify(cache.fpRegnum) == prologueOpReturn {
		cache.prologueEnd = pc
		return pc
	}

	// Analyze from the beginning of the function until we get to the
	// current pc or the end of the function, whichever is first.
	stop := currentPC
	if funcEnd < stop {
		stop = funcEnd
	}

	t.archLog.Debugf("scanning prologue: funcAddr=%#x stop=%#x", funcAddr, stop)

	var addr uint64
	for addr = funcAddr; addr < stop; addr += microblazeInstrLen {
		insn = decodeInstruction(microblazeFetchInstruction(t, addr))
		t.archLog.Debugf("%#x %s", addr, insn)

		switch insn.classify(cache.fpRegnum) {
		case prologueOpStackAdjust:
			if cache.frameSize != 0 {
				// A second stack adjustment ends the prologue; the first
				// frame size wins.
				cache.prologueEnd = prologueEnd(prologueEndFound, prologueEndAddr, addr, saveHiddenPointerFound)
				return cache.prologueEnd
			}
			cache.frameSize = int64(-insn.imm) // stack grows towards low memory
			cache.frameless = false
			saveHiddenPointerFound = false
			nonStackInstructionFound = false
			continue
		case prologueOpSpillSP:
			// The stack pointer is spilled before it is updated, so the
			// offset is relative to the pre-decrement location.
			cache.registerOffsets[insn.rd] = regOffset{offset: int64(insn.imm), saved: true}
			saveHiddenPointerFound = false
			if cache.frameSize == 0 {
				nonStackInstructionFound = false
			}
			continue
		case prologueOpSpillReg:
			cache.registerOffsets[insn.rd] = regOffset{offset: int64(insn.imm) - cache.frameSize, saved: true}
			saveHiddenPointerFound = false
			if cache.frameSize == 0 {
				nonStackInstructionFound = false
			}
			continue
		case prologueOpSpillRegIndexed:
			cache.registerOffsets[insn.rd] = regOffset{offset: 0 - cache.frameSize, saved: true}
			saveHiddenPointerFound = false
			if cache.frameSize == 0 {
				nonStackInstructionFound = false
			}
			continue
		case prologueOpSpillRegFP:
			// Register spilled after the frame pointer was set up.
			cache.registerOffsets[insn.rd] = regOffset{offset: int64(insn.imm) - cache.frameSize, saved: true}
			saveHiddenPointerFound = false
			if cache.frameSize == 0 {
				nonStackInstructionFound = false
			}
			continue
		case prologueOpSetupFP:
			cache.fpRegnum = insn.rd
			t.archLog.Debugf("found a frame pointer: r%d", cache.fpRegnum)
			saveHiddenPointerFound = false
			if cache.frameSize == 0 {
				nonStackInstructionFound = false
			}
			continue
		case prologueOpSaveHiddenPtr:
			// The first argument is a hidden pointer to the area where the
			// returned aggregate will be stored; relocating it at function
			// entry counts as part of the prologue.
			saveHiddenPointerFound = true
			if cache.frameSize == 0 {
				nonStackInstructionFound = false
			}
			continue
		}

		// A non-stack instruction. Remember the first one as the tentative
		// end of the prologue: the compiler may still have scheduled later
		// prologue instructions after it.
		if !nonStackInstructionFound {
			prologueEndAddr = addr
			prologueEndFound = true
		}
		nonStackInstructionFound = true

		if !microblazeScanTerminalGroups[insn.group] || microblazeScanContinuableGroups[insn.group] {
			continue
		}

		// A genuine control transfer, the prologue cannot extend past it.
		t.archLog.Debugf("control transfer at %#x, ending scan", addr)
		break
	}

	cache.prologueEnd = prologueEnd(prologueEndFound, prologueEndAddr, addr, saveHiddenPointerFound)
	return cache.prologueEnd
}

// prologueEnd computes the externally reported end of prologue address:
// the first non-stack instruction when one was seen, the scan's final
// address otherwise, retracted by one instruction when the last recognized
// prologue instruction was a hidden pointer save (callers rely on the
// prologue end for first-statement placement and the hidden pointer save
// must not be counted).
func prologueEnd(tentativeFound bool, tentative, final uint64, saveHiddenPointerFound bool) uint64 {
	end := final
	if tentativeFound {
		end = tentative
	}
	if saveHiddenPointerFound {
		end -= microblazeInstrLen
	}
	return end
}

// microblazeFuncPrologue returns the memoized full-function prologue
// analysis for the function entered at entry.
func microblazeFuncPrologue(t *Target, entry uint64) *microblazeFrameCache {
	if v, ok := t.prologueCache.Get(entry); ok {
		return v.(*microblazeFrameCache)
	}
	cache := newMicroblazeFrameCache()
	microblazeAnalyzePrologue(t, entry, ^uint64(0), cache)
	cache.scanned = true
	t.prologueCache.Add(entry, cache)
	return cache
}

// microblazeFuncPrologueInfo converts the memoized full-function analysis
// for the function entered at entry into its externally visible form.
func microblazeFuncPrologueInfo(t *Target, entry uint64) PrologueInfo {
	cache := microblazeFuncPrologue(t, entry)
	info := PrologueInfo{
		FrameSize:      cache.frameSize,
		FPRegNum:       cache.fpRegnum,
		Frameless:      cache.frameless,
		PrologueEnd:    cache.prologueEnd,
		SavedRegisters: make(map[int]int64),
	}
	for rn := range cache.registerOffsets {
		if cache.registerOffsets[rn].saved {
			info.SavedRegisters[rn] = cache.registerOffsets[rn].offset
		}
	}
	return info
}

// microblazeSkipPrologue returns the address of the first instruction
// after the prologue of the function starting at startPC. Line table
// information is preferred when present, but the scanner's own analysis
// always runs as a cross-check and wins when it finds a later address:
// parameters are stored on the stack after the line boundary the debug
// info reports.
func microblazeSkipPrologue(t *Target, startPC uint64) uint64 {
	entry := startPC
	if fn := t.Syms.PCToFunction(startPC); fn != nil {
		entry = fn.Entry
		if lineEnd, ok := t.Syms.PCToLineEnd(fn.Entry); ok && lineEnd < fn.End && startPC <= lineEnd {
			startPC = lineEnd
		}
	}

	if ostartPC := microblazeFuncPrologue(t, entry).prologueEnd; ostartPC > startPC {
		return ostartPC
	}
	return startPC
}
