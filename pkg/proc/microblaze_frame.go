package proc

// regOffset is the location of one saved register: the offset of its save
// slot relative to the frame base, or absent when the register was not
// spilled by the prologue.
type regOffset struct {
	offset int64
	saved  bool
}

// microblazeFrameCache is the memoized result of analyzing one call
// frame's prologue. It is created lazily on the first query for a frame,
// owned by that frame's cache slot, and never mutated after the scan
// completes.
type microblazeFrameCache struct {
	// base is the address of the beginning of the frame, 0 until known.
	// A zero base marks the synthetic outermost frame: no caller exists
	// above it and unwinding stops there.
	base uint64
	// pc is the frame's address in block.
	pc uint64

	frameSize   int64
	fpRegnum    int
	frameless   bool
	prologueEnd uint64

	registerOffsets [microblazeNumRegs]regOffset
	scanned         bool
}

func newMicroblazeFrameCache() *microblazeFrameCache {
	cache := &microblazeFrameCache{
		fpRegnum:  microblazeSPRegNum,
		frameless: true,
	}
	return cache
}

// microblazeFrameCacheFor returns fr's frame cache, allocating it on first
// use. Re-entry returns the already built cache unchanged.
func microblazeFrameCacheFor(fr *Frame) *microblazeFrameCache {
	if fr.cache != nil {
		return fr.cache.(*microblazeFrameCache)
	}

	cache := newMicroblazeFrameCache()
	fr.cache = cache

	// Evaluate the enclosing function for its side effects on the symbol
	// table before recording the frame's position.
	fr.t.Syms.PCToFunction(fr.pc)
	cache.pc = fr.pc

	return cache
}

// scan runs the prologue analysis for fr once. The frame base is derived
// from the unwound stack pointer: the frame begins where the stack pointer
// pointed on function entry, which is frameSize bytes above the current
// stack pointer (or the stack pointer itself for frameless functions). A
// frame with no stack pointer keeps a zero base and acts as the outermost
// sentinel.
func (cache *microblazeFrameCache) scan(fr *Frame) {
	if cache.scanned {
		return
	}
	cache.scanned = true

	microblazeAnalyzePrologue(fr.t, fr.pc, fr.pc, cache)

	if sp := fr.regs.SP(); sp != 0 && fr.pc != 0 {
		cache.base = sp + uint64(cache.frameSize)
	}
}

// microblazeFrameID builds the identity of fr from its base address and
// position. A zero base marks the outermost frame and yields no identity.
func microblazeFrameID(fr *Frame) (FrameID, bool) {
	cache := microblazeFrameCacheFor(fr)
	cache.scan(fr)

	if cache.base == 0 {
		return FrameID{}, false
	}
	return FrameID{Stack: cache.base, Code: cache.pc}, true
}

// microblazeFramePrevRegister returns the value regnum had in fr's caller.
// A register the prologue spilled is read back from its save slot;
// anything else is unchanged from fr's own register file. For frameless
// functions the logical program counter and stack pointer are redirected
// to the physical return address and stack pointer registers, since no
// frame was established to save them.
func microblazeFramePrevRegister(fr *Frame, regnum int) (uint64, error) {
	cache := microblazeFrameCacheFor(fr)
	cache.scan(fr)

	if cache.frameless {
		// The logical program counter unwinds to the physical return
		// address register; the logical and physical stack pointer already
		// share a number.
		if regnum == microblazePCRegNum {
			regnum = microblazeLRRegNum
		}
	}

	if regnum >= 0 && regnum < microblazeNumRegs && cache.registerOffsets[regnum].saved && cache.base != 0 {
		addr := cache.base + uint64(cache.registerOffsets[regnum].offset)
		return readUintRaw(fr.t.Mem, addr, microblazeRegisterSize, fr.t.Arch.ByteOrder)
	}
	return fr.regs.Get(regnum)
}

// microblazeFrameBase returns the address of the beginning of fr's frame,
// used alike for locals, arguments and frame identity.
func microblazeFrameBase(fr *Frame) uint64 {
	cache := microblazeFrameCacheFor(fr)
	cache.scan(fr)
	return cache.base
}

// microblazeUnwindRet recovers the address fr's caller will resume at. The
// return address lives in r15, possibly spilled to the frame; the
// recorded value points one instruction pair before the resume address,
// compensated for by the caller except on the innermost frame.
func microblazeUnwindRet(fr *Frame) (uint64, error) {
	return fr.PrevRegister(microblazeLRRegNum)
}
