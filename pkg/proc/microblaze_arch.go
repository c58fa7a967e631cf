package proc

import (
	"encoding/binary"
	"fmt"

	"github.com/mbdebug/mbdebug/pkg/dwarf/regnum"
	"github.com/mbdebug/mbdebug/pkg/tdesc"
)

// The registers of the Xilinx MicroBlaze processor.
var microblazeRegisterNames = []string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	"r16", "r17", "r18", "r19", "r20", "r21", "r22", "r23",
	"r24", "r25", "r26", "r27", "r28", "r29", "r30", "r31",
	"rpc", "rmsr", "rear", "resr", "rfsr", "rbtr",
	"rpvr0", "rpvr1", "rpvr2", "rpvr3", "rpvr4", "rpvr5", "rpvr6",
	"rpvr7", "rpvr8", "rpvr9", "rpvr10", "rpvr11",
	"redr", "rpid", "rzpr", "rtlbx", "rtlbsx", "rtlblo", "rtlbhi",
	"rslr", "rshr",
}

const (
	microblazeSPRegNum       = 1
	microblazeRetvalRegNum   = 3
	microblazeFirstArgRegNum = 5
	microblazeLRRegNum       = 15
	microblazePCRegNum       = 32
	microblazeSLRRegNum      = 57
	microblazeSHRRegNum      = 58

	// Core registers are r0-r31 plus rpc through rtlbhi; rslr and rshr are
	// only present on stack protected configurations.
	microblazeNumCoreRegs = 57
	microblazeNumRegs     = 59

	microblazeRegisterSize = 4
)

// Target description feature names advertised by MicroBlaze stubs.
const (
	microblazeCoreFeature         = "org.gnu.gdb.microblaze.core"
	microblazeStackProtectFeature = "org.gnu.gdb.microblaze.stack-protect"
)

// Return addresses recorded by the compiler point 8 bytes before the
// actual resume address, so every unwound return address must be adjusted.
const microblazeRetAddrAdjustment = 8

// NewMicroblazeArch returns an architecture descriptor for MicroBlaze.
// A nil desc accepts the default register layout; a description with
// registers is validated and rejected if the core feature is missing or
// incomplete. order may be nil, defaulting to big-endian.
func NewMicroblazeArch(desc *tdesc.Description, order binary.ByteOrder) (*Arch, error) {
	if desc != nil && desc.HasRegisters() {
		feature := desc.Feature(microblazeCoreFeature)
		if feature == nil {
			return nil, fmt.Errorf("invalid target description: feature %s not found", microblazeCoreFeature)
		}
		for i := 0; i < microblazeNumCoreRegs; i++ {
			if feature.Register(microblazeRegisterNames[i]) == nil {
				return nil, fmt.Errorf("invalid target description: register %s not found", microblazeRegisterNames[i])
			}
		}
		if feature = desc.Feature(microblazeStackProtectFeature); feature != nil {
			for _, name := range []string{"rslr", "rshr"} {
				if feature.Register(name) == nil {
					return nil, fmt.Errorf("invalid target description: register %s not found", name)
				}
			}
		}
	}
	if order == nil {
		order = binary.BigEndian
	}

	a := &Arch{
		Name:                "microblaze",
		ByteOrder:           order,
		ptrSize:             4,
		instrLen:            microblazeInstrLen,
		numRegs:             microblazeNumRegs,
		SPRegNum:            microblazeSPRegNum,
		PCRegNum:            microblazePCRegNum,
		LRRegNum:            microblazeLRRegNum,
		registerNames:       microblazeRegisterNames,
		registerType:        microblazeRegisterType,
		dwarfToRegnum:       regnum.MicroblazeToRegnum,
		regnumToString:      regnum.MicroblazeToName,
		extractReturnValue:  microblazeExtractReturnValue,
		storeReturnValue:    microblazeStoreReturnValue,
		argumentByReference: microblazeArgumentByReference,
		frameBase:           microblazeFrameBase,
		unwindRet:           microblazeUnwindRet,
		skipPrologue:        microblazeSkipPrologue,
		funcPrologue:        microblazeFuncPrologueInfo,
	}
	a.unwinders = []*frameUnwinder{
		{
			name:         "microblaze prologue",
			frameID:      microblazeFrameID,
			prevRegister: microblazeFramePrevRegister,
		},
	}
	return a, nil
}

func microblazeRegisterType(rn int) RegisterType {
	switch rn {
	case microblazeSPRegNum:
		return RegisterTypeDataPointer
	case microblazePCRegNum:
		return RegisterTypeCodePointer
	}
	return RegisterTypeInt
}

// MicroblazeRegisters is a full MicroBlaze register file held in memory,
// used for synthetic targets and post-mortem register snapshots.
type MicroblazeRegisters struct {
	Regs [microblazeNumRegs]uint64
}

func (r *MicroblazeRegisters) PC() uint64 {
	return r.Regs[microblazePCRegNum]
}

func (r *MicroblazeRegisters) SP() uint64 {
	return r.Regs[microblazeSPRegNum]
}

func (r *MicroblazeRegisters) Get(regnum int) (uint64, error) {
	if regnum < 0 || regnum >= microblazeNumRegs {
		return 0, ErrUnknownRegister
	}
	return r.Regs[regnum], nil
}

func (r *MicroblazeRegisters) SetReg(regnum int, value uint64) error {
	if regnum < 0 || regnum >= microblazeNumRegs {
		return ErrUnknownRegister
	}
	r.Regs[regnum] = value
	return nil
}

func (r *MicroblazeRegisters) Copy() Registers {
	c := *r
	return &c
}
