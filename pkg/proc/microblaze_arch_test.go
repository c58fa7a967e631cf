package proc

import (
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/mbdebug/mbdebug/pkg/tdesc"
)

func TestNewMicroblazeArchDefaults(t *testing.T) {
	a, err := NewMicroblazeArch(nil, nil)
	if err != nil {
		t.Fatalf("NewMicroblazeArch: %v", err)
	}
	if a.Name != "microblaze" {
		t.Errorf("got name %q", a.Name)
	}
	if a.ByteOrder != binary.BigEndian {
		t.Error("default byte order is not big-endian")
	}
	if a.PtrSize() != 4 || a.InstructionLength() != 4 {
		t.Errorf("got ptr size %d, instruction length %d, want 4 and 4", a.PtrSize(), a.InstructionLength())
	}
	if a.NumRegisters() != microblazeNumRegs {
		t.Errorf("got %d registers, want %d", a.NumRegisters(), microblazeNumRegs)
	}

	for rn, want := range map[int]string{1: "r1", 15: "r15", 32: "rpc", 33: "rmsr", 57: "rslr", 58: "rshr"} {
		if got := a.RegisterName(rn); got != want {
			t.Errorf("register %d: got name %q, want %q", rn, got, want)
		}
	}
	if a.RegisterType(microblazeSPRegNum) != RegisterTypeDataPointer {
		t.Error("stack pointer not typed as a data pointer")
	}
	if a.RegisterType(microblazePCRegNum) != RegisterTypeCodePointer {
		t.Error("program counter not typed as a code pointer")
	}
	if a.RegisterType(microblazeRetvalRegNum) != RegisterTypeInt {
		t.Error("r3 not typed as an integer")
	}
}

func TestArchDwarfMapping(t *testing.T) {
	a, err := NewMicroblazeArch(nil, nil)
	if err != nil {
		t.Fatalf("NewMicroblazeArch: %v", err)
	}

	for _, tc := range []struct {
		dwarf uint64
		rn    int
		ok    bool
	}{
		{0, 0, true},
		{1, 1, true},
		{31, 31, true},
		{32, -1, false}, // floating point slot
		{67, 33, true},  // rmsr
		{70, -1, false}, // condition code
		{78, -1, false}, // past the last assigned number
		{1000, -1, false},
	} {
		rn, ok := a.DwarfToRegnum(tc.dwarf)
		if rn != tc.rn || ok != tc.ok {
			t.Errorf("dwarf %d: got (%d, %v), want (%d, %v)", tc.dwarf, rn, ok, tc.rn, tc.ok)
		}
	}

	if name := a.DwarfRegisterName(67); name != "rmsr" {
		t.Errorf("dwarf 67: got name %q, want rmsr", name)
	}
}

// coreTdesc builds a target description advertising the given register
// names under the core feature.
func coreTdesc(t *testing.T, names []string) *tdesc.Description {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(`<target><architecture>microblaze</architecture>`)
	sb.WriteString(`<feature name="org.gnu.gdb.microblaze.core">`)
	for _, name := range names {
		fmt.Fprintf(&sb, `<reg name=%q bitsize="32"/>`, name)
	}
	sb.WriteString(`</feature></target>`)
	desc, err := tdesc.Parse([]byte(sb.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return desc
}

func TestNewMicroblazeArchTargetDescription(t *testing.T) {
	desc := coreTdesc(t, microblazeRegisterNames[:microblazeNumCoreRegs])
	if _, err := NewMicroblazeArch(desc, nil); err != nil {
		t.Errorf("complete core feature rejected: %v", err)
	}

	// A description with registers but without the core feature, or with
	// a core register missing, is rejected.
	var sb strings.Builder
	sb.WriteString(`<target><feature name="org.example.other"><reg name="x0" bitsize="32"/></feature></target>`)
	other, err := tdesc.Parse([]byte(sb.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := NewMicroblazeArch(other, nil); err == nil {
		t.Error("description without the core feature accepted")
	}

	incomplete := coreTdesc(t, microblazeRegisterNames[:microblazeNumCoreRegs-1])
	if _, err := NewMicroblazeArch(incomplete, nil); err == nil {
		t.Error("description missing a core register accepted")
	}

	// A description with no registers at all places no constraint.
	empty, err := tdesc.Parse([]byte(`<target><architecture>microblaze</architecture></target>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := NewMicroblazeArch(empty, nil); err != nil {
		t.Errorf("description without registers rejected: %v", err)
	}
}

func TestMicroblazeRegistersBounds(t *testing.T) {
	regs := &MicroblazeRegisters{}
	if _, err := regs.Get(microblazeNumRegs); err != ErrUnknownRegister {
		t.Errorf("Get out of range: got %v, want ErrUnknownRegister", err)
	}
	if _, err := regs.Get(-1); err != ErrUnknownRegister {
		t.Errorf("Get(-1): got %v, want ErrUnknownRegister", err)
	}
	if err := regs.SetReg(microblazeNumRegs, 1); err != ErrUnknownRegister {
		t.Errorf("SetReg out of range: got %v, want ErrUnknownRegister", err)
	}

	regs.Regs[3] = 42
	c := regs.Copy()
	if err := c.(RegisterWriter).SetReg(3, 7); err != nil {
		t.Fatalf("SetReg on copy: %v", err)
	}
	if regs.Regs[3] != 42 {
		t.Error("writing a copy changed the original register file")
	}
}
