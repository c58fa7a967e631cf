package proc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestReturnValueRoundTrip(t *testing.T) {
	order := binary.BigEndian
	for _, value := range [][]byte{
		{0xab},
		{0x12, 0x34},
		{0x01, 0x02, 0x03, 0x04},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
	} {
		regs := &MicroblazeRegisters{}
		if err := microblazeStoreReturnValue(regs, value, order); err != nil {
			t.Fatalf("store %d bytes: %v", len(value), err)
		}
		got, err := microblazeExtractReturnValue(regs, len(value), order)
		if err != nil {
			t.Fatalf("extract %d bytes: %v", len(value), err)
		}
		if !bytes.Equal(got, value) {
			t.Errorf("%d bytes: got %x back, want %x", len(value), got, value)
		}
	}
}

func TestExtractReturnValueRightJustified(t *testing.T) {
	// Small values occupy the low order bytes of r3.
	regs := &MicroblazeRegisters{}
	regs.Regs[microblazeRetvalRegNum] = 0xdeadbeef

	got, err := microblazeExtractReturnValue(regs, 1, binary.BigEndian)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !bytes.Equal(got, []byte{0xef}) {
		t.Errorf("got %x, want ef", got)
	}

	got, err = microblazeExtractReturnValue(regs, 2, binary.BigEndian)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !bytes.Equal(got, []byte{0xbe, 0xef}) {
		t.Errorf("got %x, want beef", got)
	}
}

func TestExtractReturnValueEightBytes(t *testing.T) {
	// r3 holds the most significant word, r4 the least significant.
	regs := &MicroblazeRegisters{}
	regs.Regs[microblazeRetvalRegNum] = 0x01020304
	regs.Regs[microblazeRetvalRegNum+1] = 0x05060708

	got, err := microblazeExtractReturnValue(regs, 8, binary.BigEndian)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("got %x, want 0102030405060708", got)
	}
}

func TestStoreReturnValueZeroFills(t *testing.T) {
	regs := &MicroblazeRegisters{}
	regs.Regs[microblazeRetvalRegNum] = 0xffffffff
	if err := microblazeStoreReturnValue(regs, []byte{0x12, 0x34}, binary.BigEndian); err != nil {
		t.Fatalf("store: %v", err)
	}
	if regs.Regs[microblazeRetvalRegNum] != 0x1234 {
		t.Errorf("got r3 = %#x, want 0x1234", regs.Regs[microblazeRetvalRegNum])
	}
}

func TestUnsupportedReturnSizes(t *testing.T) {
	regs := &MicroblazeRegisters{}

	for _, size := range []int{0, 3, 5, 16} {
		_, err := microblazeExtractReturnValue(regs, size, binary.BigEndian)
		var sizeErr *UnsupportedReturnSizeError
		if !errors.As(err, &sizeErr) {
			t.Errorf("extract size %d: got %v, want UnsupportedReturnSizeError", size, err)
		} else if sizeErr.Size != size {
			t.Errorf("extract size %d: error reports size %d", size, sizeErr.Size)
		}
	}

	err := microblazeStoreReturnValue(regs, make([]byte, 5), binary.BigEndian)
	var sizeErr *UnsupportedReturnSizeError
	if !errors.As(err, &sizeErr) {
		t.Errorf("store 5 bytes: got %v, want UnsupportedReturnSizeError", err)
	}
}

func TestArgumentByReference(t *testing.T) {
	for size, want := range map[int]bool{1: false, 4: false, 8: false, 16: true} {
		if got := microblazeArgumentByReference(size); got != want {
			t.Errorf("size %d: got %v, want %v", size, got, want)
		}
	}
}
