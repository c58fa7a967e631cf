package proc

import (
	"encoding/binary"
	"fmt"
)

// Return values up to four bytes are in r3, right justified within the
// register. Eight byte values are in r3 (most significant word) and r4
// (least significant word). Aggregates are returned through a hidden
// pointer passed by the caller, never through registers.

// UnsupportedReturnSizeError reports a request for a return value of a
// byte size the calling convention cannot produce from registers. It marks
// an internal inconsistency between caller and convention and must abort
// the operation rather than truncate.
type UnsupportedReturnSizeError struct {
	Size int
}

func (err *UnsupportedReturnSizeError) Error() string {
	return fmt.Sprintf("unsupported return value size %d requested", err.Size)
}

// microblazeExtractReturnValue reads a function return value of the given
// byte size from the return registers.
func microblazeExtractReturnValue(regs Registers, size int, order binary.ByteOrder) ([]byte, error) {
	r3, err := regs.Get(microblazeRetvalRegNum)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 2*microblazeRegisterSize)
	order.PutUint32(buf, uint32(r3))

	switch size {
	case 1, 2:
		// Right justified: only the low order bytes of the register hold
		// the value.
		return buf[microblazeRegisterSize-size : microblazeRegisterSize], nil
	case 4:
		return buf[:4], nil
	case 8:
		r4, err := regs.Get(microblazeRetvalRegNum + 1)
		if err != nil {
			return nil, err
		}
		order.PutUint32(buf[microblazeRegisterSize:], uint32(r4))
		return buf, nil
	}
	return nil, &UnsupportedReturnSizeError{Size: size}
}

// microblazeStoreReturnValue deposits a synthetic return value into the
// return registers, mirroring microblazeExtractReturnValue. Values larger
// than four bytes must be exactly eight; smaller values are right
// justified in a zero filled register slot.
func microblazeStoreReturnValue(regs RegisterWriter, value []byte, order binary.ByteOrder) error {
	buf := make([]byte, 2*microblazeRegisterSize)

	if len(value) > microblazeRegisterSize {
		if len(value) != 2*microblazeRegisterSize {
			return &UnsupportedReturnSizeError{Size: len(value)}
		}
		copy(buf, value)
		if err := regs.SetReg(microblazeRetvalRegNum+1, uint64(order.Uint32(buf[microblazeRegisterSize:]))); err != nil {
			return err
		}
	} else {
		copy(buf[microblazeRegisterSize-len(value):], value)
	}

	return regs.SetReg(microblazeRetvalRegNum, uint64(order.Uint32(buf[:microblazeRegisterSize])))
}

// microblazeArgumentByReference reports whether an argument of the given
// byte size is passed as a hidden pointer.
func microblazeArgumentByReference(size int) bool {
	return size == 16
}
