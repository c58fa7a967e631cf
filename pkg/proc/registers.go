package proc

import (
	"errors"
)

// Registers is an interface for a generic register set. The interface
// encapsulates the values the unwinder needs independent of how the
// register file was obtained.
type Registers interface {
	PC() uint64
	SP() uint64
	Get(regnum int) (uint64, error)
	// Copy returns a copy of the registers that is guaranteed not to change
	// when the registers of the associated thread change.
	Copy() Registers
}

// RegisterWriter is implemented by register sets that can be modified,
// used when depositing synthetic return values.
type RegisterWriter interface {
	SetReg(regnum int, value uint64) error
}

// ErrUnknownRegister is returned when a register number is out of range
// for the architecture.
var ErrUnknownRegister = errors.New("unknown register")

// RegisterType describes how the value held in a register should be
// interpreted.
type RegisterType uint8

const (
	// RegisterTypeInt is a plain integer register.
	RegisterTypeInt RegisterType = iota
	// RegisterTypeDataPointer is a register holding a data address.
	RegisterTypeDataPointer
	// RegisterTypeCodePointer is a register holding a code address.
	RegisterTypeCodePointer
)
