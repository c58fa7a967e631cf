package proc

import (
	"fmt"
)

// MicroBlaze instructions are one 32-bit word: a 6-bit primary opcode
// followed by three 5-bit register fields (rd, ra, rb) or, for type B
// instructions, rd, ra and a 16-bit signed immediate.

const microblazeInstrLen = 4

// mbOp identifies the decoded opcodes the prologue scanner cares about.
// Everything else decodes to mbOpUnknown with the operand fields still
// populated.
type mbOp uint8

const (
	mbOpUnknown mbOp = iota
	mbOpAdd
	mbOpAddk
	mbOpAddi
	mbOpAddik
	mbOpSw
	mbOpSwi
	mbOpRtsd
	mbOpRtid
	mbOpImm
)

// Primary opcode groups (bits 31:26 of the instruction word).
const (
	mbGroupAdd   = 0x00
	mbGroupAddk  = 0x04
	mbGroupAddi  = 0x08
	mbGroupAddik = 0x0c
	mbGroupBr    = 0x26 // unconditional branch, register offset
	mbGroupBcc   = 0x27 // conditional branch, register offset
	mbGroupImm   = 0x2c // immediate prefix
	mbGroupRet   = 0x2d // rtsd, rtid, rtbd, rted
	mbGroupBri   = 0x2e // unconditional branch, immediate offset
	mbGroupBcci  = 0x2f // conditional branch, immediate offset
	mbGroupSw    = 0x36
	mbGroupSwi   = 0x3e
)

// rd field values distinguishing the return forms within group 0x2d.
const (
	mbRetRtsd = 0x10
	mbRetRtid = 0x11
)

// instruction is one decoded machine word. It has no identity beyond its
// fields and is recomputed on every fetch.
type instruction struct {
	word  uint32
	group uint8
	op    mbOp
	rd    int
	ra    int
	rb    int
	imm   int32
}

// decodeInstruction decodes one instruction word. It is total: an
// unrecognized bit pattern yields mbOpUnknown with the operand fields
// populated best-effort.
func decodeInstruction(word uint32) instruction {
	insn := instruction{
		word:  word,
		group: uint8(word >> 26),
		rd:    int(word >> 21 & 0x1f),
		ra:    int(word >> 16 & 0x1f),
		rb:    int(word >> 11 & 0x1f),
		imm:   int32(int16(word & 0xffff)),
	}
	switch insn.group {
	case mbGroupAdd:
		insn.op = mbOpAdd
	case mbGroupAddk:
		insn.op = mbOpAddk
	case mbGroupAddi:
		insn.op = mbOpAddi
	case mbGroupAddik:
		insn.op = mbOpAddik
	case mbGroupSw:
		insn.op = mbOpSw
	case mbGroupSwi:
		insn.op = mbOpSwi
	case mbGroupImm:
		insn.op = mbOpImm
	case mbGroupRet:
		switch insn.rd {
		case mbRetRtsd:
			insn.op = mbOpRtsd
		case mbRetRtid:
			insn.op = mbOpRtid
		}
	}
	return insn
}

// prologueOp is the classification of one instruction with respect to the
// recognized prologue forms.
type prologueOp uint8

const (
	prologueOpOther prologueOp = iota
	prologueOpReturn
	prologueOpStackAdjust
	prologueOpSpillSP
	prologueOpSpillReg
	prologueOpSpillRegIndexed
	prologueOpSetupFP
	prologueOpSpillRegFP
	prologueOpSaveHiddenPtr
)

// classify matches insn against the recognized prologue instruction forms.
// fpRegnum is the frame pointer register discovered so far during the scan
// (the stack pointer until a frame pointer setup is seen).
func (insn instruction) classify(fpRegnum int) prologueOp {
	isStore := insn.op == mbOpSw || insn.op == mbOpSwi
	switch {
	case insn.op == mbOpRtsd || insn.op == mbOpRtid:
		return prologueOpReturn
	case (insn.op == mbOpAddik || insn.op == mbOpAddi) && insn.rd == microblazeSPRegNum && insn.ra == microblazeSPRegNum:
		return prologueOpStackAdjust
	case isStore && insn.rd == microblazeSPRegNum && insn.ra == microblazeSPRegNum:
		return prologueOpSpillSP
	case isStore && insn.rd != microblazeSPRegNum && insn.ra == microblazeSPRegNum:
		return prologueOpSpillReg
	case isStore && insn.rd != microblazeSPRegNum && insn.ra == 0 && insn.rb == microblazeSPRegNum:
		return prologueOpSpillRegIndexed
	case (insn.op == mbOpAdd || insn.op == mbOpAddik || insn.op == mbOpAddk) && insn.ra == microblazeSPRegNum && insn.rb == 0:
		return prologueOpSetupFP
	case isStore && insn.rd != microblazeSPRegNum && insn.ra == fpRegnum && insn.ra != 0:
		return prologueOpSpillRegFP
	case (insn.op == mbOpAdd || insn.op == mbOpAddik) && insn.ra == microblazeFirstArgRegNum && insn.rb == 0:
		return prologueOpSaveHiddenPtr
	}
	return prologueOpOther
}

// String returns an assembly rendering of the instructions the scanner
// recognizes, and the raw word for everything else. Used only for tracing.
func (insn instruction) String() string {
	switch insn.op {
	case mbOpAdd:
		return fmt.Sprintf("add r%d, r%d, r%d", insn.rd, insn.ra, insn.rb)
	case mbOpAddk:
		return fmt.Sprintf("addk r%d, r%d, r%d", insn.rd, insn.ra, insn.rb)
	case mbOpAddi:
		return fmt.Sprintf("addi r%d, r%d, %d", insn.rd, insn.ra, insn.imm)
	case mbOpAddik:
		return fmt.Sprintf("addik r%d, r%d, %d", insn.rd, insn.ra, insn.imm)
	case mbOpSw:
		return fmt.Sprintf("sw r%d, r%d, r%d", insn.rd, insn.ra, insn.rb)
	case mbOpSwi:
		return fmt.Sprintf("swi r%d, r%d, %d", insn.rd, insn.ra, insn.imm)
	case mbOpRtsd:
		return fmt.Sprintf("rtsd r%d, %d", insn.ra, insn.imm)
	case mbOpRtid:
		return fmt.Sprintf("rtid r%d, %d", insn.ra, insn.imm)
	case mbOpImm:
		return fmt.Sprintf("imm %d", insn.imm)
	}
	return fmt.Sprintf("insn %#08x (group %#02x)", insn.word, insn.group)
}
