package apdu

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/bits"
)

// Instruction Byte (INS) Logic:
//
// The INS byte identifies the command to be performed by the card. This
// package carries the subset relevant to UICC operation and the SIM
// Application Toolkit (ETSI TS 102 221 §10.1 and TS 102 223 §6):
//
//   - File access: SELECT, READ BINARY, READ RECORD, UPDATE BINARY, STATUS.
//   - Transport: GET RESPONSE, MANAGE CHANNEL.
//   - Toolkit: TERMINAL PROFILE, FETCH, TERMINAL RESPONSE, ENVELOPE.
//
// INS values where the upper nibble is '6' or '9' are invalid; those ranges
// are reserved for status words and transport control (ISO/IEC 7816-3).

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Instruction (INS) codes used on a UICC.
const (
	INS_SELECT            InsCode = 0xA4
	INS_STATUS            InsCode = 0xF2
	INS_READ_BINARY       InsCode = 0xB0
	INS_UPDATE_BINARY     InsCode = 0xD6
	INS_READ_RECORD       InsCode = 0xB2
	INS_UPDATE_RECORD     InsCode = 0xDC
	INS_GET_RESPONSE      InsCode = 0xC0
	INS_MANAGE_CHANNEL    InsCode = 0x70
	INS_TERMINAL_PROFILE  InsCode = 0x10
	INS_FETCH             InsCode = 0x12
	INS_TERMINAL_RESPONSE InsCode = 0x14
	INS_ENVELOPE          InsCode = 0xC2
)

// String returns the command name for the known UICC instruction set.
func (i InsCode) String() string {
	switch i {
	case INS_SELECT:
		return "SELECT"
	case INS_STATUS:
		return "STATUS"
	case INS_READ_BINARY:
		return "READ BINARY"
	case INS_UPDATE_BINARY:
		return "UPDATE BINARY"
	case INS_READ_RECORD:
		return "READ RECORD"
	case INS_UPDATE_RECORD:
		return "UPDATE RECORD"
	case INS_GET_RESPONSE:
		return "GET RESPONSE"
	case INS_MANAGE_CHANNEL:
		return "MANAGE CHANNEL"
	case INS_TERMINAL_PROFILE:
		return "TERMINAL PROFILE"
	case INS_FETCH:
		return "FETCH"
	case INS_TERMINAL_RESPONSE:
		return "TERMINAL RESPONSE"
	case INS_ENVELOPE:
		return "ENVELOPE"
	default:
		return fmt.Sprintf("INS 0x%02X", byte(i))
	}
}

// Instruction represents a validated instruction byte.
type Instruction struct {
	Raw InsCode
}

// NewInstruction creates an Instruction with validation. It rejects '6X'
// and '9X' values as they are reserved according to ISO 7816-3.
func NewInstruction(ins InsCode) (Instruction, error) {
	highNibble := bits.HighNibble(byte(ins))
	if highNibble == 0x06 || highNibble == 0x09 {
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}

	return Instruction{Raw: ins}, nil
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	return fmt.Sprintf("INS: 0x%02X | Command: %s", byte(i.Raw), i.Raw.String())
}
