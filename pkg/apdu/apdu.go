package apdu

import (
	"bytes"
	"fmt"
)

// COMMAND APDU (C-APDU):
// A command consists of a mandatory Header (4 bytes) and an optional Body.
//
//   - CLA: class byte. 0x00 for a UICC in 3G mode, 0xA0 for a legacy
//     GSM SIM. Bits 1-2 select the logical channel.
//   - INS: instruction (see instruction.go).
//   - P1, P2: command modifiers.
//   - Lc + Data: command payload, Le: expected response length.
//
// SIM communication runs over T=0 with short length fields only (Lc and Le
// on one byte each, Le=0x00 encoding 256). Extended length is not used on
// the UICC interface, so this encoder rejects oversized bodies instead of
// switching modes.
//
// RESPONSE APDU (R-APDU):
// Optional data field followed by the mandatory SW1/SW2 trailer.

// Class bytes for the two SIM generations.
const (
	ClaUICC   byte = 0x00
	ClaGSMSIM byte = 0xA0
)

// MaxShortLc is the maximum data length encodable in a short Lc byte.
const MaxShortLc = 255

// MaxShortLe is the maximum expected response length in short mode;
// 0x00 encodes 256.
const MaxShortLe = 256

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Cla         byte
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a basic command.
func NewCommandAPDU(cla byte, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Cla:         cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the CommandAPDU into its short-length byte representation.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	if nc > MaxShortLc {
		return nil, fmt.Errorf("data field too long for short Lc: %d bytes", nc)
	}
	if c.Ne > MaxShortLe {
		return nil, fmt.Errorf("expected length too large for short Le: %d", c.Ne)
	}

	buf := new(bytes.Buffer)
	buf.WriteByte(c.Cla)
	buf.WriteByte(byte(c.Instruction.Raw))
	buf.WriteByte(c.P1)
	buf.WriteByte(c.P2)

	if nc > 0 {
		buf.WriteByte(byte(nc))
		buf.Write(c.Data)
	}

	if c.Ne > 0 {
		if c.Ne == MaxShortLe {
			buf.WriteByte(0x00) // 0x00 represents 256
		} else {
			buf.WriteByte(byte(c.Ne))
		}
	}

	return buf.Bytes(), nil
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Raw.String(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU parses raw bytes received from the card.
// The input must contain at least the 2-byte trailer.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	indexSW1 := len(raw) - 2
	return &ResponseAPDU{
		Data:   raw[:indexSW1],
		Status: NewStatusWord(raw[indexSW1], raw[indexSW1+1]),
	}, nil
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs). A single
// logical operation may span several physical transactions when the card
// answers 61XX (GET RESPONSE needed) or 6CXX (retry with corrected Le).
type Trace []Transaction

// Last returns the final transaction of the trace, or nil if empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful,
// regardless of intermediate 61XX/6CXX steps.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}
