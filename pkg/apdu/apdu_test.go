package apdu

import (
	"bytes"
	"testing"
)

func TestCommandAPDU_Bytes(t *testing.T) {
	selIns, _ := NewInstruction(INS_SELECT)
	readIns, _ := NewInstruction(INS_READ_BINARY)

	tests := []struct {
		name     string
		cmd      *CommandAPDU
		expected []byte
	}{
		{
			name:     "Case 1 header only",
			cmd:      NewCommandAPDU(ClaUICC, selIns, 0x00, 0x0C, nil, 0),
			expected: []byte{0x00, 0xA4, 0x00, 0x0C},
		},
		{
			name:     "Case 2 with Le",
			cmd:      NewCommandAPDU(ClaUICC, readIns, 0x00, 0x00, nil, 10),
			expected: []byte{0x00, 0xB0, 0x00, 0x00, 0x0A},
		},
		{
			name:     "Case 2 Le 256 encodes as 00",
			cmd:      NewCommandAPDU(ClaUICC, readIns, 0x00, 0x00, nil, 256),
			expected: []byte{0x00, 0xB0, 0x00, 0x00, 0x00},
		},
		{
			name:     "Case 3 with data",
			cmd:      NewCommandAPDU(ClaUICC, selIns, 0x00, 0x0C, []byte{0x2F, 0xE2}, 0),
			expected: []byte{0x00, 0xA4, 0x00, 0x0C, 0x02, 0x2F, 0xE2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Bytes() failed: %v", err)
			}
			if !bytes.Equal(raw, tt.expected) {
				t.Errorf("Bytes() = % X; want % X", raw, tt.expected)
			}
		})
	}
}

func TestCommandAPDU_BytesRejectsOversize(t *testing.T) {
	ins, _ := NewInstruction(INS_UPDATE_BINARY)
	cmd := NewCommandAPDU(ClaUICC, ins, 0, 0, make([]byte, 300), 0)
	if _, err := cmd.Bytes(); err == nil {
		t.Error("expected error for data exceeding short Lc")
	}
}

func TestNewInstruction_RejectsReserved(t *testing.T) {
	for _, ins := range []InsCode{0x60, 0x6F, 0x90, 0x97} {
		if _, err := NewInstruction(ins); err == nil {
			t.Errorf("INS 0x%02X should be rejected", byte(ins))
		}
	}
	if _, err := NewInstruction(INS_FETCH); err != nil {
		t.Errorf("FETCH should be valid: %v", err)
	}
}

func TestParseResponseAPDU(t *testing.T) {
	resp, err := ParseResponseAPDU([]byte{0x01, 0x02, 0x90, 0x00})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(resp.Data) != 2 || resp.Status != SW_NO_ERROR {
		t.Errorf("unexpected parse result: %v", resp)
	}

	if _, err := ParseResponseAPDU([]byte{0x90}); err == nil {
		t.Error("expected error for truncated response")
	}
}

func TestTrace_IsSuccess(t *testing.T) {
	var empty Trace
	if empty.IsSuccess() {
		t.Error("empty trace should not be successful")
	}

	tr := Trace{
		{Response: &ResponseAPDU{Status: NewStatusWord(0x61, 0x0A)}},
		{Response: &ResponseAPDU{Status: SW_NO_ERROR}},
	}
	if !tr.IsSuccess() {
		t.Error("trace ending in 9000 should be successful")
	}

	tr = append(tr, Transaction{Response: &ResponseAPDU{Status: SW_ERR_FILE_NOT_FOUND}})
	if tr.IsSuccess() {
		t.Error("trace ending in 6A82 should not be successful")
	}
}
