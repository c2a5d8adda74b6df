package apdu

import (
	"strings"
	"testing"
)

func TestStatusWord_Classification(t *testing.T) {
	tests := []struct {
		sw        StatusWord
		isSuccess bool
		isWarning bool
		isError   bool
	}{
		{SW_NO_ERROR, true, false, false},
		{NewStatusWord(0x91, 0x1C), true, false, false}, // Proactive pending
		{NewStatusWord(0x61, 0x10), true, false, false}, // Bytes available
		{SW_WARN_EOF_REACHED, false, true, false},
		{NewStatusWord(0x63, 0xC2), false, true, false}, // Counter
		{SW_ERR_WRONG_LENGTH, false, false, true},
		{SW_ERR_FILE_NOT_FOUND, false, false, true},
		{SW_TOOLKIT_BUSY, false, false, false},
	}

	for _, tt := range tests {
		if got := tt.sw.IsSuccess(); got != tt.isSuccess {
			t.Errorf("SW %04X IsSuccess = %v, want %v", uint16(tt.sw), got, tt.isSuccess)
		}
		if got := tt.sw.IsWarning(); got != tt.isWarning {
			t.Errorf("SW %04X IsWarning = %v, want %v", uint16(tt.sw), got, tt.isWarning)
		}
		if got := tt.sw.IsError(); got != tt.isError {
			t.Errorf("SW %04X IsError = %v, want %v", uint16(tt.sw), got, tt.isError)
		}
	}
}

func TestStatusWord_ProactivePending(t *testing.T) {
	if !NewStatusWord(0x91, 0x33).IsProactivePending() {
		t.Error("9133 should report a pending proactive command")
	}
	if NewStatusWord(0x90, 0x00).IsProactivePending() {
		t.Error("9000 should NOT report a pending proactive command")
	}
}

func TestStatusWord_Verbose(t *testing.T) {
	tests := []struct {
		sw       StatusWord
		contains string
	}{
		{NewStatusWord(0x91, 0x1C), "proactive command pending (28 bytes)"},
		{NewStatusWord(0x61, 0x20), "32 bytes available"},
		{NewStatusWord(0x6C, 0x05), "correct Le is 5"},
		{NewStatusWord(0x63, 0xC3), "3 attempts left"},
		{SW_ERR_FILE_NOT_FOUND, "File not found"},
		{SW_TOOLKIT_BUSY, "Toolkit is busy"},
		{NewStatusWord(0x6A, 0x99), "Wrong parameters"}, // Generic fallback
	}

	for _, tt := range tests {
		got := tt.sw.Verbose()
		if !strings.Contains(got, tt.contains) {
			t.Errorf("Verbose(%04X) = %q; want containing %q", uint16(tt.sw), got, tt.contains)
		}
	}
}

func TestParseStatusWord(t *testing.T) {
	sw, ok := ParseStatusWord([]byte{0xAA, 0xBB, 0x90, 0x00})
	if !ok || sw != SW_NO_ERROR {
		t.Errorf("ParseStatusWord = %04X, %v; want 9000, true", uint16(sw), ok)
	}

	if _, ok := ParseStatusWord([]byte{0x90}); ok {
		t.Error("single byte input should not parse as a status word")
	}
}
