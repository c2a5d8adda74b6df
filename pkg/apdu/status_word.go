package apdu

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/bits"
)

// Dynamic Status Word Logic:
//
// Most Status Words (SW) are static 2-byte values (e.g. 0x9000), but the
// UICC makes heavy use of dynamic ranges where SW2 carries context:
//
// 1. '91XX' (SW1=0x91): Normal ending, proactive command pending.
//    XX is the length of the proactive command waiting to be FETCHed.
//
// 2. '61XX' (SW1=0x61): Process completed, response available.
//    XX indicates the number of extra bytes retrievable with GET RESPONSE.
//
// 3. '6CXX' (SW1=0x6C): Wrong length.
//    XX indicates the correct expected length (Le) for the command.
//
// 4. '63CX' (Warning): Counter management.
//    If the upper nibble of SW2 is 'C', the lower nibble is a counter
//    value (e.g. remaining PIN verification attempts).

// StatusWord represents the two-byte status response (SW1-SW2) returned by
// the card.
type StatusWord uint16

// NewStatusWord creates a StatusWord instance from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// ParseStatusWord interprets the last two bytes of raw as a status word.
// It returns false when raw is too short to carry a trailer.
func ParseStatusWord(raw []byte) (StatusWord, bool) {
	if len(raw) < 2 {
		return 0, false
	}
	return NewStatusWord(raw[len(raw)-2], raw[len(raw)-1]), true
}

// SW1 returns the first byte (high byte) of the status word.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the second byte (low byte) of the status word.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// IsProactivePending reports whether the card signalled a pending proactive
// command (91XX). The terminal should issue FETCH for SW2 bytes.
func (sw StatusWord) IsProactivePending() bool {
	return sw.SW1() == 0x91
}

// IsCounter checks if the status carries a retry counter (63CX).
func (sw StatusWord) IsCounter() bool {
	if sw.SW1() != 0x63 {
		return false
	}
	return bits.HighNibble(sw.SW2()) == 0x0C
}

// IsSuccess returns true for a normal ending: 9000, 91XX (proactive
// pending) or 61XX (response data available).
func (sw StatusWord) IsSuccess() bool {
	return sw == SW_NO_ERROR || sw.SW1() == 0x91 || sw.SW1() == 0x61
}

// IsWarning returns true if the status indicates a warning (62XX or 63XX).
func (sw StatusWord) IsWarning() bool {
	sw1 := sw.SW1()
	return sw1 == 0x62 || sw1 == 0x63
}

// IsError returns true if the status indicates an execution or checking
// error (64XX to 6FXX).
func (sw StatusWord) IsError() bool {
	sw1 := sw.SW1()
	return sw1 >= 0x64 && sw1 <= 0x6F
}

// Verbose returns a human-readable description of the status word,
// prioritizing the dynamic UICC ranges over the static table.
func (sw StatusWord) Verbose() string {
	sw1 := sw.SW1()
	sw2 := sw.SW2()

	if sw1 == 0x91 {
		return fmt.Sprintf("Normal ending, proactive command pending (%d bytes)", sw2)
	}

	if sw1 == 0x61 {
		return fmt.Sprintf("Process completed, %d bytes available", sw2)
	}

	if sw1 == 0x6C {
		return fmt.Sprintf("Wrong length, correct Le is %d", sw2)
	}

	if sw.IsCounter() {
		return fmt.Sprintf("Warning: verification failed, %d attempts left", bits.LowNibble(sw2))
	}

	if desc, ok := swDescriptions[sw]; ok {
		return fmt.Sprintf("[%04X] %s", uint16(sw), desc)
	}

	return fmt.Sprintf("[%04X] %s", uint16(sw), sw.genericCategoryDescription())
}

// genericCategoryDescription provides a fallback description based on SW1.
func (sw StatusWord) genericCategoryDescription() string {
	switch sw.SW1() {
	case 0x62:
		return "Warning: NV memory unchanged"
	case 0x63:
		return "Warning: NV memory changed"
	case 0x64:
		return "Execution Error: NV memory unchanged"
	case 0x65:
		return "Execution Error: NV memory changed"
	case 0x66:
		return "Execution Error: Security issue"
	case 0x68:
		return "Checking Error: Function not supported"
	case 0x69:
		return "Checking Error: Command not allowed"
	case 0x6A:
		return "Checking Error: Wrong parameters"
	case 0x92:
		return "Memory management"
	case 0x93:
		return "SIM Application Toolkit busy"
	default:
		return "Unknown Status"
	}
}

// Status Word codes relevant to UICC operation (ETSI TS 102 221 §10.2 and
// ISO/IEC 7816-4).
const (
	SW_NO_ERROR StatusWord = 0x9000

	SW_TOOLKIT_BUSY StatusWord = 0x9300

	SW_WARN_NO_INFO          StatusWord = 0x6200
	SW_WARN_DATA_CORRUPTED   StatusWord = 0x6281
	SW_WARN_EOF_REACHED      StatusWord = 0x6282
	SW_WARN_FILE_DEACTIVATED StatusWord = 0x6283
	SW_WARN_TERMINATION      StatusWord = 0x6285

	SW_ERR_EXEC_NO_INFO   StatusWord = 0x6400
	SW_ERR_MEMORY_FAILURE StatusWord = 0x6581
	SW_ERR_SECURITY_ISSUE StatusWord = 0x6600

	SW_ERR_WRONG_LENGTH             StatusWord = 0x6700
	SW_ERR_LOGICAL_CHANNEL_NOT_SUPP StatusWord = 0x6881

	SW_ERR_CMD_INCOMPATIBLE_FILE   StatusWord = 0x6981
	SW_ERR_SECURITY_STATUS_NOT_SAT StatusWord = 0x6982
	SW_ERR_AUTH_METHOD_BLOCKED     StatusWord = 0x6983
	SW_ERR_COND_OF_USE_NOT_SAT     StatusWord = 0x6985
	SW_ERR_CMD_NOT_ALLOWED_NO_EF   StatusWord = 0x6986

	SW_ERR_INCORRECT_PARAMS_DATA StatusWord = 0x6A80
	SW_ERR_FUNC_NOT_SUPPORTED    StatusWord = 0x6A81
	SW_ERR_FILE_NOT_FOUND        StatusWord = 0x6A82
	SW_ERR_RECORD_NOT_FOUND      StatusWord = 0x6A83
	SW_ERR_NOT_ENOUGH_MEMORY     StatusWord = 0x6A84
	SW_ERR_INCORRECT_PARAMS_P1P2 StatusWord = 0x6A86
	SW_ERR_REF_DATA_NOT_FOUND    StatusWord = 0x6A88

	SW_ERR_WRONG_P1P2        StatusWord = 0x6B00
	SW_ERR_INS_INVALID       StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED StatusWord = 0x6E00
	SW_ERR_UNKNOWN           StatusWord = 0x6F00
)

var swDescriptions = map[StatusWord]string{
	SW_NO_ERROR:                     "Normal ending of the command",
	SW_TOOLKIT_BUSY:                 "SIM Application Toolkit is busy",
	SW_WARN_NO_INFO:                 "Warning: no information given",
	SW_WARN_DATA_CORRUPTED:          "Warning: returned data may be corrupted",
	SW_WARN_EOF_REACHED:             "Warning: end of file reached before reading Le bytes",
	SW_WARN_FILE_DEACTIVATED:        "Warning: selected file deactivated",
	SW_WARN_TERMINATION:             "Warning: card in termination state",
	SW_ERR_EXEC_NO_INFO:             "Execution error: no information given",
	SW_ERR_MEMORY_FAILURE:           "Execution error: memory failure",
	SW_ERR_SECURITY_ISSUE:           "Execution error: security related issue",
	SW_ERR_WRONG_LENGTH:             "Wrong length",
	SW_ERR_LOGICAL_CHANNEL_NOT_SUPP: "Logical channel not supported",
	SW_ERR_CMD_INCOMPATIBLE_FILE:    "Command incompatible with file structure",
	SW_ERR_SECURITY_STATUS_NOT_SAT:  "Security status not satisfied",
	SW_ERR_AUTH_METHOD_BLOCKED:      "Authentication/PIN method blocked",
	SW_ERR_COND_OF_USE_NOT_SAT:      "Conditions of use not satisfied",
	SW_ERR_CMD_NOT_ALLOWED_NO_EF:    "Command not allowed: no EF selected",
	SW_ERR_INCORRECT_PARAMS_DATA:    "Incorrect parameters in the data field",
	SW_ERR_FUNC_NOT_SUPPORTED:       "Function not supported",
	SW_ERR_FILE_NOT_FOUND:           "File not found",
	SW_ERR_RECORD_NOT_FOUND:         "Record not found",
	SW_ERR_NOT_ENOUGH_MEMORY:        "Not enough memory space",
	SW_ERR_INCORRECT_PARAMS_P1P2:    "Incorrect parameters P1-P2",
	SW_ERR_REF_DATA_NOT_FOUND:       "Referenced data not found",
	SW_ERR_WRONG_P1P2:               "Wrong parameters P1-P2",
	SW_ERR_INS_INVALID:              "Instruction code not supported or invalid",
	SW_ERR_CLA_NOT_SUPPORTED:        "Class not supported",
	SW_ERR_UNKNOWN:                  "No precise diagnosis",
}
