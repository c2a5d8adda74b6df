package cat

// RESULT OBJECT (TS 102 223 §8.12):
// The first value byte of a Result object is the General Result code; the
// remaining bytes are additional information whose meaning depends on the
// code. For General Result 0x3A (Bearer Independent Protocol error) the
// single additional byte is the BIP cause.

// General Result codes of interest.
const (
	ResultPerformedOK        byte = 0x00
	ResultPerformedPartial   byte = 0x01
	ResultPerformedMissing   byte = 0x02
	ResultMEUnableToProcess  byte = 0x20
	ResultNetworkUnable      byte = 0x21
	ResultUserRejected       byte = 0x22
	ResultBeyondCapabilities byte = 0x30
	ResultCommandDataError   byte = 0x32
	ResultBIPError           byte = 0x3A
)

// GeneralResultName returns a readable label for a General Result code.
func GeneralResultName(code byte) string {
	switch code {
	case ResultPerformedOK:
		return "Command performed successfully"
	case ResultPerformedPartial:
		return "Command performed with partial comprehension"
	case ResultPerformedMissing:
		return "Command performed, with missing information"
	case ResultMEUnableToProcess:
		return "ME currently unable to process command"
	case ResultNetworkUnable:
		return "Network currently unable to process command"
	case ResultUserRejected:
		return "User did not accept the proactive command"
	case ResultBeyondCapabilities:
		return "Command beyond ME's capabilities"
	case ResultCommandDataError:
		return "Command data not understood by ME"
	case ResultBIPError:
		return "Bearer Independent Protocol error"
	default:
		return "Unknown result"
	}
}

// ScanBIPResult scans a TERMINAL RESPONSE payload for a BIP error Result
// object and returns its cause byte.
//
// The match is deliberately narrow: tag '03' or '83', length exactly 2,
// General Result 0x3A, followed by the cause. Result objects nested in
// other framings are not recognized; broadening the pattern would change
// which traces get flagged.
func ScanBIPResult(payload []byte) (cause byte, ok bool) {
	for i := 0; i+3 < len(payload); i++ {
		if payload[i]&crMask != TagResult {
			continue
		}
		if payload[i+1] != 0x02 {
			continue
		}
		if payload[i+2] != ResultBIPError {
			continue
		}
		return payload[i+3], true
	}
	return 0, false
}
