package validate

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/bits"
	"github.com/gregLibert/sim-trace/pkg/issue"
	"github.com/gregLibert/sim-trace/pkg/trace"
)

// ICCID CORRELATION:
// Reading the card serial number is a three-record exchange:
//
//	SELECT EF_ICCID (2FE2)  ->  READ BINARY  ->  response with 10 data bytes
//
// The engine carries a single pending-read machine (not one per channel):
// a SELECT of 2FE2 arms it and remembers the SELECT's index, a READ BINARY
// advances it, and the next successful response triggers extraction. Any
// other SELECT re-aims the machine, which is also how abandoned partial
// reads self-reset — partial reads are expected noise, not failures.
//
// The finding is anchored at the SELECT index, where the logical operation
// started, not at the response that completed it.

type iccidStage int

const (
	iccidIdle     iccidStage = iota
	iccidSelected            // EF_ICCID selected, awaiting READ BINARY
	iccidReading             // READ BINARY seen, awaiting successful response
)

type iccidState struct {
	stage       iccidStage
	selectIndex int
}

const iccidFileHex = "2FE2"

func (a *Analyzer) checkICCID(rec *trace.Record, index int) {
	switch {
	case rec.SummaryContains("SELECT") && !isAPDUResponse(rec):
		if rec.PayloadContains(iccidFileHex) || rec.SummaryContains("ICCID") {
			a.iccid = iccidState{stage: iccidSelected, selectIndex: index}
		} else {
			a.iccid = iccidState{stage: iccidIdle}
		}

	case a.iccid.stage == iccidSelected && rec.SummaryContains("READ BINARY"):
		a.iccid.stage = iccidReading

	case a.iccid.stage == iccidReading && isAPDUResponse(rec):
		sw, ok := apdu.ParseStatusWord(rec.PayloadBytes())
		if !ok || !sw.IsSuccess() {
			return
		}

		if iccid, ok := extractICCID(rec); ok {
			a.emitFor(rec, issue.Issue{
				Severity: issue.Info,
				Category: issue.CategoryICCID,
				Message:  fmt.Sprintf("ICCID detected: %s", iccid),
				Index:    a.iccid.selectIndex,
			})
		}
		a.iccid = iccidState{stage: iccidIdle} // reset whether or not it decoded
	}
}

// isAPDUResponse recognizes plain APDU responses; TERMINAL RESPONSE is a
// command and must not complete the read.
func isAPDUResponse(rec *trace.Record) bool {
	if rec.Kind == trace.KindResponse {
		return true
	}
	return rec.SummaryContains("RESPONSE") && !rec.SummaryContains("TERMINAL RESPONSE")
}

// extractICCID pulls the 10 BCD bytes out of a successful response record:
// first from the raw payload tail (the 10 bytes immediately preceding the
// status word), falling back to a "Data" field found anywhere in the
// detail tree.
func extractICCID(rec *trace.Record) (string, bool) {
	if raw := rec.PayloadBytes(); len(raw) >= 12 {
		if iccid, ok := decodeBCDICCID(raw[len(raw)-12 : len(raw)-2]); ok {
			return iccid, true
		}
	}

	if rec.Details != nil {
		if node := rec.Details.FindNamed("Data"); node != nil {
			hexStr := strings.ReplaceAll(node.ValueAfterLabel(), " ", "")
			if raw, err := hex.DecodeString(hexStr); err == nil && len(raw) >= 10 {
				return decodeBCDICCID(raw[:10])
			}
		}
	}
	return "", false
}

// decodeBCDICCID decodes nibble-swapped BCD: each byte stores two decimal
// digits with the first digit in the LOW nibble. A trailing 0xF nibble pads
// odd-length identifiers. The result is accepted only when it is at least
// 18 digits long and starts with the "89" ICCID issuer prefix.
func decodeBCDICCID(raw []byte) (string, bool) {
	var sb strings.Builder
	for _, b := range raw {
		sb.WriteByte(hexDigit(bits.LowNibble(b)))
		sb.WriteByte(hexDigit(bits.HighNibble(b)))
	}

	digits := strings.TrimSuffix(sb.String(), "F")

	if len(digits) < 18 || !strings.HasPrefix(digits, "89") {
		return "", false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return digits, true
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + n - 10
}
