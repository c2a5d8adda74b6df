package validate

import (
	"encoding/hex"
	"testing"

	"github.com/gregLibert/sim-trace/pkg/issue"
	"github.com/gregLibert/sim-trace/pkg/trace"
)

// encodeBCDICCID builds the on-card representation: two digits per byte,
// first digit in the low nibble, trailing F pad for odd lengths.
func encodeBCDICCID(digits string) []byte {
	if len(digits)%2 != 0 {
		digits += "F"
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		lo := hexNibble(digits[2*i])
		hi := hexNibble(digits[2*i+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexNibble(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0'
	}
	return 0x0F
}

func TestDecodeBCDICCID_RoundTrip(t *testing.T) {
	tests := []string{
		"8901260421860556492",  // 19 digits, F padded
		"89014103211118510720", // 20 digits
		"890126042186055649",   // 18 digits, minimum accepted
	}

	for _, iccid := range tests {
		raw := encodeBCDICCID(iccid)
		decoded, ok := decodeBCDICCID(raw)
		if !ok {
			t.Errorf("decode of %s failed", iccid)
			continue
		}
		if decoded != iccid {
			t.Errorf("round trip: got %s, want %s", decoded, iccid)
		}
	}
}

func TestDecodeBCDICCID_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		digits string
	}{
		{"wrong prefix", "1201260421860556492"},
		{"too short", "8901260421"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := decodeBCDICCID(encodeBCDICCID(tt.digits)); ok {
				t.Errorf("expected rejection, got %s", got)
			}
		})
	}

	t.Run("non-decimal nibble", func(t *testing.T) {
		raw := encodeBCDICCID("8901260421860556492")
		raw[5] = 0xAB // garbage in the middle
		if got, ok := decodeBCDICCID(raw); ok {
			t.Errorf("expected rejection, got %s", got)
		}
	})
}

func iccidTrace(responsePayload string, details *trace.DetailNode) []trace.Record {
	return []trace.Record{
		{Summary: "APDU - SELECT", Payload: "00A40004022FE2", Kind: trace.KindCommand},
		{Summary: "APDU - READ BINARY", Payload: "00B000000A", Kind: trace.KindCommand},
		{Summary: "APDU - Response", Payload: responsePayload, Kind: trace.KindResponse, Details: details},
	}
}

func TestICCIDCorrelation_FromPayloadTail(t *testing.T) {
	iccid := "8901260421860556492"
	payload := hex.EncodeToString(encodeBCDICCID(iccid)) + "9000"

	found := byCategory(Run(iccidTrace(payload, nil)), issue.CategoryICCID)
	if len(found) != 1 {
		t.Fatalf("expected 1 ICCID finding, got %d", len(found))
	}
	if found[0].Index != 0 {
		t.Errorf("finding must anchor at the SELECT index, got %d", found[0].Index)
	}
	if found[0].Severity != issue.Info {
		t.Errorf("severity = %v; want INFO", found[0].Severity)
	}
	if want := "ICCID detected: " + iccid; found[0].Message != want {
		t.Errorf("message = %q; want %q", found[0].Message, want)
	}
}

func TestICCIDCorrelation_FromDetailTree(t *testing.T) {
	iccid := "89014103211118510720"
	details := &trace.DetailNode{
		Name: "Response",
		Children: []trace.DetailNode{
			{Name: "Data", Value: "Data: " + hex.EncodeToString(encodeBCDICCID(iccid))},
		},
	}

	// Payload carries only the status word: tail extraction cannot apply.
	found := byCategory(Run(iccidTrace("9000", details)), issue.CategoryICCID)
	if len(found) != 1 {
		t.Fatalf("expected 1 ICCID finding via detail tree, got %d", len(found))
	}
	if found[0].Message != "ICCID detected: "+iccid {
		t.Errorf("unexpected message %q", found[0].Message)
	}
}

func TestICCIDCorrelation_ResetByNewSelect(t *testing.T) {
	iccid := "8901260421860556492"
	payload := hex.EncodeToString(encodeBCDICCID(iccid)) + "9000"

	records := []trace.Record{
		{Summary: "APDU - SELECT", Payload: "00A40004022FE2", Kind: trace.KindCommand},
		// A different SELECT re-aims the machine before the read happens.
		{Summary: "APDU - SELECT", Payload: "00A40004023F00", Kind: trace.KindCommand},
		{Summary: "APDU - READ BINARY", Payload: "00B000000A", Kind: trace.KindCommand},
		{Summary: "APDU - Response", Payload: payload, Kind: trace.KindResponse},
	}

	if found := byCategory(Run(records), issue.CategoryICCID); len(found) != 0 {
		t.Errorf("reset machine must not report, got %+v", found)
	}
}

func TestICCIDCorrelation_SkipsFailedResponse(t *testing.T) {
	iccid := "8901260421860556492"
	good := hex.EncodeToString(encodeBCDICCID(iccid)) + "9000"

	records := []trace.Record{
		{Summary: "APDU - SELECT", Payload: "00A40004022FE2", Kind: trace.KindCommand},
		{Summary: "APDU - READ BINARY", Payload: "00B000000A", Kind: trace.KindCommand},
		// First response fails; the machine keeps waiting.
		{Summary: "APDU - Response", Payload: "6A82", Kind: trace.KindResponse},
		{Summary: "APDU - Response", Payload: good, Kind: trace.KindResponse},
	}

	found := byCategory(Run(records), issue.CategoryICCID)
	if len(found) != 1 {
		t.Fatalf("expected the later successful response to complete the read, got %d findings", len(found))
	}
}

func TestICCIDCorrelation_GarbageDataResetsQuietly(t *testing.T) {
	// Successful response whose data does not decode: machine resets, no
	// finding, and a later unrelated response stays silent.
	records := iccidTrace("FFFFFFFFFFFFFFFFFFFF9000", nil)
	records = append(records, trace.Record{
		Summary: "APDU - Response", Payload: "9000", Kind: trace.KindResponse,
	})

	if found := byCategory(Run(records), issue.CategoryICCID); len(found) != 0 {
		t.Errorf("expected no finding for undecodable data, got %+v", found)
	}
}
