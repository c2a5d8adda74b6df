package trace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecord_PayloadBytes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantLen int
	}{
		{"valid", "A0A40000022FE2", 7},
		{"with spaces", "A0 A4 00 00", 4},
		{"odd length", "A0A", 0},
		{"not hex", "ZZZZ", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{Payload: tt.payload}
			if got := r.ByteLen(); got != tt.wantLen {
				t.Errorf("ByteLen() = %d; want %d", got, tt.wantLen)
			}
		})
	}
}

func TestRecord_Matching(t *testing.T) {
	r := Record{Summary: "FETCH - Open Channel", Payload: "d0 3e 81 03"}

	if !r.SummaryContains("OPEN CHANNEL") {
		t.Error("summary match should be case-insensitive")
	}
	if r.SummaryContains("CLOSE CHANNEL") {
		t.Error("unexpected summary match")
	}
	if !r.PayloadContains("8103") {
		t.Error("payload match should ignore spaces and case")
	}
}

func TestDetailNode_Find(t *testing.T) {
	tree := &DetailNode{
		Name: "TERMINAL RESPONSE",
		Children: []DetailNode{
			{Name: "Command Details", Value: "Open Channel"},
			{
				Name: "Result",
				Children: []DetailNode{
					{Name: "General Result", Value: "General Result: ME UNABLE TO PROCESS COMMAND"},
				},
			},
		},
	}

	result := tree.FindNamed("Result")
	if result == nil || result.Name != "Result" {
		t.Fatal("FindNamed should locate the Result node")
	}

	child := result.ChildContaining("General Result")
	if child == nil {
		t.Fatal("ChildContaining should locate the nested General Result")
	}
	if got := child.ValueAfterLabel(); got != "ME UNABLE TO PROCESS COMMAND" {
		t.Errorf("ValueAfterLabel() = %q", got)
	}

	if tree.FindNamed("Nonexistent") != nil {
		t.Error("FindNamed should return nil when nothing matches")
	}

	var nilNode *DetailNode
	if nilNode.Find(func(*DetailNode) bool { return true }) != nil {
		t.Error("Find on nil node should return nil")
	}
}

func TestSession_SpanAndBytes(t *testing.T) {
	records := []Record{
		{Payload: "AABB"},     // 2 bytes
		{Payload: "00112233"}, // 4 bytes
		{Payload: "bad"},      // malformed -> 0
		{Payload: "FF"},       // 1 byte
	}

	s := Session{Indices: []int{3, 1, 2}}

	start, end := s.Span()
	if start != 1 || end != 3 {
		t.Errorf("Span() = (%d, %d); want (1, 3)", start, end)
	}
	if got := s.Bytes(records); got != 5 {
		t.Errorf("Bytes() = %d; want 5", got)
	}

	empty := Session{}
	if start, end := empty.Span(); start != -1 || end != -1 {
		t.Errorf("empty Span() = (%d, %d); want (-1, -1)", start, end)
	}
}

func TestLoad(t *testing.T) {
	doc, err := Load([]byte(`{
		"records": [
			{"summary": "APDU - SELECT", "payload": "A0A40000022FE2",
			 "timestamp": "10:00:00.100", "sort_key": "000001", "kind": "command",
			 "details": {"name": "SELECT", "children": [
				{"name": "File ID", "value": "2FE2"}
			 ]}},
			{"summary": "APDU - Response", "payload": "9000", "kind": "response"}
		],
		"sessions": [
			{"indices": [0, 1], "ips": ["10.0.0.1"],
			 "opened_at": "2024-05-01T10:00:00Z", "transport": "TCP", "port": 443}
		]
	}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(doc.Records) != 2 || len(doc.Sessions) != 1 {
		t.Fatalf("loaded %d records, %d sessions", len(doc.Records), len(doc.Sessions))
	}

	rec := doc.Records[0]
	if rec.Kind != KindCommand || rec.Details == nil {
		t.Fatal("first record not fully loaded")
	}
	if node := rec.Details.FindNamed("File ID"); node == nil || node.Value != "2FE2" {
		t.Error("detail tree children not loaded")
	}

	ses := doc.Sessions[0]
	if diff := cmp.Diff([]int{0, 1}, ses.Indices); diff != "" {
		t.Errorf("session indices mismatch (-want +got):\n%s", diff)
	}
	if ses.OpenedAt == nil || ses.ClosedAt != nil {
		t.Error("timestamps not parsed as expected")
	}
}

func TestLoad_Invalid(t *testing.T) {
	if _, err := Load([]byte("not json")); err == nil {
		t.Error("expected error for non-JSON input")
	}

	// Field-level junk degrades, never fails.
	doc, err := Load([]byte(`{"records": [{"payload": 42, "timestamp": false}]}`))
	if err != nil {
		t.Fatalf("Load should tolerate junk fields: %v", err)
	}
	if len(doc.Records) != 1 {
		t.Fatal("record should still be present")
	}
}
