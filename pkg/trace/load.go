package trace

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// TRACE DOCUMENT FORMAT:
// A trace document is a JSON object with two arrays:
//
//	{
//	  "records": [
//	    {"summary": "...", "payload": "A0A40000022FE2", "timestamp": "...",
//	     "sort_key": "...", "kind": "command",
//	     "details": {"name": "...", "value": "...", "content": "...",
//	                 "children": [...]}},
//	    ...
//	  ],
//	  "sessions": [
//	    {"indices": [3, 4, 9], "ips": ["10.1.2.3"],
//	     "opened_at": "2024-05-01T10:00:00Z", "closed_at": "...",
//	     "transport": "TCP", "port": 443},
//	    ...
//	  ]
//	}
//
// Field-level problems (bad timestamps, missing payloads, absent detail
// trees) degrade to zero values; only a document that is not JSON at all is
// an error. The detail tree has an open depth, which is why this loader
// walks it with gjson instead of struct decoding.

// Document is a fully loaded trace file.
type Document struct {
	Records  []Record
	Sessions []Session
}

// Load parses a trace document.
func Load(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("trace document is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	doc := &Document{}

	root.Get("records").ForEach(func(_, rec gjson.Result) bool {
		doc.Records = append(doc.Records, loadRecord(rec))
		return true
	})

	root.Get("sessions").ForEach(func(_, ses gjson.Result) bool {
		doc.Sessions = append(doc.Sessions, loadSession(ses))
		return true
	})

	return doc, nil
}

func loadRecord(rec gjson.Result) Record {
	r := Record{
		Summary:   rec.Get("summary").String(),
		Payload:   rec.Get("payload").String(),
		Timestamp: rec.Get("timestamp").String(),
		SortKey:   rec.Get("sort_key").String(),
		Kind:      Kind(rec.Get("kind").String()),
	}

	if details := rec.Get("details"); details.Exists() {
		node := loadDetailNode(details)
		r.Details = &node
	}
	return r
}

func loadDetailNode(res gjson.Result) DetailNode {
	node := DetailNode{
		Name:    res.Get("name").String(),
		Value:   res.Get("value").String(),
		Content: res.Get("content").String(),
	}

	res.Get("children").ForEach(func(_, child gjson.Result) bool {
		node.Children = append(node.Children, loadDetailNode(child))
		return true
	})
	return node
}

func loadSession(res gjson.Result) Session {
	s := Session{
		Transport: res.Get("transport").String(),
		Port:      int(res.Get("port").Int()),
	}

	res.Get("indices").ForEach(func(_, idx gjson.Result) bool {
		s.Indices = append(s.Indices, int(idx.Int()))
		return true
	})
	res.Get("ips").ForEach(func(_, ip gjson.Result) bool {
		s.IPs = append(s.IPs, ip.String())
		return true
	})

	s.OpenedAt = parseTime(res.Get("opened_at").String())
	s.ClosedAt = parseTime(res.Get("closed_at").String())
	return s
}

// parseTime accepts RFC 3339 with or without sub-second precision; anything
// else counts as "timestamp unknown".
func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
