package apdu

import (
	"bytes"
	"testing"
)

// scriptedCard replays canned responses and records the commands it saw.
type scriptedCard struct {
	responses [][]byte
	sent      [][]byte
}

func (c *scriptedCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, cmd)
	if len(c.responses) == 0 {
		return []byte{0x6F, 0x00}, nil
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func TestClient_Send_Direct(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{{0x90, 0x00}}}
	client := NewClient(card)

	trace, err := client.Send(SelectByFileID(ClaUICC, FileICCID))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(trace) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(trace))
	}
	if !trace.IsSuccess() {
		t.Error("trace should be successful")
	}
}

func TestClient_Send_GetResponse(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		{0x61, 0x02},             // 2 bytes available
		{0xAA, 0xBB, 0x90, 0x00}, // delivered by GET RESPONSE
	}}
	client := NewClient(card)

	trace, err := client.Send(SelectByFileID(ClaUICC, FileMF))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(trace) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(trace))
	}

	getResp := card.sent[1]
	if getResp[1] != byte(INS_GET_RESPONSE) || getResp[4] != 0x02 {
		t.Errorf("second command should be GET RESPONSE Le=2, got % X", getResp)
	}

	if !bytes.Equal(trace.Last().Response.Data, []byte{0xAA, 0xBB}) {
		t.Errorf("final data = % X; want AA BB", trace.Last().Response.Data)
	}
}

func TestClient_Send_WrongLengthRetry(t *testing.T) {
	card := &scriptedCard{responses: [][]byte{
		{0x6C, 0x0A},                                               // correct Le is 10
		{0x98, 0x94, 0x20, 0x30, 0x90, 0x91, 0x55, 0x85, 0x44, 0xF7, 0x90, 0x00}, // re-issued read
	}}
	client := NewClient(card)

	original := ReadBinary(ClaUICC, 0, 256)
	trace, err := client.Send(original)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(trace) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(trace))
	}
	retry := card.sent[1]
	if retry[len(retry)-1] != 0x0A {
		t.Errorf("retry should carry Le=0x0A, got % X", retry)
	}
	if original.Ne != 256 {
		t.Error("original command must not be mutated by the retry")
	}
}
