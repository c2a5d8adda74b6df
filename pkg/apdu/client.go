package apdu

import (
	"fmt"
)

// CLIENT & PROTOCOL LOGIC:
// The Client acts as a high-level driver over the physical card connection.
// It implements the automatic handling of T=0 transport behaviors that
// would otherwise leak into the application layer:
//
// 1. "61 XX" (Response Available):
//    The card indicates that XX bytes are waiting. The client automatically
//    issues a GET RESPONSE to retrieve them.
//
// 2. "6C XX" (Wrong Length):
//    The card suggests the correct expected length. The client re-sends the
//    original command with Le = XX.
//
// A "91 XX" trailer (proactive command pending) is NOT auto-handled: whether
// to FETCH is an application decision, and the capture flow in main
// deliberately records the pending state as part of the trace.
//
// Send() returns a Trace: the log of all physical transactions performed to
// fulfil the logical request.

// Transmitter abstracts the physical card connection (satisfied by
// *scard.Card).
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
type Client struct {
	Card Transmitter
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits a command and handles transport retries (61XX, 6CXX).
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, err
	}

	trace := Trace{{Command: cmd, Response: resp}}

	sw1 := resp.Status.SW1()
	sw2 := resp.Status.SW2()

	// Case 61XX: More data available -> Issue GET RESPONSE
	if sw1 == 0x61 {
		ins, _ := NewInstruction(INS_GET_RESPONSE)

		// GET RESPONSE must ride the same logical channel (CLA bits 1-2).
		getRespCmd := NewCommandAPDU(cmd.Cla, ins, 0x00, 0x00, nil, int(sw2))

		subTrace, err := c.Send(getRespCmd)
		if err != nil {
			return trace, err
		}
		return append(trace, subTrace...), nil
	}

	// Case 6CXX: Wrong Length -> Re-issue original command with correct Le
	if sw1 == 0x6C {
		// Clone to update Le without mutating the caller's command.
		newCmd := *cmd
		newCmd.Ne = int(sw2)

		subTrace, err := c.Send(&newCmd)
		if err != nil {
			return trace, err
		}
		return append(trace, subTrace...), nil
	}

	return trace, nil
}
