/*
Package cat decodes Card Application Toolkit data objects (ETSI TS 102 223)
as needed by trace validation.

# Structure

A proactive command travels as a BER-TLV template (tag 'D0') whose value is
a sequence of COMPREHENSION-TLV objects. COMPREHENSION-TLV is a simple-TLV
encoding: one tag byte whose most significant bit is the "comprehension
required" (CR) flag, a one- or two-byte length, then the value. The same
objects appear in TERMINAL RESPONSE payloads and ENVELOPE commands.

Tag comparisons in this package always ignore the CR bit: '03' and '83'
are both a Result object.
*/
package cat

import (
	"strings"

	"github.com/moov-io/bertlv"
)

// COMPREHENSION-TLV tags used by the analyzer (TS 102 223 Annex C).
const (
	TagCommandDetails byte = 0x01
	TagDeviceIdentity byte = 0x02
	TagResult         byte = 0x03
	TagAlphaID        byte = 0x05
	TagAddress        byte = 0x06
	TagBearerDesc     byte = 0x35
	TagChannelData    byte = 0x36
	TagChannelStatus  byte = 0x38
	TagBufferSize     byte = 0x39
	TagTransportLevel byte = 0x3C
	TagOtherAddress   byte = 0x3E
	TagNetworkAccess  byte = 0x47
)

// crMask clears the comprehension-required flag of a tag byte.
const crMask byte = 0x7F

// Object is one COMPREHENSION-TLV data object.
type Object struct {
	Tag   byte // raw tag, CR flag included
	Value []byte
}

// BaseTag returns the tag with the comprehension-required flag cleared.
func (o Object) BaseTag() byte {
	return o.Tag & crMask
}

// Parse walks a sequence of COMPREHENSION-TLV objects. Parsing is tolerant:
// a truncated trailing object ends the walk without error, since trace
// payloads are frequently cut short by the capture tool.
func Parse(data []byte) []Object {
	var objs []Object

	for i := 0; i < len(data); {
		tag := data[i]
		i++
		if i >= len(data) {
			break
		}

		length := int(data[i])
		i++
		if length == 0x81 {
			// Two-byte length form for values of 128..255 bytes.
			if i >= len(data) {
				break
			}
			length = int(data[i])
			i++
		}

		if i+length > len(data) {
			break
		}

		objs = append(objs, Object{Tag: tag, Value: data[i : i+length]})
		i += length
	}

	return objs
}

// Find returns the first object whose tag matches (CR flag ignored).
func Find(objs []Object, tag byte) (Object, bool) {
	want := tag & crMask
	for _, o := range objs {
		if o.BaseTag() == want {
			return o, true
		}
	}
	return Object{}, false
}

// UnwrapProactive strips the BER-TLV proactive command template ('D0') or
// event download envelope ('D6') around a COMPREHENSION-TLV sequence. When
// the data carries no recognizable template it is returned unchanged, so
// callers can feed either framing.
func UnwrapProactive(data []byte) []byte {
	if len(data) == 0 {
		return data
	}

	packets, err := bertlv.Decode(data)
	if err != nil || len(packets) == 0 {
		return data
	}

	tag := strings.ToUpper(packets[0].Tag)
	if tag == "D0" || tag == "D6" || tag == "D7" {
		return packets[0].Value
	}
	return data
}
