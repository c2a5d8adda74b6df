package cat

// OTHER ADDRESS OBJECT (TS 102 223 §8.58):
// In an OPEN CHANNEL proactive command the destination the channel should
// reach is carried in an "Other address" object: one address-type byte
// (0x21 = IPv4, 0x57 = IPv6) followed by the raw address bytes. A channel
// opened WITHOUT a usable destination address is how the SIM requests a
// device-local bearer, typically to let the device resolve DNS itself.

// Address types of the Other address object.
const (
	AddressIPv4 byte = 0x21
	AddressIPv6 byte = 0x57
)

// DestinationAddress extracts the destination address bytes from an OPEN
// CHANNEL payload (proactive template or bare COMPREHENSION-TLV sequence).
// The returned slice excludes the address-type byte; it is nil when no
// Other address object is present.
func DestinationAddress(payload []byte) []byte {
	objs := Parse(UnwrapProactive(payload))

	obj, found := Find(objs, TagOtherAddress)
	if !found || len(obj.Value) < 1 {
		return nil
	}
	return obj.Value[1:]
}

// HasUsableDestination reports whether the OPEN CHANNEL payload carries at
// least an IPv4-sized destination address (4 bytes).
func HasUsableDestination(payload []byte) bool {
	return len(DestinationAddress(payload)) >= 4
}
