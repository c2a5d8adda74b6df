// Package bits provides small helpers for bit and nibble manipulation.
//
// SIM data structures are nibble-oriented in several places: BCD-encoded
// identifiers (ICCID, IMSI) store two decimal digits per byte in swapped
// order, and several status bytes carry independent meaning in their high
// and low nibbles. These helpers keep that arithmetic out of the decoders.
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value from a range of bits (e.g., bits 4 to 3).
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}

// HighNibble returns the upper four bits of b, shifted down.
func HighNibble(b byte) byte {
	return b >> 4
}

// LowNibble returns the lower four bits of b.
func LowNibble(b byte) byte {
	return b & 0x0F
}
