package apdu

// SIM FILE SYSTEM (ETSI TS 102 221 §13, 3GPP TS 31.102):
//
// Files on a UICC are addressed by 2-byte identifiers under the Master File
// (MF, 3F00). The analyzer cares about a handful of elementary files,
// chiefly EF_ICCID which stores the card serial number as 10 bytes of
// nibble-swapped BCD.

// Well-known file identifiers.
const (
	FileMF    uint16 = 0x3F00
	FileICCID uint16 = 0x2FE2 // EF_ICCID, transparent, 10 bytes
	FileDFTel uint16 = 0x7F10 // DF_TELECOM
)

// SelectByFileID builds a SELECT command addressing a file by its 2-byte
// identifier (P1=0x00). P2 requests no response data, which legacy cards
// tolerate better than an FCP request.
func SelectByFileID(cla byte, fileID uint16) *CommandAPDU {
	ins, _ := NewInstruction(INS_SELECT)
	data := []byte{byte(fileID >> 8), byte(fileID)}
	return NewCommandAPDU(cla, ins, 0x00, 0x0C, data, 0)
}

// ReadBinary builds a READ BINARY command for a transparent EF starting at
// the given offset. length 0 requests the maximum short Le (256 bytes).
func ReadBinary(cla byte, offset uint16, length int) *CommandAPDU {
	ins, _ := NewInstruction(INS_READ_BINARY)
	if length <= 0 || length > MaxShortLe {
		length = MaxShortLe
	}
	return NewCommandAPDU(cla, ins, byte(offset>>8), byte(offset), nil, length)
}
