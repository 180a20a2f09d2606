// Package midiwindows implements contracts.Transport on the Windows WinMM API.
package midiwindows

// shortMessageLen returns the byte count of the message starting with status,
// or 0 when status does not start a short message.
func shortMessageLen(status byte) int {
	switch {
	case status < 0x80:
		return 0
	case status < 0xC0, status >= 0xE0 && status < 0xF0:
		return 3
	case status < 0xE0:
		return 2
	}
	switch status {
	case 0xF0, 0xF7:
		return 0
	case 0xF1, 0xF3:
		return 2
	case 0xF2:
		return 3
	default:
		return 1
	}
}

// unpackShortMessage decodes the dwParam1 of a MIM_DATA callback.
func unpackShortMessage(packed uint32) []byte {
	status := byte(packed)
	n := shortMessageLen(status)
	if n == 0 {
		return nil
	}
	msg := []byte{status, byte(packed >> 8), byte(packed >> 16)}
	return msg[:n]
}

// packShortMessage encodes msg for midiOutShortMsg. It reports false for
// SysEx and anything that is not exactly one short message.
func packShortMessage(msg []byte) (uint32, bool) {
	if len(msg) == 0 || shortMessageLen(msg[0]) != len(msg) {
		return 0, false
	}
	var packed uint32
	for i, b := range msg {
		packed |= uint32(b) << (8 * i)
	}
	return packed, true
}
