package companion

import "unicode/utf8"

// utf8Decoder turns a byte stream into text without splitting multi-byte
// runes across chunk boundaries. Incomplete trailing bytes are carried over
// to the next call.
type utf8Decoder struct {
	pending []byte
}

func (d *utf8Decoder) Decode(chunk []byte) string {
	data := append(d.pending, chunk...)
	d.pending = nil

	cut := len(data)
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(data[i]) {
			continue
		}
		if !utf8.FullRune(data[i:]) {
			cut = i
		}
		break
	}

	if cut < len(data) {
		d.pending = append([]byte(nil), data[cut:]...)
	}
	return string(data[:cut])
}

// Flush returns whatever is still pending. Invalid sequences decode to the
// replacement character.
func (d *utf8Decoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	tail := []rune(string(d.pending))
	d.pending = nil
	return string(tail)
}
