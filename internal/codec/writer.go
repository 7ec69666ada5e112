package codec

import "encoding/binary"

// Writer builds a block. All multi-byte writes are little-endian.
// Bytes() pads the output to a 4-byte boundary.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// WriteC writes 1 byte.
func (w *Writer) WriteC(v byte) {
	w.buf = append(w.buf, v)
}

// WriteH writes 2 bytes little-endian.
func (w *Writer) WriteH(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteD writes 4 bytes little-endian (signed or unsigned via cast).
func (w *Writer) WriteD(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

// WriteQ writes 8 bytes little-endian.
func (w *Writer) WriteQ(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

// WriteZ writes b followed by a NUL.
func (w *Writer) WriteZ(b []byte) {
	w.buf = append(w.buf, b...)
	w.buf = append(w.buf, 0)
}

// WriteS writes a NUL-terminated string.
func (w *Writer) WriteS(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the block padded to a 4-byte boundary.
func (w *Writer) Bytes() []byte {
	if pad := len(w.buf) % 4; pad != 0 {
		for i := pad; i < 4; i++ {
			w.buf = append(w.buf, 0)
		}
	}
	return w.buf
}

// Len returns the current unpadded length.
func (w *Writer) Len() int {
	return len(w.buf)
}
