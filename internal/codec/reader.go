package codec

import "encoding/binary"

// Reader reads little-endian block fields. Reads past the end return zero
// values and mark the reader short.
type Reader struct {
	data  []byte
	off   int
	short bool
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadC reads 1 byte.
func (r *Reader) ReadC() byte {
	if r.off >= len(r.data) {
		r.short = true
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadH reads 2 bytes as little-endian uint16.
func (r *Reader) ReadH() uint16 {
	if r.off+2 > len(r.data) {
		r.short = true
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadD reads 4 bytes as little-endian int32.
func (r *Reader) ReadD() int32 {
	if r.off+4 > len(r.data) {
		r.short = true
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadQ reads 8 bytes as little-endian int64.
func (r *Reader) ReadQ() int64 {
	if r.off+8 > len(r.data) {
		r.short = true
		return 0
	}
	v := int64(binary.LittleEndian.Uint64(r.data[r.off:]))
	r.off += 8
	return v
}

// ReadZ reads bytes up to a NUL and skips the NUL. A missing terminator
// consumes the rest of the data.
func (r *Reader) ReadZ() []byte {
	start := r.off
	for r.off < len(r.data) {
		if r.data[r.off] == 0 {
			raw := r.data[start:r.off]
			r.off++
			return raw
		}
		r.off++
	}
	r.short = true
	return r.data[start:r.off]
}

// ReadS reads a NUL-terminated string.
func (r *Reader) ReadS() string {
	return string(r.ReadZ())
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if n < 0 || r.off+n > len(r.data) {
		remaining := r.data[r.off:]
		r.off = len(r.data)
		r.short = true
		return remaining
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Short reports whether any read ran past the end of the data.
func (r *Reader) Short() bool { return r.short }
