// Package codec encodes Text datablocks into self-contained binary blocks
// for storage.
//
// Block layout, all integers little-endian:
//
//	"TXTB" version:H name:S filepath:S idflags:C flags:H mtime:Q
//	curLine:D curc:D selLine:D selc:D count:D len:D*count line:Z*count
//
// Lines are written only for texts without FlagExt.
package codec

import (
	"bytes"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/traykit/tray/internal/idtype"
	"github.com/traykit/tray/internal/kernel"
	"github.com/traykit/tray/internal/text"
)

const (
	textMagic   = "TXTB"
	textVersion = 1
)

var (
	ErrBadMagic  = errors.New("codec: not a text block")
	ErrVersion   = errors.New("codec: unsupported block version")
	ErrTruncated = errors.New("codec: truncated block")
)

// EncodeText serialises t. The text itself is not modified.
func EncodeText(t *text.Text) []byte {
	flags := t.Flags
	// Memory texts have no file to read lines back from.
	if flags&text.FlagMem != 0 {
		flags &^= text.FlagExt
	}

	w := NewWriter()
	w.WriteBytes([]byte(textMagic))
	w.WriteH(textVersion)
	w.WriteS(t.Name())
	w.WriteS(t.Filepath)
	var idflags byte
	if t.HasFakeUser() {
		idflags |= 1
	}
	w.WriteC(idflags)
	w.WriteH(uint16(flags))
	w.WriteQ(t.MTime)

	curLine, curc := t.Cursor()
	selLine, selc := t.Anchor()
	w.WriteD(int32(curLine))
	w.WriteD(int32(curc))
	w.WriteD(int32(selLine))
	w.WriteD(int32(selc))

	if flags&text.FlagExt != 0 {
		w.WriteD(0)
		return w.Bytes()
	}
	lines := t.Lines()
	w.WriteD(int32(len(lines)))
	for _, l := range lines {
		w.WriteD(int32(l.Len()))
	}
	for _, l := range lines {
		w.WriteZ(l.Bytes())
	}
	return w.Bytes()
}

// DecodeText rebuilds a text from a block and stores it in m. Line lengths
// that disagree with the stored bytes are repaired and logged. External
// texts come back as memory-backed copies with a single empty line.
func DecodeText(m *kernel.Main, data []byte, log *zap.Logger) (*text.Text, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(data) < len(textMagic) || !bytes.Equal(data[:len(textMagic)], []byte(textMagic)) {
		return nil, ErrBadMagic
	}
	r := NewReader(data[len(textMagic):])
	if v := r.ReadH(); v != textVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}
	name, _ := text.ExtendedASCIIAsUTF8(r.ReadZ())
	path := r.ReadS()
	idflags := r.ReadC()
	flags := text.Flag(r.ReadH())
	mtime := r.ReadQ()
	curLine, curc := int(r.ReadD()), int(r.ReadD())
	selLine, selc := int(r.ReadD()), int(r.ReadD())

	count := int(r.ReadD())
	if count < 0 || count > r.Remaining()/4 {
		return nil, fmt.Errorf("%w: bad line count %d", ErrTruncated, count)
	}
	lengths := make([]int, count)
	for i := range lengths {
		lengths[i] = int(r.ReadD())
	}
	lines := make([][]byte, count)
	for i := range lines {
		lines[i] = r.ReadZ()
		if len(lines[i]) != lengths[i] {
			log.Warn("line lengths differ",
				zap.String("text", string(name)),
				zap.Int("line", i),
				zap.Int("recorded", lengths[i]),
				zap.Int("actual", len(lines[i])))
		}
	}
	if r.Short() {
		return nil, ErrTruncated
	}

	t := m.AllocID(idtype.Text, string(name), 0).(*text.Text)
	m.UsMin(t)
	if idflags&1 != 0 {
		m.FakeUserSet(t)
	}
	t.Filepath = path
	t.Flags = flags &^ text.FlagExt
	t.MTime = mtime
	t.SetLines(lines)
	t.SetCursor(curLine, curc, selLine, selc)
	return t, nil
}
