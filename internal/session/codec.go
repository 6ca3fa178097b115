package session

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pepper-edit/pepper/internal/client"
)

// headerLen is the fixed header every frame carries: a one-byte tag
// followed by a little-endian u32 payload length. Per spec.md §4.7, the
// header is reserved up front and its tag filled in last, once the
// payload (whose length is not always known ahead of a single pass) has
// been fully appended to the frame buffer.
const headerLen = 5

type frameBuilder struct {
	buf []byte
}

func newFrameBuilder() *frameBuilder {
	return &frameBuilder{buf: make([]byte, headerLen)}
}

func (f *frameBuilder) putU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	f.buf = append(f.buf, b[:]...)
}

func (f *frameBuilder) putString(s string) {
	f.putU32(uint32(len(s)))
	f.buf = append(f.buf, s...)
}

func (f *frameBuilder) putBytes(b []byte) {
	f.putU32(uint32(len(b)))
	f.buf = append(f.buf, b...)
}

// finish fills in the reserved header (tag and payload length, now known)
// and returns the complete frame.
func (f *frameBuilder) finish(tag byte) []byte {
	f.buf[0] = tag
	binary.LittleEndian.PutUint32(f.buf[1:headerLen], uint32(len(f.buf)-headerLen))
	return f.buf
}

// WriteClientEvent frames and writes ev to w.
func WriteClientEvent(w io.Writer, ev ClientEvent) error {
	f := newFrameBuilder()
	switch ev.Tag {
	case TagKey:
		f.putU32(uint32(ev.Target))
		f.putString(ev.KeySpec)
	case TagResize:
		f.putU32(uint32(ev.Width))
		f.putU32(uint32(ev.Height))
	case TagCommands:
		f.putU32(uint32(ev.Target))
		f.putString(ev.Text)
	case TagStdinInput:
		f.putU32(uint32(ev.Target))
		f.putBytes(ev.Bytes)
	default:
		return fmt.Errorf("session: invalid client event tag %d", ev.Tag)
	}
	_, err := w.Write(f.finish(byte(ev.Tag)))
	return err
}

// WriteServerEvent frames and writes ev to w.
func WriteServerEvent(w io.Writer, ev ServerEvent) error {
	f := newFrameBuilder()
	switch ev.Tag {
	case TagDisplay:
		f.putBytes(ev.Frame)
	case TagStdoutOutput:
		f.putBytes(ev.Stdout)
	case TagCommandOutput, TagRequest:
		f.putString(ev.CommandText)
	default:
		return fmt.Errorf("session: invalid server event tag %d", ev.Tag)
	}
	_, err := w.Write(f.finish(byte(ev.Tag)))
	return err
}

// frameReader decodes the fixed header then reads exactly the payload
// length that follows, per frame.
type frameReader struct {
	r io.Reader
}

func (fr *frameReader) readFrame() (tag byte, payload []byte, err error) {
	var header [headerLen]byte
	if _, err := io.ReadFull(fr.r, header[:]); err != nil {
		return 0, nil, err
	}
	tag = header[0]
	n := binary.LittleEndian.Uint32(header[1:headerLen])
	payload = make([]byte, n)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		return 0, nil, err
	}
	return tag, payload, nil
}

type payloadReader struct {
	b []byte
}

func (p *payloadReader) u32() uint32 {
	if len(p.b) < 4 {
		return 0
	}
	v := binary.LittleEndian.Uint32(p.b[:4])
	p.b = p.b[4:]
	return v
}

func (p *payloadReader) str() string {
	n := p.u32()
	if uint32(len(p.b)) < n {
		s := string(p.b)
		p.b = nil
		return s
	}
	s := string(p.b[:n])
	p.b = p.b[n:]
	return s
}

func (p *payloadReader) bytes() []byte {
	n := p.u32()
	if uint32(len(p.b)) < n {
		b := p.b
		p.b = nil
		return b
	}
	b := p.b[:n]
	p.b = p.b[n:]
	return b
}

// ReadClientEvent decodes one ClientEvent frame from r.
func ReadClientEvent(r io.Reader) (ClientEvent, error) {
	fr := &frameReader{r: r}
	tag, payload, err := fr.readFrame()
	if err != nil {
		return ClientEvent{}, err
	}
	p := &payloadReader{b: payload}
	ev := ClientEvent{Tag: ClientEventTag(tag)}
	switch ev.Tag {
	case TagKey:
		ev.Target = client.Handle(p.u32())
		ev.KeySpec = p.str()
	case TagResize:
		ev.Width = int(p.u32())
		ev.Height = int(p.u32())
	case TagCommands:
		ev.Target = client.Handle(p.u32())
		ev.Text = p.str()
	case TagStdinInput:
		ev.Target = client.Handle(p.u32())
		ev.Bytes = p.bytes()
	default:
		return ClientEvent{}, fmt.Errorf("session: invalid client event tag %d", tag)
	}
	return ev, nil
}

// ReadServerEvent decodes one ServerEvent frame from r.
func ReadServerEvent(r io.Reader) (ServerEvent, error) {
	fr := &frameReader{r: r}
	tag, payload, err := fr.readFrame()
	if err != nil {
		return ServerEvent{}, err
	}
	p := &payloadReader{b: payload}
	ev := ServerEvent{Tag: ServerEventTag(tag)}
	switch ev.Tag {
	case TagDisplay:
		ev.Frame = p.bytes()
	case TagStdoutOutput:
		ev.Stdout = p.bytes()
	case TagCommandOutput, TagRequest:
		ev.CommandText = p.str()
	default:
		return ServerEvent{}, fmt.Errorf("session: invalid server event tag %d", tag)
	}
	return ev, nil
}
