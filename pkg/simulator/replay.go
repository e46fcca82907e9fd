package simulator

import "io"

// Replay serves a fixed byte stream through the byte-at-a-time interface the
// telegram acquirer reads from. Once drained it reports no data available.
type Replay struct {
	data []byte
	pos  int
}

func NewReplay(chunks ...[]byte) *Replay {
	r := &Replay{}
	for _, c := range chunks {
		r.data = append(r.data, c...)
	}
	return r
}

func (r *Replay) Available() bool {
	return r.pos < len(r.data)
}

func (r *Replay) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// Feed appends more bytes to the stream.
func (r *Replay) Feed(b []byte) {
	r.data = append(r.data, b...)
}

// Remaining returns the number of unread bytes.
func (r *Replay) Remaining() int {
	return len(r.data) - r.pos
}
