package storage

import (
	"bytes"
	"io"

	regapp "github.com/familyreg/backend/internal/application/registration"
)

// progressReader reports bytes read from an in-memory body. It stays seekable so
// the SDK can rewind for signing and retries; reports never move backwards.
type progressReader struct {
	r        *bytes.Reader
	total    int64
	reported int64
	fn       regapp.ProgressFunc
}

func newProgressReader(data []byte, fn regapp.ProgressFunc) *progressReader {
	return &progressReader{r: bytes.NewReader(data), total: int64(len(data)), fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.report(p.total - int64(p.r.Len()))
	}
	return n, err
}

func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	return p.r.Seek(offset, whence)
}

// finish reports completion for bodies the transport consumed without a final read
func (p *progressReader) finish() {
	p.report(p.total)
}

func (p *progressReader) report(pos int64) {
	if p.fn == nil || pos <= p.reported {
		return
	}
	p.reported = pos
	p.fn(pos, p.total)
}

var _ io.ReadSeeker = (*progressReader)(nil)
