package random

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
)

// Encoding names how random bytes are rendered as text.
type Encoding string

const (
	Hex       Encoding = "hex"
	Base64    Encoding = "base64"
	Base64URL Encoding = "base64url"
	Raw       Encoding = "raw"
)

// ParseEncoding maps a user supplied name onto an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch enc := Encoding(name); enc {
	case Hex, Base64, Base64URL, Raw:
		return enc, nil
	case "":
		return Hex, nil
	default:
		return "", kerrors.Newf(kerrors.ErrInvalidArgument, "unknown encoding %q", name)
	}
}

// Source draws cryptographically secure bytes from an entropy reader.
// A Source is safe for concurrent use if its reader is.
type Source struct {
	r io.Reader
}

// Default reads from crypto/rand.
var Default = New(rand.Reader)

// New wraps r. Tests pass failing readers here.
func New(r io.Reader) *Source {
	return &Source{r: r}
}

// Read returns n fresh random bytes. A reader failure is returned with its
// message unchanged.
func (s *Source) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, kerrors.Newf(kerrors.ErrInvalidArgument, "byte count must be non-negative, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, kerrors.New(kerrors.ErrRandomGeneration, err)
	}
	return buf, nil
}

// Reader exposes the source as an io.Reader for crypto APIs that want one.
// Read failures are tagged ErrRandomGeneration.
func (s *Source) Reader() io.Reader {
	return taggedReader{s.r}
}

type taggedReader struct {
	r io.Reader
}

func (t taggedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		err = kerrors.New(kerrors.ErrRandomGeneration, err)
	}
	return n, err
}

// Bytes returns n random bytes rendered with enc. Hex output is 2n characters long.
func (s *Source) Bytes(n int, enc Encoding) (string, error) {
	buf, err := s.Read(n)
	if err != nil {
		return "", err
	}

	switch enc {
	case Hex, "":
		return hex.EncodeToString(buf), nil
	case Base64:
		return base64.StdEncoding.EncodeToString(buf), nil
	case Base64URL:
		return base64.RawURLEncoding.EncodeToString(buf), nil
	case Raw:
		return string(buf), nil
	default:
		return "", kerrors.Newf(kerrors.ErrInvalidArgument, "unknown encoding %q", enc)
	}
}
