// Package transcode implements the external stream-codec collaborator the
// spec's Open Questions call for: Deflated Explicit VR Little Endian is
// named by transfer syntax UID in the codec, but compression itself is a
// plug-in. DeflateCodec is that plug-in, built on klauspost/compress/flate
// the way arloliu/mebo builds its blob compression on the same module's
// zstd/lz4 siblings.
package transcode

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// DeflateCodec implements dicom.StreamCodec using raw DEFLATE, matching
// DICOM's "Deflated Explicit VR Little Endian" transfer syntax (PS3.5
// Annex A.5), which specifies a zlib-style deflate stream with no gzip or
// zlib framing around it.
type DeflateCodec struct {
	Level int // flate.DefaultCompression if zero
}

// Decompress inflates a raw deflate stream.
func (c DeflateCodec) Decompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}

// Compress deflates data at the configured level.
func (c DeflateCodec) Compress(data []byte) ([]byte, error) {
	level := c.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
