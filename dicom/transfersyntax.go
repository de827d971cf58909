package dicom

import "github.com/caio-sobreiro/pacs/types"

// Encoding distinguishes Implicit VR (VR absent from the wire, looked up
// from the dictionary) from Explicit VR (VR present on the wire).
type Encoding int

const (
	ImplicitVR Encoding = iota
	ExplicitVR
)

// ByteOrder distinguishes the two endiannesses a transfer syntax may use.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// TransferSyntax is the (encoding, endian, pixel compression UID) tuple the
// codec selects its byte-swap policy and length-field discipline from.
type TransferSyntax struct {
	UID                 string
	Encoding            Encoding
	Endian              ByteOrder
	PixelCompressionUID string // "" for uncompressed; the transfer syntax UID itself for compressed forms
}

// StreamCodec wraps a deflate/inflate pair for transfer syntaxes whose wire
// form is a compressed byte stream (currently only Deflated Explicit VR
// Little Endian). It is injected rather than built into the codec, per the
// Open Question in spec.md §9.
type StreamCodec interface {
	Decompress(data []byte) ([]byte, error)
	Compress(data []byte) ([]byte, error)
}

// TransferSyntaxFor resolves a transfer syntax UID to its codec-relevant
// tuple. Unknown UIDs are treated as Explicit VR Little Endian, matching
// the teacher's historical fallback for best-effort interop.
func TransferSyntaxFor(uid string) TransferSyntax {
	switch uid {
	case types.ImplicitVRLittleEndian, "":
		return TransferSyntax{UID: types.ImplicitVRLittleEndian, Encoding: ImplicitVR, Endian: LittleEndian}
	case types.ExplicitVRLittleEndian:
		return TransferSyntax{UID: types.ExplicitVRLittleEndian, Encoding: ExplicitVR, Endian: LittleEndian}
	case types.ExplicitVRBigEndian:
		return TransferSyntax{UID: types.ExplicitVRBigEndian, Encoding: ExplicitVR, Endian: BigEndian}
	case types.DeflatedExplicitVRLittleEndian:
		return TransferSyntax{
			UID: types.DeflatedExplicitVRLittleEndian, Encoding: ExplicitVR, Endian: LittleEndian,
			PixelCompressionUID: types.DeflatedExplicitVRLittleEndian,
		}
	default:
		return TransferSyntax{UID: uid, Encoding: ExplicitVR, Endian: LittleEndian, PixelCompressionUID: uid}
	}
}

// IsDeflated reports whether ts's wire form is deflate-compressed.
func (ts TransferSyntax) IsDeflated() bool {
	return ts.PixelCompressionUID == types.DeflatedExplicitVRLittleEndian
}
