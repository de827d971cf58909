package dicom

import (
	"bytes"
	"fmt"

	"github.com/caio-sobreiro/pacs/types"
)

const (
	preambleSize  = 128
	magicPrefix   = "DICM"
	part10MinSize = preambleSize + len(magicPrefix)
)

// FileMetaInfo carries the group-0002 elements every Part 10 file starts
// with; these are always Explicit VR Little Endian regardless of the
// dataset's own transfer syntax.
type FileMetaInfo struct {
	MediaStorageSOPClassUID    string
	MediaStorageSOPInstanceUID string
	TransferSyntaxUID          string
	ImplementationClassUID     string
}

// File is a parsed DICOM Part 10 file: its meta header plus the dataset
// decoded under the transfer syntax the meta header names.
type File struct {
	Meta    FileMetaInfo
	Dataset *DataSet
}

// HasPart10Header reports whether data starts with the 128-byte preamble
// followed by the "DICM" magic prefix.
func HasPart10Header(data []byte) bool {
	if len(data) < part10MinSize {
		return false
	}
	return string(data[preambleSize:part10MinSize]) == magicPrefix
}

// DecodeFile parses a complete Part 10 file: preamble, magic, file meta
// information (always Explicit VR LE), then the dataset under the
// transfer syntax named by (0002,0010). codec is consulted only when the
// named transfer syntax is deflated; pass nil if the caller never expects
// deflated input.
func DecodeFile(data []byte, codec StreamCodec) (*File, error) {
	if !HasPart10Header(data) {
		return nil, newMalformedError("missing 128-byte preamble / DICM magic")
	}
	offset := part10MinSize

	metaTS := TransferSyntax{UID: types.ExplicitVRLittleEndian, Encoding: ExplicitVR, Endian: LittleEndian}
	metaCur := cursor{data: data, pos: offset, ts: metaTS}

	meta := FileMetaInfo{}
	// The group length element (0002,0000) tells us exactly how many bytes
	// of meta information follow; without it we'd have to guess where the
	// dataset starts by group number, which is fragile under private/odd
	// elements. We still tolerate its absence by falling back to
	// group-boundary detection.
	groupLengthKnown := false
	var metaEnd int

	for metaCur.remaining() > 0 {
		if groupLengthKnown && metaCur.pos >= metaEnd {
			break
		}
		if metaCur.remaining() < 8 {
			break
		}
		bo := byteOrder(metaTS)
		group := bo.Uint16(data[metaCur.pos : metaCur.pos+2])
		if group != 0x0002 {
			break
		}
		e, err := decodeOneElement(&metaCur)
		if err != nil {
			return nil, fmt.Errorf("file meta information: %w", err)
		}
		switch e.Tag {
		case Tag{0x0002, 0x0000}:
			if len(e.Value) >= 4 {
				groupLength := bo.Uint32(e.Value[:4])
				metaEnd = metaCur.pos + int(groupLength)
				groupLengthKnown = true
			}
		case Tag{0x0002, 0x0002}:
			meta.MediaStorageSOPClassUID = e.String()
		case Tag{0x0002, 0x0003}:
			meta.MediaStorageSOPInstanceUID = e.String()
		case Tag{0x0002, 0x0010}:
			meta.TransferSyntaxUID = e.String()
		case Tag{0x0002, 0x0012}:
			meta.ImplementationClassUID = e.String()
		}
	}

	if meta.TransferSyntaxUID == "" {
		return nil, newMalformedError("file meta information missing Transfer Syntax UID")
	}

	body := data[metaCur.pos:]
	ts := TransferSyntaxFor(meta.TransferSyntaxUID)
	if ts.IsDeflated() {
		if codec == nil {
			return nil, newMalformedError("deflated transfer syntax requires a StreamCodec")
		}
		decompressed, err := codec.Decompress(body)
		if err != nil {
			return nil, fmt.Errorf("inflating deflated dataset: %w", err)
		}
		body = decompressed
	}

	ds, err := Decode(body, ts)
	if err != nil {
		return nil, err
	}
	return &File{Meta: meta, Dataset: ds}, nil
}

// EncodeFile serializes a File back into Part 10 form: a zero preamble,
// the DICM magic, the Explicit-VR-LE file meta group, then the dataset
// under the transfer syntax named in f.Meta.
func EncodeFile(f *File, codec StreamCodec) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(make([]byte, preambleSize))
	buf.WriteString(magicPrefix)

	metaTS := TransferSyntax{UID: types.ExplicitVRLittleEndian, Encoding: ExplicitVR, Endian: LittleEndian}
	metaDS := NewDataSet()
	metaDS.AddString(Tag{0x0002, 0x0002}, "UI", f.Meta.MediaStorageSOPClassUID)
	metaDS.AddString(Tag{0x0002, 0x0003}, "UI", f.Meta.MediaStorageSOPInstanceUID)
	metaDS.AddString(Tag{0x0002, 0x0010}, "UI", f.Meta.TransferSyntaxUID)
	if f.Meta.ImplementationClassUID != "" {
		metaDS.AddString(Tag{0x0002, 0x0012}, "UI", f.Meta.ImplementationClassUID)
	}
	metaBody, err := Encode(metaDS, metaTS)
	if err != nil {
		return nil, err
	}
	groupLengthElem := NewElement(Tag{0x0002, 0x0000}, "UL", encodeUint32LE(uint32(len(metaBody))))
	groupLengthBytes, err := EncodeElement(groupLengthElem, metaTS)
	if err != nil {
		return nil, err
	}
	buf.Write(groupLengthBytes)
	buf.Write(metaBody)

	ts := TransferSyntaxFor(f.Meta.TransferSyntaxUID)
	datasetBytes, err := Encode(f.Dataset, ts)
	if err != nil {
		return nil, err
	}
	if ts.IsDeflated() {
		if codec == nil {
			return nil, newMalformedError("deflated transfer syntax requires a StreamCodec")
		}
		compressed, err := codec.Compress(datasetBytes)
		if err != nil {
			return nil, err
		}
		datasetBytes = compressed
	}
	buf.Write(datasetBytes)
	return buf.Bytes(), nil
}

func encodeUint32LE(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// StripPart10Header removes the preamble and file meta information,
// returning just the dataset bytes and the transfer syntax UID they are
// encoded in. This is what the DIMSE ingest path needs: C-STORE carries
// the bare dataset, not a Part 10 wrapper.
func StripPart10Header(data []byte, codec StreamCodec) ([]byte, string, error) {
	f, err := DecodeFile(data, codec)
	if err != nil {
		return nil, "", err
	}
	ts := TransferSyntaxFor(f.Meta.TransferSyntaxUID)
	body, err := Encode(f.Dataset, ts)
	if err != nil {
		return nil, "", err
	}
	return body, f.Meta.TransferSyntaxUID, nil
}
