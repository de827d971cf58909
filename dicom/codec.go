package dicom

import (
	"encoding/binary"
)

// undefinedLength is the length-field sentinel (0xFFFFFFFF) marking a
// sequence or item that is delimiter-terminated instead of length-prefixed.
const undefinedLength uint32 = 0xFFFFFFFF

// canonicalDefinedLengthCeiling is the size under which Encode prefers the
// defined-length sequence form; above it, Encode emits the undefined-length
// delimiter form instead (spec §4.1, "canonical form").
const canonicalDefinedLengthCeiling = 64 * 1024

func byteOrder(ts TransferSyntax) binary.ByteOrder {
	if ts.Endian == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Encode serializes ds under ts, choosing the canonical sequence framing
// (defined-length for items totaling <= 64KB, undefined-length otherwise)
// unless an element already carries UndefinedLength, in which case that
// choice is preserved.
func Encode(ds *DataSet, ts TransferSyntax) ([]byte, error) {
	var buf []byte
	for _, e := range ds.Elements() {
		encoded, err := EncodeElement(e, ts)
		if err != nil {
			return nil, err
		}
		buf = append(buf, encoded...)
	}
	return buf, nil
}

// EncodeElement serializes a single element per ts's encoding/endian rules.
func EncodeElement(e *Element, ts TransferSyntax) ([]byte, error) {
	bo := byteOrder(ts)
	var buf []byte
	buf = appendTag(buf, bo, e.Tag)

	if e.VR == "SQ" {
		body, err := encodeSequenceBody(e, ts)
		if err != nil {
			return nil, err
		}
		return appendHeaderAndBody(buf, bo, ts, "SQ", body, e.UndefinedLength)
	}

	value := e.Value
	if ts.Endian == BigEndian {
		swapped, err := SwapToBigEndian(e.VR, value)
		if err != nil {
			return nil, err
		}
		value = swapped
	}
	return appendHeaderAndBody(buf, bo, ts, e.VR, value, false)
}

func appendTag(buf []byte, bo binary.ByteOrder, tag Tag) []byte {
	b := make([]byte, 4)
	bo.PutUint16(b[0:2], tag.Group)
	bo.PutUint16(b[2:4], tag.Element)
	return append(buf, b...)
}

func appendHeaderAndBody(buf []byte, bo binary.ByteOrder, ts TransferSyntax, vr string, body []byte, undefined bool) ([]byte, error) {
	length := uint32(len(body))
	if undefined {
		length = undefinedLength
	}
	if ts.Encoding == ImplicitVR {
		lb := make([]byte, 4)
		bo.PutUint32(lb, length)
		buf = append(buf, lb...)
		return append(buf, body...), nil
	}

	buf = append(buf, vr[0], vr[1])
	if IsLongFormVR(vr) {
		buf = append(buf, 0, 0) // reserved
		lb := make([]byte, 4)
		bo.PutUint32(lb, length)
		buf = append(buf, lb...)
	} else {
		if length > 0xFFFF {
			return nil, newInvalidLengthError(vr, int(length), 0xFFFF)
		}
		lb := make([]byte, 2)
		bo.PutUint16(lb, uint16(length))
		buf = append(buf, lb...)
	}
	return append(buf, body...), nil
}

func encodeSequenceBody(e *Element, ts TransferSyntax) ([]byte, error) {
	bo := byteOrder(ts)
	var items [][]byte
	total := 0
	for _, item := range e.Items {
		body, err := Encode(item, ts)
		if err != nil {
			return nil, err
		}
		items = append(items, body)
		total += len(body) + 8 // item tag(4)+length(4)
	}

	useUndefined := e.UndefinedLength || total > canonicalDefinedLengthCeiling

	var out []byte
	for _, body := range items {
		out = appendTag(out, bo, itemTag)
		lb := make([]byte, 4)
		if useUndefined {
			bo.PutUint32(lb, undefinedLength)
			out = append(out, lb...)
			out = append(out, body...)
			out = appendTag(out, bo, itemDelimTag)
			out = append(out, 0, 0, 0, 0)
		} else {
			bo.PutUint32(lb, uint32(len(body)))
			out = append(out, lb...)
			out = append(out, body...)
		}
	}
	if useUndefined {
		out = appendTag(out, bo, sequenceDelimTag)
		out = append(out, 0, 0, 0, 0)
		e.UndefinedLength = true
	}
	return out, nil
}

// Decode parses data into a data set under ts. Any structural failure
// (truncated length prefix, reserved bytes nonzero, unknown VR ASCII,
// numeric value violating its fixed size) returns a structured error and
// the cursor is not advanced past the malformed element — the returned
// data set holds everything decoded before it.
func Decode(data []byte, ts TransferSyntax) (*DataSet, error) {
	ds := NewDataSet()
	cur := cursor{data: data, ts: ts}
	for cur.remaining() > 0 {
		if cur.remaining() < 8 {
			return ds, newTruncatedError("element header")
		}
		e, err := decodeOneElement(&cur)
		if err != nil {
			return ds, err
		}
		ds.Add(e)
	}
	return ds, nil
}

// DecodeElement decodes a single element starting at data's current
// position, returning the element and the number of bytes consumed.
func DecodeElement(data []byte, ts TransferSyntax) (*Element, int, error) {
	cur := cursor{data: data, ts: ts}
	e, err := decodeOneElement(&cur)
	if err != nil {
		return nil, 0, err
	}
	return e, cur.pos, nil
}

type cursor struct {
	data []byte
	pos  int
	ts   TransferSyntax
}

func (c *cursor) remaining() int { return len(c.data) - c.pos }

func decodeOneElement(c *cursor) (*Element, error) {
	bo := byteOrder(c.ts)
	tag := Tag{
		Group:   bo.Uint16(c.data[c.pos : c.pos+2]),
		Element: bo.Uint16(c.data[c.pos+2 : c.pos+4]),
	}
	c.pos += 4

	var vr string
	var length uint32

	if c.ts.Encoding == ImplicitVR {
		if c.remaining() < 4 {
			return nil, newTruncatedError("implicit VR length field")
		}
		length = bo.Uint32(c.data[c.pos : c.pos+4])
		c.pos += 4
		vr = VRForTag(tag)
		if tag == itemTag || tag == itemDelimTag || tag == sequenceDelimTag {
			vr = "NONE"
		}
	} else {
		if c.remaining() < 2 {
			return nil, newTruncatedError("VR field")
		}
		vr = string(c.data[c.pos : c.pos+2])
		c.pos += 2
		if _, ok := LookupVR(vr); !ok && vr != "NONE" {
			return nil, newUnknownVRError(vr)
		}
		if IsLongFormVR(vr) {
			if c.remaining() < 6 {
				return nil, newTruncatedError("extended VR header")
			}
			reserved := c.data[c.pos : c.pos+2]
			if reserved[0] != 0 || reserved[1] != 0 {
				return nil, newMalformedError("reserved bytes in extended VR header are non-zero")
			}
			c.pos += 2
			length = bo.Uint32(c.data[c.pos : c.pos+4])
			c.pos += 4
		} else {
			if c.remaining() < 2 {
				return nil, newTruncatedError("short VR length field")
			}
			length = uint32(bo.Uint16(c.data[c.pos : c.pos+2]))
			c.pos += 2
		}
	}

	if vr == "SQ" {
		return decodeSequence(c, tag, length)
	}

	if length == undefinedLength {
		return nil, newMalformedError("undefined length on a non-sequence element")
	}
	if c.remaining() < int(length) {
		return nil, newTruncatedError("element value")
	}
	value := c.data[c.pos : c.pos+int(length)]
	c.pos += int(length)

	if c.ts.Endian == BigEndian {
		swapped, err := SwapFromBigEndian(vr, value)
		if err != nil {
			return nil, err
		}
		value = swapped
	}

	if ok, _ := LookupVR(vr); vr != "NONE" {
		_ = ok
		if err := ValidateValue(vr, value); err != nil {
			return nil, err
		}
	}

	return &Element{Tag: tag, VR: vr, Value: value}, nil
}

func decodeSequence(c *cursor, tag Tag, length uint32) (*Element, error) {
	e := &Element{Tag: tag, VR: "SQ"}
	bo := byteOrder(c.ts)

	if length == undefinedLength {
		e.UndefinedLength = true
		for {
			if c.remaining() < 8 {
				return nil, newTruncatedError("sequence delimiter")
			}
			itag := Tag{
				Group:   bo.Uint16(c.data[c.pos : c.pos+2]),
				Element: bo.Uint16(c.data[c.pos+2 : c.pos+4]),
			}
			ilen := bo.Uint32(c.data[c.pos+4 : c.pos+8])
			c.pos += 8
			if itag == sequenceDelimTag {
				break
			}
			if itag != itemTag {
				return nil, newMalformedError("expected sequence item tag")
			}
			item, err := decodeItem(c, ilen)
			if err != nil {
				return nil, err
			}
			e.Items = append(e.Items, item)
		}
		return e, nil
	}

	end := c.pos + int(length)
	if end > len(c.data) {
		return nil, newTruncatedError("sequence body")
	}
	for c.pos < end {
		if c.remaining() < 8 {
			return nil, newTruncatedError("sequence item header")
		}
		itag := Tag{
			Group:   bo.Uint16(c.data[c.pos : c.pos+2]),
			Element: bo.Uint16(c.data[c.pos+2 : c.pos+4]),
		}
		ilen := bo.Uint32(c.data[c.pos+4 : c.pos+8])
		c.pos += 8
		if itag != itemTag {
			return nil, newMalformedError("expected sequence item tag")
		}
		item, err := decodeItem(c, ilen)
		if err != nil {
			return nil, err
		}
		e.Items = append(e.Items, item)
	}
	return e, nil
}

func decodeItem(c *cursor, length uint32) (*DataSet, error) {
	if length == undefinedLength {
		ds := NewDataSet()
		bo := byteOrder(c.ts)
		for {
			if c.remaining() < 8 {
				return nil, newTruncatedError("item delimiter")
			}
			// Peek the next tag without consuming it: decodeOneElement
			// needs to see item-delimiter tags itself, since a nested
			// undefined-length sequence inside this item must be parsed
			// recursively rather than skipped by raw length.
			itag := Tag{
				Group:   bo.Uint16(c.data[c.pos : c.pos+2]),
				Element: bo.Uint16(c.data[c.pos+2 : c.pos+4]),
			}
			if itag == itemDelimTag {
				c.pos += 8
				return ds, nil
			}
			e, err := decodeOneElement(c)
			if err != nil {
				return nil, err
			}
			ds.Add(e)
		}
	}
	if c.remaining() < int(length) {
		return nil, newTruncatedError("item body")
	}
	body := c.data[c.pos : c.pos+int(length)]
	c.pos += int(length)
	return Decode(body, c.ts)
}
