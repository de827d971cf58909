package dicom

import (
	"bytes"
	"testing"

	"github.com/caio-sobreiro/pacs/types"
)

// Scenario A from the spec: decode/encode Explicit VR LE PatientName.
func TestDecodeEncode_ExplicitVRLE_PatientName(t *testing.T) {
	input := []byte{
		0x10, 0x00, 0x10, 0x00, // tag (0010,0010)
		0x50, 0x4E, // VR "PN"
		0x08, 0x00, // length 8
		0x44, 0x4F, 0x45, 0x5E, 0x4A, 0x4F, 0x48, 0x4E, // "DOE^JOHN"
	}
	ts := TransferSyntaxFor(types.ExplicitVRLittleEndian)

	ds, err := Decode(input, ts)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ds.Len() != 1 {
		t.Fatalf("expected 1 element, got %d", ds.Len())
	}
	e, ok := ds.Get(Tag{0x0010, 0x0010})
	if !ok {
		t.Fatal("missing PatientName element")
	}
	if e.VR != "PN" || e.String() != "DOE^JOHN" {
		t.Fatalf("got VR=%s value=%q", e.VR, e.String())
	}

	out, err := Encode(ds, ts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Fatalf("round-trip mismatch:\n got  %X\n want %X", out, input)
	}
}

// Scenario B from the spec: OW endian swap, 16-bit stride.
func TestSwapToBigEndian_OW(t *testing.T) {
	in := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	want := []byte{0x01, 0x00, 0x03, 0x02, 0x05, 0x04, 0x07, 0x06}

	got, err := SwapToBigEndian("OW", in)
	if err != nil {
		t.Fatalf("SwapToBigEndian: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %X want %X", got, want)
	}
}

// Property 2: endian involution.
func TestSwapEndianInvolution(t *testing.T) {
	vrs := []string{"US", "SS", "UL", "SL", "FL", "FD", "AT", "OW", "OL", "OD"}
	for _, vr := range vrs {
		stride, _ := strideFor(vr)
		if stride == 0 {
			stride = 2
		}
		buf := make([]byte, stride*4)
		for i := range buf {
			buf[i] = byte(i*31 + 7)
		}
		swapped, err := SwapToBigEndian(vr, buf)
		if err != nil {
			t.Fatalf("%s: SwapToBigEndian: %v", vr, err)
		}
		back, err := SwapFromBigEndian(vr, swapped)
		if err != nil {
			t.Fatalf("%s: SwapFromBigEndian: %v", vr, err)
		}
		if !bytes.Equal(back, buf) {
			t.Fatalf("%s: involution failed: got %X want %X", vr, back, buf)
		}
	}
}

// Property 3: padding idempotence.
func TestPadToEvenIdempotent(t *testing.T) {
	cases := []struct {
		vr    string
		value []byte
	}{
		{"PN", []byte("DOE^JOHN")},
		{"PN", []byte("DOE^J")},
		{"UI", []byte("1.2.840.10008.1.2")},
		{"UI", []byte("1.2.840.10008.1.2.1")},
	}
	for _, c := range cases {
		once := PadToEven(c.vr, c.value)
		twice := PadToEven(c.vr, once)
		if !bytes.Equal(once, twice) {
			t.Fatalf("%s: PadToEven not idempotent: once=%q twice=%q", c.vr, once, twice)
		}
		if len(twice)%2 != 0 {
			t.Fatalf("%s: padded value still odd length", c.vr)
		}
	}
}

// Property 1: codec round trip across the three uncompressed transfer
// syntaxes (the deflated one is covered by TestPart10_DeflatedTransferSyntax).
func TestRoundTripAllTransferSyntaxes(t *testing.T) {
	uids := []string{
		types.ImplicitVRLittleEndian,
		types.ExplicitVRLittleEndian,
		types.ExplicitVRBigEndian,
	}
	for _, uid := range uids {
		ts := TransferSyntaxFor(uid)
		ds := sampleDataset()
		encoded, err := Encode(ds, ts)
		if err != nil {
			t.Fatalf("%s: Encode: %v", uid, err)
		}
		decoded, err := Decode(encoded, ts)
		if err != nil {
			t.Fatalf("%s: Decode: %v", uid, err)
		}
		if !ds.Equal(decoded) {
			t.Fatalf("%s: round trip mismatch", uid)
		}
	}
}

func sampleDataset() *DataSet {
	ds := NewDataSet()
	ds.AddString(Tag{0x0010, 0x0010}, "PN", "DOE^JOHN")
	ds.AddString(Tag{0x0020, 0x000D}, "UI", "1.2.840.10008.1.1")
	ds.Add(NewElement(Tag{0x0028, 0x0010}, "US", []byte{0x00, 0x02}))
	item := NewDataSet()
	item.AddString(Tag{0x0008, 0x0100}, "SH", "113000")
	ds.Add(NewSequenceElement(Tag{0x0040, 0xA730}, []*DataSet{item}))
	return ds
}

func TestDecode_TruncatedInputDoesNotPanic(t *testing.T) {
	ts := TransferSyntaxFor(types.ExplicitVRLittleEndian)
	_, err := Decode([]byte{0x10, 0x00, 0x10, 0x00, 0x50}, ts)
	if err == nil {
		t.Fatal("expected truncated error")
	}
}

func TestDecode_UnknownVR(t *testing.T) {
	ts := TransferSyntaxFor(types.ExplicitVRLittleEndian)
	data := []byte{0x10, 0x00, 0x10, 0x00, 'Z', 'Z', 0x00, 0x00}
	_, err := Decode(data, ts)
	if err == nil {
		t.Fatal("expected unknown VR error")
	}
}

func TestValidateValue_FixedSizeViolation(t *testing.T) {
	if err := ValidateValue("US", []byte{0x01}); err == nil {
		t.Fatal("expected invalid_length error for odd US value")
	}
}

func TestSequence_DefinedAndUndefinedLengthDecodeIdentically(t *testing.T) {
	ts := TransferSyntaxFor(types.ExplicitVRLittleEndian)
	ds := sampleDataset()
	defined, err := Encode(ds, ts)
	if err != nil {
		t.Fatal(err)
	}

	// Force undefined-length framing by marking the sequence element.
	seqElem, _ := ds.Get(Tag{0x0040, 0xA730})
	seqElem.UndefinedLength = true
	undefined, err := Encode(ds, ts)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(defined, undefined) {
		t.Fatal("expected different wire bytes for defined vs undefined length framing")
	}

	d1, err := Decode(defined, ts)
	if err != nil {
		t.Fatalf("decode defined: %v", err)
	}
	d2, err := Decode(undefined, ts)
	if err != nil {
		t.Fatalf("decode undefined: %v", err)
	}
	if !d1.Equal(d2) {
		t.Fatal("defined and undefined length forms decoded to different data sets")
	}
}
