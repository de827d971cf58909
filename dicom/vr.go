package dicom

import "regexp"

// Value Representation codes in common use across DIMSE command and
// identifier datasets. Not exhaustive — see vrTable for the full registry.
const (
	VR_AE = "AE" // Application Entity
	VR_AS = "AS" // Age String
	VR_CS = "CS" // Code String
	VR_DA = "DA" // Date
	VR_DS = "DS" // Decimal String
	VR_IS = "IS" // Integer String
	VR_LO = "LO" // Long String
	VR_PN = "PN" // Person Name
	VR_SH = "SH" // Short String
	VR_SQ = "SQ" // Sequence of Items
	VR_TM = "TM" // Time
	VR_UI = "UI" // Unique Identifier
	VR_US = "US" // Unsigned Short
)

// VRInfo is the static metadata for one DICOM Value Representation: its
// padding discipline, length ceiling and (for fixed-size binary VRs) the
// element width validate_value enforces.
type VRInfo struct {
	VR            string
	MaxLength     uint32 // 0 means unbounded (long-form 4-byte length field)
	PadChar       byte
	IsFixedLength bool
	FixedSize     int  // byte width per value when IsFixedLength
	IsLongForm    bool // uses the 12-byte extended header (reserved(2)+length(4))
	charset       *regexp.Regexp
}

// padding characters per DICOM PS3.5 6.2
const (
	padSpace = ' '
	padNul   = 0x00
)

// vrTable is keyed by the two-letter VR code. Long-form VRs are OB, OD, OF,
// OL, OV, OW, SQ, SV, UC, UR, UT, UN, UV (explicit VR 12-byte header with a 4-byte
// length); everything else uses the 8-byte short-form header.
var vrTable = map[string]VRInfo{
	"AE": {VR: "AE", MaxLength: 16, PadChar: padSpace},
	"AS": {VR: "AS", MaxLength: 4, PadChar: padSpace, IsFixedLength: true, FixedSize: 4, charset: regexp.MustCompile(`^\d{3}[DWMY]$`)},
	"AT": {VR: "AT", MaxLength: 4, PadChar: padSpace, IsFixedLength: true, FixedSize: 4},
	"CS": {VR: "CS", MaxLength: 16, PadChar: padSpace, charset: regexp.MustCompile(`^[A-Z0-9 _\\]*$`)},
	"DA": {VR: "DA", MaxLength: 8, PadChar: padSpace, IsFixedLength: true, FixedSize: 8, charset: regexp.MustCompile(`^\d{8}$`)},
	"DS": {VR: "DS", MaxLength: 16, PadChar: padSpace, charset: regexp.MustCompile(`^[0-9+\-.Ee \\]*$`)},
	"DT": {VR: "DT", MaxLength: 26, PadChar: padSpace},
	"FL": {VR: "FL", MaxLength: 4, PadChar: padNul, IsFixedLength: true, FixedSize: 4},
	"FD": {VR: "FD", MaxLength: 8, PadChar: padNul, IsFixedLength: true, FixedSize: 8},
	"IS": {VR: "IS", MaxLength: 12, PadChar: padSpace, charset: regexp.MustCompile(`^[0-9+\-ec \\]*$`)},
	"LO": {VR: "LO", MaxLength: 64, PadChar: padSpace},
	"LT": {VR: "LT", MaxLength: 10240, PadChar: padSpace},
	"OB": {VR: "OB", MaxLength: 0, PadChar: padNul, IsLongForm: true},
	"OD": {VR: "OD", MaxLength: 0, PadChar: padNul, IsLongForm: true, IsFixedLength: true, FixedSize: 8},
	"OF": {VR: "OF", MaxLength: 0, PadChar: padNul, IsLongForm: true, IsFixedLength: true, FixedSize: 4},
	"OL": {VR: "OL", MaxLength: 0, PadChar: padNul, IsLongForm: true, IsFixedLength: true, FixedSize: 4},
	"OV": {VR: "OV", MaxLength: 0, PadChar: padNul, IsLongForm: true, IsFixedLength: true, FixedSize: 8},
	"OW": {VR: "OW", MaxLength: 0, PadChar: padNul, IsLongForm: true, IsFixedLength: true, FixedSize: 2},
	"PN": {VR: "PN", MaxLength: 64 * 3, PadChar: padSpace},
	"SH": {VR: "SH", MaxLength: 16, PadChar: padSpace},
	"SL": {VR: "SL", MaxLength: 4, PadChar: padNul, IsFixedLength: true, FixedSize: 4},
	"SQ": {VR: "SQ", MaxLength: 0, PadChar: padNul, IsLongForm: true},
	"SS": {VR: "SS", MaxLength: 2, PadChar: padNul, IsFixedLength: true, FixedSize: 2},
	"ST": {VR: "ST", MaxLength: 1024, PadChar: padSpace},
	"SV": {VR: "SV", MaxLength: 0, PadChar: padNul, IsLongForm: true, IsFixedLength: true, FixedSize: 8},
	"TM": {VR: "TM", MaxLength: 14, PadChar: padSpace, charset: regexp.MustCompile(`^[\d.:]*$`)},
	"UC": {VR: "UC", MaxLength: 0, PadChar: padSpace, IsLongForm: true},
	"UI": {VR: "UI", MaxLength: 64, PadChar: padNul, charset: regexp.MustCompile(`^[\d.]*$`)},
	"UL": {VR: "UL", MaxLength: 4, PadChar: padNul, IsFixedLength: true, FixedSize: 4},
	"UN": {VR: "UN", MaxLength: 0, PadChar: padNul, IsLongForm: true},
	"UR": {VR: "UR", MaxLength: 0, PadChar: padSpace, IsLongForm: true},
	"US": {VR: "US", MaxLength: 2, PadChar: padNul, IsFixedLength: true, FixedSize: 2},
	"UT": {VR: "UT", MaxLength: 0, PadChar: padSpace, IsLongForm: true},
	"UV": {VR: "UV", MaxLength: 0, PadChar: padNul, IsLongForm: true, IsFixedLength: true, FixedSize: 8},
}

// textCharsetRe covers LO/LT/PN/SH/ST/UC/UR/UT: printable plus CR/LF/FF/TAB.
var textCharsetRe = regexp.MustCompile(`^[\x20-\x7E\r\n\f\t]*$`)

var textVRs = map[string]bool{
	"LO": true, "LT": true, "PN": true, "SH": true, "ST": true,
	"UC": true, "UR": true, "UT": true,
}

// LookupVR returns the static metadata for a two-letter VR code.
func LookupVR(vr string) (VRInfo, bool) {
	info, ok := vrTable[vr]
	return info, ok
}

// IsLongFormVR reports whether vr uses the extended (12-byte header,
// 4-byte length) explicit-VR element layout.
func IsLongFormVR(vr string) bool {
	info, ok := vrTable[vr]
	return ok && info.IsLongForm
}

// ValidateValue enforces the VR's size and charset discipline on a raw
// (already-decoded, not yet padding-stripped) value buffer.
func ValidateValue(vr string, value []byte) error {
	info, ok := vrTable[vr]
	if !ok {
		return newUnknownVRError(vr)
	}
	if info.IsFixedLength && info.FixedSize > 0 && len(value)%info.FixedSize != 0 {
		return newInvalidLengthError(vr, len(value), info.FixedSize)
	}
	if info.charset != nil && !info.charset.Match(value) {
		return newCharsetViolationError(vr, value)
	}
	if textVRs[vr] && !textCharsetRe.Match(value) {
		return newCharsetViolationError(vr, value)
	}
	return nil
}

// PadToEven appends the VR's padding character if value has odd length.
// Idempotent: calling it twice in a row on an already-even-length value is
// a no-op, satisfying the pad_to_even(pad_to_even(b)) == pad_to_even(b)
// property.
func PadToEven(vr string, value []byte) []byte {
	if len(value)%2 == 0 {
		return value
	}
	pad := byte(padSpace)
	if info, ok := vrTable[vr]; ok {
		pad = info.PadChar
	}
	out := make([]byte, len(value)+1)
	copy(out, value)
	out[len(value)] = pad
	return out
}

// TrimPadding strips the VR's single trailing padding character, if
// present. Only the padding char is removed, and only from the right.
func TrimPadding(vr string, value []byte) []byte {
	if len(value) == 0 {
		return value
	}
	pad := byte(padSpace)
	if info, ok := vrTable[vr]; ok {
		pad = info.PadChar
	}
	if value[len(value)-1] == pad {
		return value[:len(value)-1]
	}
	return value
}
