// Package tagdict is the static DICOM data dictionary: for every well-known
// tag it knows the canonical VR, value multiplicity, keyword and human name.
// The codec consults it when decoding Implicit VR data (where the VR is not
// present on the wire).
package tagdict

import "fmt"

// Tag is a 32-bit DICOM tag split into its group/element halves.
type Tag struct {
	Group   uint16
	Element uint16
}

// String renders the tag in the conventional (GGGG,EEEE) form.
func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// Less orders tags ascending by group then element, the order data_set
// iteration and encoding must follow.
func (t Tag) Less(o Tag) bool {
	if t.Group != o.Group {
		return t.Group < o.Group
	}
	return t.Element < o.Element
}

// Multiplicity captures a VM pattern such as "1", "1-3", "1-n" or "2-2n".
type Multiplicity struct {
	Min int
	Max int // 0 means unbounded ("n")
	// Multiplier is the grouping factor for patterns like "2-2n" (groups of
	// Multiplier values, minimum Min, no fixed maximum).
	Multiplier int
}

// Entry is the static metadata for one well-known tag.
type Entry struct {
	Tag     Tag
	VR      string
	VM      Multiplicity
	Keyword string
	Name    string
	Retired bool
}

// private registry, populated by init from the compact table below.
var registry = make(map[Tag]Entry, len(standardTags))

func init() {
	for _, e := range standardTags {
		registry[e.Tag] = e
	}
}

// Lookup returns the static entry for tag, if the tag is in the dictionary.
func Lookup(tag Tag) (Entry, bool) {
	e, ok := registry[tag]
	return e, ok
}

// VRFor returns the canonical VR for tag, defaulting to "UN" (unknown) for
// tags outside the dictionary (including private groups, which this
// dictionary never carries).
func VRFor(tag Tag) string {
	if e, ok := registry[tag]; ok {
		return e.VR
	}
	return "UN"
}

// IsPrivate reports whether a tag's group number is odd, the DICOM
// convention for implementer-reserved ("private") elements.
func IsPrivate(tag Tag) bool {
	return tag.Group%2 == 1
}

// standardTags is a working subset of PS3.6's registry: enough of the
// commonly queried and exchanged attributes for the hierarchy levels this
// server indexes (patient/study/series/instance) plus file-meta,
// digital-signature and item/sequence delimitation elements. It is intentionally not exhaustive; unknown tags decode under
// Implicit VR as VR "UN" and are preserved byte-for-byte.
var standardTags = []Entry{
	{Tag{0x0002, 0x0000}, "UL", Multiplicity{1, 1, 1}, "FileMetaInformationGroupLength", "File Meta Information Group Length", false},
	{Tag{0x0002, 0x0001}, "OB", Multiplicity{1, 1, 1}, "FileMetaInformationVersion", "File Meta Information Version", false},
	{Tag{0x0002, 0x0002}, "UI", Multiplicity{1, 1, 1}, "MediaStorageSOPClassUID", "Media Storage SOP Class UID", false},
	{Tag{0x0002, 0x0003}, "UI", Multiplicity{1, 1, 1}, "MediaStorageSOPInstanceUID", "Media Storage SOP Instance UID", false},
	{Tag{0x0002, 0x0010}, "UI", Multiplicity{1, 1, 1}, "TransferSyntaxUID", "Transfer Syntax UID", false},
	{Tag{0x0002, 0x0012}, "UI", Multiplicity{1, 1, 1}, "ImplementationClassUID", "Implementation Class UID", false},
	{Tag{0x0002, 0x0013}, "SH", Multiplicity{1, 1, 1}, "ImplementationVersionName", "Implementation Version Name", false},

	{Tag{0x0008, 0x0005}, "CS", Multiplicity{1, 1, 1}, "SpecificCharacterSet", "Specific Character Set", false},
	{Tag{0x0008, 0x0016}, "UI", Multiplicity{1, 1, 1}, "SOPClassUID", "SOP Class UID", false},
	{Tag{0x0008, 0x0018}, "UI", Multiplicity{1, 1, 1}, "SOPInstanceUID", "SOP Instance UID", false},
	{Tag{0x0008, 0x0020}, "DA", Multiplicity{1, 1, 1}, "StudyDate", "Study Date", false},
	{Tag{0x0008, 0x0021}, "DA", Multiplicity{1, 1, 1}, "SeriesDate", "Series Date", false},
	{Tag{0x0008, 0x0030}, "TM", Multiplicity{1, 1, 1}, "StudyTime", "Study Time", false},
	{Tag{0x0008, 0x0031}, "TM", Multiplicity{1, 1, 1}, "SeriesTime", "Series Time", false},
	{Tag{0x0008, 0x0050}, "SH", Multiplicity{1, 1, 1}, "AccessionNumber", "Accession Number", false},
	{Tag{0x0008, 0x0052}, "CS", Multiplicity{1, 1, 1}, "QueryRetrieveLevel", "Query/Retrieve Level", false},
	{Tag{0x0008, 0x0054}, "AE", Multiplicity{1, 0, 1}, "RetrieveAETitle", "Retrieve AE Title", false},
	{Tag{0x0008, 0x0060}, "CS", Multiplicity{1, 1, 1}, "Modality", "Modality", false},
	{Tag{0x0008, 0x0061}, "CS", Multiplicity{1, 0, 1}, "ModalitiesInStudy", "Modalities in Study", false},
	{Tag{0x0008, 0x0080}, "LO", Multiplicity{1, 1, 1}, "InstitutionName", "Institution Name", false},
	{Tag{0x0008, 0x0090}, "PN", Multiplicity{1, 1, 1}, "ReferringPhysicianName", "Referring Physician's Name", false},
	{Tag{0x0008, 0x0100}, "SH", Multiplicity{1, 1, 1}, "CodeValue", "Code Value", false},
	{Tag{0x0008, 0x1030}, "LO", Multiplicity{1, 1, 1}, "StudyDescription", "Study Description", false},
	{Tag{0x0008, 0x103E}, "LO", Multiplicity{1, 1, 1}, "SeriesDescription", "Series Description", false},

	{Tag{0x0010, 0x0010}, "PN", Multiplicity{1, 1, 1}, "PatientName", "Patient's Name", false},
	{Tag{0x0010, 0x0020}, "LO", Multiplicity{1, 1, 1}, "PatientID", "Patient ID", false},
	{Tag{0x0010, 0x0030}, "DA", Multiplicity{1, 1, 1}, "PatientBirthDate", "Patient's Birth Date", false},
	{Tag{0x0010, 0x0040}, "CS", Multiplicity{1, 1, 1}, "PatientSex", "Patient's Sex", false},
	{Tag{0x0010, 0x1010}, "AS", Multiplicity{1, 1, 1}, "PatientAge", "Patient's Age", false},

	{Tag{0x0018, 0x0015}, "CS", Multiplicity{1, 1, 1}, "BodyPartExamined", "Body Part Examined", false},

	{Tag{0x0020, 0x000D}, "UI", Multiplicity{1, 1, 1}, "StudyInstanceUID", "Study Instance UID", false},
	{Tag{0x0020, 0x000E}, "UI", Multiplicity{1, 1, 1}, "SeriesInstanceUID", "Series Instance UID", false},
	{Tag{0x0020, 0x0010}, "SH", Multiplicity{1, 1, 1}, "StudyID", "Study ID", false},
	{Tag{0x0020, 0x0011}, "IS", Multiplicity{1, 1, 1}, "SeriesNumber", "Series Number", false},
	{Tag{0x0020, 0x0013}, "IS", Multiplicity{1, 1, 1}, "InstanceNumber", "Instance Number", false},
	{Tag{0x0020, 0x0052}, "UI", Multiplicity{1, 1, 1}, "FrameOfReferenceUID", "Frame of Reference UID", false},

	{Tag{0x0028, 0x0002}, "US", Multiplicity{1, 1, 1}, "SamplesPerPixel", "Samples per Pixel", false},
	{Tag{0x0028, 0x0010}, "US", Multiplicity{1, 1, 1}, "Rows", "Rows", false},
	{Tag{0x0028, 0x0011}, "US", Multiplicity{1, 1, 1}, "Columns", "Columns", false},
	{Tag{0x0028, 0x0100}, "US", Multiplicity{1, 1, 1}, "BitsAllocated", "Bits Allocated", false},

	{Tag{0x0040, 0xA730}, "SQ", Multiplicity{1, 1, 1}, "ContentSequence", "Content Sequence", false},

	{Tag{0x0400, 0x0005}, "US", Multiplicity{1, 1, 1}, "MACIDNumber", "MAC ID Number", false},
	{Tag{0x0400, 0x0010}, "UI", Multiplicity{1, 1, 1}, "MACCalculationTransferSyntaxUID", "MAC Calculation Transfer Syntax UID", false},
	{Tag{0x0400, 0x0015}, "CS", Multiplicity{1, 1, 1}, "MACAlgorithm", "MAC Algorithm", false},
	{Tag{0x0400, 0x0020}, "AT", Multiplicity{1, 0, 1}, "DataElementsSigned", "Data Elements Signed", false},
	{Tag{0x0400, 0x0100}, "UI", Multiplicity{1, 1, 1}, "DigitalSignatureUID", "Digital Signature UID", false},
	{Tag{0x0400, 0x0105}, "DT", Multiplicity{1, 1, 1}, "DigitalSignatureDateTime", "Digital Signature DateTime", false},
	{Tag{0x0400, 0x0110}, "CS", Multiplicity{1, 1, 1}, "CertificateType", "Certificate Type", false},
	{Tag{0x0400, 0x0115}, "OB", Multiplicity{1, 1, 1}, "CertificateOfSigner", "Certificate of Signer", false},
	{Tag{0x0400, 0x0120}, "OB", Multiplicity{1, 1, 1}, "Signature", "Signature", false},
	{Tag{0x0400, 0x0561}, "SQ", Multiplicity{1, 0, 1}, "DigitalSignaturesSequence", "Digital Signatures Sequence", false},

	{Tag{0xFFFE, 0xE000}, "NONE", Multiplicity{1, 1, 1}, "Item", "Item", false},
	{Tag{0xFFFE, 0xE00D}, "NONE", Multiplicity{0, 0, 1}, "ItemDelimitationItem", "Item Delimitation Item", false},
	{Tag{0xFFFE, 0xE0DD}, "NONE", Multiplicity{0, 0, 1}, "SequenceDelimitationItem", "Sequence Delimitation Item", false},
}
