package dicom

import (
	"fmt"

	"github.com/caio-sobreiro/pacs/internal/tagdict"
)

// Tag identifies a data element by its group/element pair.
type Tag struct {
	Group   uint16
	Element uint16
}

// String renders the tag in (GGGG,EEEE) form.
func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// Less orders tags ascending by group then element — the order data_set
// iteration, encoding and C-FIND result streaming all follow.
func (t Tag) Less(o Tag) bool {
	if t.Group != o.Group {
		return t.Group < o.Group
	}
	return t.Element < o.Element
}

func (t Tag) dict() tagdict.Tag { return tagdict.Tag{Group: t.Group, Element: t.Element} }

// VRForTag returns the tag's canonical VR per the static dictionary,
// falling back to "UN" for tags the dictionary does not carry.
func VRForTag(tag Tag) string {
	return tagdict.VRFor(tag.dict())
}

var (
	itemTag          = Tag{0xFFFE, 0xE000}
	itemDelimTag     = Tag{0xFFFE, 0xE00D}
	sequenceDelimTag = Tag{0xFFFE, 0xE0DD}
)

// Element is a single (tag, VR, value) triple. For VR == "SQ" the element
// carries Items instead of Value; Value is always already padded to even
// length per the even-length invariant.
type Element struct {
	Tag   Tag
	VR    string
	Value []byte
	Items []*DataSet // only populated when VR == "SQ"

	// UndefinedLength records that this element (or, for items, its
	// enclosing sequence) was encoded with the undefined-length/delimiter
	// form. Encode() keeps that form for an element that has this flag set
	// and otherwise chooses the canonical form by size.
	UndefinedLength bool
}

// NewElement builds an element, padding the value to even length per the
// VR's padding character.
func NewElement(tag Tag, vr string, value []byte) *Element {
	return &Element{Tag: tag, VR: vr, Value: PadToEven(vr, value)}
}

// NewSequenceElement builds a VR=SQ element from an ordered list of items.
func NewSequenceElement(tag Tag, items []*DataSet) *Element {
	return &Element{Tag: tag, VR: "SQ", Items: items}
}

// String returns the trimmed string form of a non-sequence element's
// value, using the VR's padding character to know what to trim.
func (e *Element) String() string {
	return string(TrimPadding(e.VR, e.Value))
}
