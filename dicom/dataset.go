package dicom

// DataSet is an ordered mapping from tag to element. Iteration order is
// always ascending by tag, per the data_set invariant in the spec; this is
// enforced by keeping elements in a slice that Add keeps sorted rather than
// relying on map iteration order.
type DataSet struct {
	elements []*Element
	byTag    map[Tag]*Element
}

// NewDataSet returns an empty data set.
func NewDataSet() *DataSet {
	return &DataSet{byTag: make(map[Tag]*Element)}
}

// Add inserts or replaces the element for its tag, keeping Elements()
// ascending by tag.
func (d *DataSet) Add(e *Element) {
	if d.byTag == nil {
		d.byTag = make(map[Tag]*Element)
	}
	if existing, ok := d.byTag[e.Tag]; ok {
		*existing = *e
		return
	}
	d.byTag[e.Tag] = e
	idx := 0
	for idx < len(d.elements) && d.elements[idx].Tag.Less(e.Tag) {
		idx++
	}
	d.elements = append(d.elements, nil)
	copy(d.elements[idx+1:], d.elements[idx:])
	d.elements[idx] = e
}

// AddString is a convenience wrapper over Add for string-valued VRs.
func (d *DataSet) AddString(tag Tag, vr, value string) {
	d.Add(NewElement(tag, vr, []byte(value)))
}

// AddElement is an alias for AddString, matching the call style used
// throughout the DIMSE command/identifier builders.
func (d *DataSet) AddElement(tag Tag, vr, value string) {
	d.AddString(tag, vr, value)
}

// EncodeDataset encodes the data set under Implicit VR Little Endian, the
// default transfer syntax for DIMSE command and identifier datasets sent
// before a presentation context negotiates otherwise. On an encoding error
// it returns nil and drops the error, matching the no-error call style
// query identifier builders use; callers that need a different transfer
// syntax or error reporting should call Encode directly.
func (d *DataSet) EncodeDataset() []byte {
	data, err := Encode(d, TransferSyntaxFor(""))
	if err != nil {
		return nil
	}
	return data
}

// Get returns the element for tag, if present.
func (d *DataSet) Get(tag Tag) (*Element, bool) {
	e, ok := d.byTag[tag]
	return e, ok
}

// GetElement is an alias for Get, matching the call style used throughout
// the DIMSE command/identifier builders.
func (d *DataSet) GetElement(tag Tag) (*Element, bool) {
	return d.Get(tag)
}

// GetString returns the trimmed string value for tag, or "" if absent.
func (d *DataSet) GetString(tag Tag) string {
	if e, ok := d.byTag[tag]; ok {
		return e.String()
	}
	return ""
}

// Remove deletes the element for tag, if present.
func (d *DataSet) Remove(tag Tag) {
	if _, ok := d.byTag[tag]; !ok {
		return
	}
	delete(d.byTag, tag)
	for i, e := range d.elements {
		if e.Tag == tag {
			d.elements = append(d.elements[:i], d.elements[i+1:]...)
			break
		}
	}
}

// Elements returns the data set's elements in ascending tag order. The
// returned slice is owned by the caller to read, not to mutate in place.
func (d *DataSet) Elements() []*Element {
	return d.elements
}

// Len returns the number of elements in the data set.
func (d *DataSet) Len() int { return len(d.elements) }

// Equal reports whether two data sets carry the same elements with the
// same values, recursing into sequence items. Used by codec round-trip
// tests.
func (d *DataSet) Equal(o *DataSet) bool {
	if d == nil || o == nil {
		return d == o
	}
	if len(d.elements) != len(o.elements) {
		return false
	}
	for i, e := range d.elements {
		oe := o.elements[i]
		if e.Tag != oe.Tag || e.VR != oe.VR {
			return false
		}
		if e.VR == "SQ" {
			if len(e.Items) != len(oe.Items) {
				return false
			}
			for j, item := range e.Items {
				if !item.Equal(oe.Items[j]) {
					return false
				}
			}
			continue
		}
		if string(e.Value) != string(oe.Value) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the data set, so the holder can mutate it
// without aliasing the original (data_set lifecycle: owned by the holder).
func (d *DataSet) Clone() *DataSet {
	out := NewDataSet()
	for _, e := range d.elements {
		ce := &Element{Tag: e.Tag, VR: e.VR, UndefinedLength: e.UndefinedLength}
		if e.VR == "SQ" {
			ce.Items = make([]*DataSet, len(e.Items))
			for i, it := range e.Items {
				ce.Items[i] = it.Clone()
			}
		} else {
			ce.Value = append([]byte(nil), e.Value...)
		}
		out.Add(ce)
	}
	return out
}
