package catalog

import "github.com/caio-sobreiro/pacs/dicom"

// ResultStream owns a Cursor and a page size, materializing rows as
// dicom.DataSet values by mapping catalog columns back to their DICOM
// tags. A C-FIND handler drains a ResultStream one NextBatch at a time,
// sending one pending response per data set.
type ResultStream struct {
	cursor   *Cursor
	pageSize int
}

// NewResultStream wraps cursor, using pageSize for each NextBatch call
// (a non-positive pageSize defaults to 25, matching a typical C-FIND
// response page).
func NewResultStream(cursor *Cursor, pageSize int) *ResultStream {
	if pageSize <= 0 {
		pageSize = 25
	}
	return &ResultStream{cursor: cursor, pageSize: pageSize}
}

// HasMore reports whether a further NextBatch call would return rows.
func (s *ResultStream) HasMore() bool {
	return s.cursor.HasMore()
}

// Serialize captures the underlying cursor's resumption token so a
// caller can persist stream position across a pending/cancel boundary.
func (s *ResultStream) Serialize() string {
	return s.cursor.Serialize()
}

// NextBatch materializes up to the stream's page size rows as data sets.
func (s *ResultStream) NextBatch() ([]*dicom.DataSet, error) {
	rows := s.cursor.FetchBatch(s.pageSize)
	out := make([]*dicom.DataSet, 0, len(rows))
	for _, row := range rows {
		ds, err := toDataSet(s.cursor.Kind, row)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

func toDataSet(kind RecordKind, row any) (*dicom.DataSet, error) {
	ds := dicom.NewDataSet()
	switch kind {
	case KindPatient:
		p := row.(Patient)
		ds.AddString(dicom.Tag{Group: 0x0010, Element: 0x0010}, "PN", p.Name)
		ds.AddString(dicom.Tag{Group: 0x0010, Element: 0x0020}, "LO", p.PatientID)
		ds.AddString(dicom.Tag{Group: 0x0010, Element: 0x0030}, "DA", p.BirthDate)
		ds.AddString(dicom.Tag{Group: 0x0010, Element: 0x0040}, "CS", p.Sex)
	case KindStudy:
		s := row.(Study)
		ds.AddString(dicom.Tag{Group: 0x0020, Element: 0x000D}, "UI", s.StudyInstanceUID)
		ds.AddString(dicom.Tag{Group: 0x0020, Element: 0x0010}, "SH", s.StudyID)
		ds.AddString(dicom.Tag{Group: 0x0008, Element: 0x0020}, "DA", s.StudyDate)
		ds.AddString(dicom.Tag{Group: 0x0008, Element: 0x0030}, "TM", s.StudyTime)
		ds.AddString(dicom.Tag{Group: 0x0008, Element: 0x0050}, "SH", s.AccessionNumber)
		ds.AddString(dicom.Tag{Group: 0x0008, Element: 0x0090}, "PN", s.ReferringPhysician)
		ds.AddString(dicom.Tag{Group: 0x0008, Element: 0x1030}, "LO", s.Description)
	case KindSeries:
		sr := row.(Series)
		ds.AddString(dicom.Tag{Group: 0x0020, Element: 0x000E}, "UI", sr.SeriesInstanceUID)
		ds.AddString(dicom.Tag{Group: 0x0020, Element: 0x0011}, "IS", sr.SeriesNumber)
		ds.AddString(dicom.Tag{Group: 0x0008, Element: 0x0060}, "CS", sr.Modality)
		ds.AddString(dicom.Tag{Group: 0x0008, Element: 0x103E}, "LO", sr.Description)
	case KindInstance:
		i := row.(Instance)
		ds.AddString(dicom.Tag{Group: 0x0008, Element: 0x0018}, "UI", i.SOPInstanceUID)
		ds.AddString(dicom.Tag{Group: 0x0008, Element: 0x0016}, "UI", i.SOPClassUID)
		ds.AddString(dicom.Tag{Group: 0x0020, Element: 0x0013}, "IS", i.InstanceNumber)
	}
	return ds, nil
}
