package services

import (
	"github.com/caio-sobreiro/pacs/dicom"
	"github.com/caio-sobreiro/pacs/types"
)

// Well-known tags carried in C-FIND/C-MOVE/C-GET identifiers.
var (
	tagQueryRetrieveLevel = dicom.Tag{Group: 0x0008, Element: 0x0052}
	tagPatientName        = dicom.Tag{Group: 0x0010, Element: 0x0010}
	tagPatientID          = dicom.Tag{Group: 0x0010, Element: 0x0020}
	tagPatientBirthDate   = dicom.Tag{Group: 0x0010, Element: 0x0030}
	tagPatientSex         = dicom.Tag{Group: 0x0010, Element: 0x0040}
	tagStudyInstanceUID   = dicom.Tag{Group: 0x0020, Element: 0x000D}
	tagStudyID            = dicom.Tag{Group: 0x0020, Element: 0x0010}
	tagStudyDate          = dicom.Tag{Group: 0x0008, Element: 0x0020}
	tagStudyTime          = dicom.Tag{Group: 0x0008, Element: 0x0030}
	tagAccessionNumber    = dicom.Tag{Group: 0x0008, Element: 0x0050}
	tagReferringPhysician = dicom.Tag{Group: 0x0008, Element: 0x0090}
	tagStudyDescription   = dicom.Tag{Group: 0x0008, Element: 0x1030}
	tagModality           = dicom.Tag{Group: 0x0008, Element: 0x0060}
	tagSeriesInstanceUID  = dicom.Tag{Group: 0x0020, Element: 0x000E}
	tagSeriesNumber       = dicom.Tag{Group: 0x0020, Element: 0x0011}
	tagSeriesDescription  = dicom.Tag{Group: 0x0008, Element: 0x103E}
	tagSOPInstanceUID     = dicom.Tag{Group: 0x0008, Element: 0x0018}
	tagSOPClassUID        = dicom.Tag{Group: 0x0008, Element: 0x0016}
	tagInstanceNumber     = dicom.Tag{Group: 0x0020, Element: 0x0013}
)

// queryFromDataset translates a C-FIND/C-MOVE/C-GET identifier into a
// types.QueryRequest. When the identifier carries no Query/Retrieve
// Level (0008,0052), the level is inferred from the most specific UID
// present, per the matching rules services apply to legacy SCUs that
// omit it.
func queryFromDataset(ds *dicom.DataSet) *types.QueryRequest {
	q := &types.QueryRequest{
		PatientName:        ds.GetString(tagPatientName),
		PatientID:          ds.GetString(tagPatientID),
		PatientBirthDate:   ds.GetString(tagPatientBirthDate),
		PatientSex:         ds.GetString(tagPatientSex),
		StudyInstanceUID:   ds.GetString(tagStudyInstanceUID),
		StudyID:            ds.GetString(tagStudyID),
		StudyDate:          ds.GetString(tagStudyDate),
		StudyTime:          ds.GetString(tagStudyTime),
		StudyDescription:   ds.GetString(tagStudyDescription),
		Modality:           ds.GetString(tagModality),
		SeriesInstanceUID:  ds.GetString(tagSeriesInstanceUID),
		SeriesNumber:       ds.GetString(tagSeriesNumber),
		SeriesDescription:  ds.GetString(tagSeriesDescription),
		SOPInstanceUID:     ds.GetString(tagSOPInstanceUID),
		InstanceNumber:     ds.GetString(tagInstanceNumber),
		AccessionNumber:    ds.GetString(tagAccessionNumber),
		ReferringPhysician: ds.GetString(tagReferringPhysician),
	}

	q.Level = levelFromDataset(ds, q)
	return q
}

func levelFromDataset(ds *dicom.DataSet, q *types.QueryRequest) types.QueryLevel {
	if e, ok := ds.Get(tagQueryRetrieveLevel); ok {
		switch e.String() {
		case "PATIENT":
			return types.QueryLevelPatient
		case "STUDY":
			return types.QueryLevelStudy
		case "SERIES":
			return types.QueryLevelSeries
		case "IMAGE":
			return types.QueryLevelImage
		}
	}

	switch {
	case q.SOPInstanceUID != "":
		return types.QueryLevelImage
	case q.SeriesInstanceUID != "":
		return types.QueryLevelSeries
	case q.StudyInstanceUID != "":
		return types.QueryLevelStudy
	default:
		return types.QueryLevelPatient
	}
}

// patientToDataSet, studyToDataSet, seriesToDataSet and imageToDataSet
// convert a single matched result back into the identifier shape a
// C-FIND-RSP carries, mirroring catalog's toDataSet tag mapping.
func patientToDataSet(p types.Patient) *dicom.DataSet {
	ds := dicom.NewDataSet()
	ds.AddString(tagPatientName, dicom.VR_PN, p.Name)
	ds.AddString(tagPatientID, dicom.VR_LO, p.ID)
	ds.AddString(tagPatientBirthDate, dicom.VR_DA, p.BirthDate)
	ds.AddString(tagPatientSex, dicom.VR_CS, p.Sex)
	return ds
}

func studyToDataSet(s types.Study) *dicom.DataSet {
	ds := dicom.NewDataSet()
	ds.AddString(tagStudyInstanceUID, dicom.VR_UI, s.InstanceUID)
	ds.AddString(tagStudyID, dicom.VR_SH, s.ID)
	ds.AddString(tagStudyDate, dicom.VR_DA, s.Date)
	ds.AddString(tagStudyTime, dicom.VR_TM, s.Time)
	ds.AddString(tagAccessionNumber, dicom.VR_SH, s.AccessionNum)
	ds.AddString(tagReferringPhysician, dicom.VR_PN, s.RefPhysician)
	ds.AddString(tagStudyDescription, dicom.VR_LO, s.Description)
	return ds
}

func seriesToDataSet(s types.Series) *dicom.DataSet {
	ds := dicom.NewDataSet()
	ds.AddString(tagSeriesInstanceUID, dicom.VR_UI, s.InstanceUID)
	ds.AddString(tagSeriesNumber, dicom.VR_IS, s.Number)
	ds.AddString(tagModality, dicom.VR_CS, s.Modality)
	ds.AddString(tagSeriesDescription, dicom.VR_LO, s.Description)
	return ds
}

func imageToDataSet(i types.Image) *dicom.DataSet {
	ds := dicom.NewDataSet()
	ds.AddString(tagSOPInstanceUID, dicom.VR_UI, i.SOPInstanceUID)
	ds.AddString(tagInstanceNumber, dicom.VR_IS, i.InstanceNumber)
	return ds
}
