// Package catalog is the persistent indexed catalog of the DICOM
// hierarchy: patient, study, series and instance, keyed by surrogate
// primary key with a DICOM UID uniquely indexed at every level.
package catalog

import "time"

// Patient is the top of the hierarchy, keyed by PatientID rather than a
// DICOM UID (PS3.3 carries no patient-level UID).
type Patient struct {
	PK        int64
	PatientID string
	Name      string
	BirthDate string
	Sex       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Study belongs to a Patient.
type Study struct {
	PK                 int64
	PatientPK          int64
	StudyInstanceUID   string
	StudyID            string
	StudyDate          string
	StudyTime          string
	AccessionNumber    string
	ReferringPhysician string
	Description        string
	NumSeries          int
	NumInstances       int
	ModalitiesInStudy  []string // sorted, unique
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Series belongs to a Study.
type Series struct {
	PK                int64
	StudyPK           int64
	SeriesInstanceUID string
	SeriesNumber      string
	Modality          string
	Description       string
	NumInstances      int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Instance belongs to a Series. StorageLocation names where the HSM can
// find the underlying data set (tier-independent key, not a tier path).
type Instance struct {
	PK              int64
	SeriesPK        int64
	SOPInstanceUID  string
	SOPClassUID     string
	InstanceNumber  string
	StorageLocation string
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
