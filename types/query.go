package types

// QueryLevel represents the level of C-FIND query
type QueryLevel string

const (
	QueryLevelPatient QueryLevel = "PATIENT"
	QueryLevelStudy   QueryLevel = "STUDY"
	QueryLevelSeries  QueryLevel = "SERIES"
	QueryLevelImage   QueryLevel = "IMAGE"
)

// QueryRequest represents a parsed C-FIND query
type QueryRequest struct {
	Level              QueryLevel
	PatientName        string
	PatientID          string
	PatientBirthDate   string
	PatientSex         string
	StudyInstanceUID   string
	StudyID            string
	StudyDate          string
	StudyTime          string
	StudyDescription   string
	Modality           string
	SeriesInstanceUID  string
	SeriesNumber       string
	SeriesDescription  string
	SOPInstanceUID     string
	InstanceNumber     string
	AccessionNumber    string
	ReferringPhysician string

	// CallingAE, QueryID and Priority carry the parallel query executor's
	// query_request fields (calling_ae, query_id, priority); they are
	// zero-valued for direct, non-dispatched FindPatients/FindStudies/
	// FindSeries/FindImages calls.
	CallingAE string
	QueryID   string
	Priority  QueryPriority
}

// QueryPriority orders queries submitted to the parallel query executor.
// Higher values run first; ties keep submission order.
type QueryPriority int

const (
	QueryPriorityLow    QueryPriority = 0
	QueryPriorityMedium QueryPriority = 1
	QueryPriorityHigh   QueryPriority = 2
)

// Patient represents patient data
type Patient struct {
	Name      string
	ID        string
	BirthDate string
	Sex       string
	Studies   []Study
}

// Study represents study data
type Study struct {
	InstanceUID  string
	ID           string
	Date         string
	Time         string
	Description  string
	AccessionNum string
	RefPhysician string
	Series       []Series
}

// Series represents series data
type Series struct {
	InstanceUID string
	Number      string
	Description string
	Modality    string
	Images      []Image
}

// Image represents image data
type Image struct {
	SOPInstanceUID string
	InstanceNumber string
}
