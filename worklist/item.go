// Package worklist implements a Modality Worklist SCP: a store of
// scheduled procedure steps keyed by accession number, matched against
// incoming C-FIND identifiers using the same wildcard rules as the
// patient/study/series/image catalog.
package worklist

// Item is one scheduled procedure step. Fields mirror the Modality
// Worklist Information Model attributes a C-FIND identifier commonly
// queries on; an unset string field matches a non-empty query key for
// that attribute only when the key is made of '*' characters alone.
type Item struct {
	AccessionNumber        string `json:"accession_number"`
	PatientID              string `json:"patient_id"`
	PatientName            string `json:"patient_name"`
	PatientBirthDate       string `json:"patient_birth_date"`
	PatientSex             string `json:"patient_sex"`
	StudyInstanceUID       string `json:"study_instance_uid"`
	ScheduledStationAET    string `json:"scheduled_station_aet"`
	ScheduledProcedureDate string `json:"scheduled_procedure_date"`
	ScheduledProcedureTime string `json:"scheduled_procedure_time"`
	Modality               string `json:"modality"`
	RequestedProcedureID   string `json:"requested_procedure_id"`
	RequestingPhysician    string `json:"requesting_physician"`
}

// Query names the attributes a worklist search filters by. An empty
// field imposes no constraint on that attribute.
type Query struct {
	PatientID              string
	PatientName            string
	ScheduledStationAET    string
	ScheduledProcedureDate string
	Modality               string
	AccessionNumber        string
}

func (q Query) matches(it Item) bool {
	return matchField(q.PatientID, it.PatientID) &&
		matchField(q.PatientName, it.PatientName) &&
		matchField(q.ScheduledStationAET, it.ScheduledStationAET) &&
		matchField(q.ScheduledProcedureDate, it.ScheduledProcedureDate) &&
		matchField(q.Modality, it.Modality) &&
		matchField(q.AccessionNumber, it.AccessionNumber)
}
