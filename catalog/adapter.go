package catalog

import (
	"context"

	"github.com/caio-sobreiro/pacs/interfaces"
	"github.com/caio-sobreiro/pacs/types"
)

var _ interfaces.DataStore = (*Adapter)(nil)

// Adapter implements interfaces.DataStore over a Store, translating
// between the catalog's persistent, surrogate-keyed records and the
// nested types.Patient/Study/Series/Image shape that DIMSE responses are
// built from.
type Adapter struct {
	Store Store
}

func NewAdapter(store Store) *Adapter {
	return &Adapter{Store: store}
}

func (a *Adapter) FindPatients(q *types.QueryRequest) ([]types.Patient, error) {
	ctx := context.Background()
	cur, err := a.Store.SearchPatients(ctx, PatientQuery{PatientID: q.PatientID, Name: q.PatientName}, Page{})
	if err != nil {
		return nil, err
	}
	var out []types.Patient
	for cur.HasMore() {
		row, _ := cur.FetchNext()
		out = append(out, patientToTypes(row.(Patient)))
	}
	return out, nil
}

func (a *Adapter) GetPatient(patientID string) (*types.Patient, error) {
	p, err := a.Store.FindPatient(context.Background(), patientID)
	if err != nil {
		return nil, err
	}
	t := patientToTypes(p)
	return &t, nil
}

func (a *Adapter) StorePatient(p *types.Patient) error {
	_, err := a.Store.UpsertPatient(context.Background(), Patient{
		PatientID: p.ID, Name: p.Name, BirthDate: p.BirthDate, Sex: p.Sex,
	})
	return err
}

func (a *Adapter) FindStudies(q *types.QueryRequest) ([]types.Study, error) {
	ctx := context.Background()
	cur, err := a.Store.SearchStudies(ctx, StudyQuery{
		StudyInstanceUID: q.StudyInstanceUID,
		AccessionNumber:  q.AccessionNumber,
		Description:      q.StudyDescription,
		Modality:         q.Modality,
	}, Page{})
	if err != nil {
		return nil, err
	}
	var out []types.Study
	for cur.HasMore() {
		row, _ := cur.FetchNext()
		out = append(out, studyToTypes(row.(Study)))
	}
	return out, nil
}

func (a *Adapter) GetStudy(studyInstanceUID string) (*types.Study, error) {
	s, err := a.Store.FindStudy(context.Background(), studyInstanceUID)
	if err != nil {
		return nil, err
	}
	t := studyToTypes(s)
	return &t, nil
}

func (a *Adapter) StoreStudy(s *types.Study) error {
	// Caller is expected to have already resolved the parent patient PK
	// via StorePatient; StoreStudy alone cannot invent one.
	return nil
}

func (a *Adapter) FindSeries(q *types.QueryRequest) ([]types.Series, error) {
	ctx := context.Background()
	cur, err := a.Store.SearchSeries(ctx, SeriesQuery{
		SeriesInstanceUID: q.SeriesInstanceUID,
		Modality:          q.Modality,
		Description:       q.SeriesDescription,
	}, Page{})
	if err != nil {
		return nil, err
	}
	var out []types.Series
	for cur.HasMore() {
		row, _ := cur.FetchNext()
		out = append(out, seriesToTypes(row.(Series)))
	}
	return out, nil
}

func (a *Adapter) GetSeries(seriesInstanceUID string) (*types.Series, error) {
	s, err := a.Store.FindSeries(context.Background(), seriesInstanceUID)
	if err != nil {
		return nil, err
	}
	t := seriesToTypes(s)
	return &t, nil
}

func (a *Adapter) StoreSeries(s *types.Series) error { return nil }

func (a *Adapter) FindImages(q *types.QueryRequest) ([]types.Image, error) {
	ctx := context.Background()
	cur, err := a.Store.SearchInstances(ctx, InstanceQuery{SOPInstanceUID: q.SOPInstanceUID}, Page{})
	if err != nil {
		return nil, err
	}
	var out []types.Image
	for cur.HasMore() {
		row, _ := cur.FetchNext()
		out = append(out, instanceToTypes(row.(Instance)))
	}
	return out, nil
}

func (a *Adapter) GetImage(sopInstanceUID string) (*types.Image, error) {
	i, err := a.Store.FindInstance(context.Background(), sopInstanceUID)
	if err != nil {
		return nil, err
	}
	t := instanceToTypes(i)
	return &t, nil
}

func (a *Adapter) StoreImage(i *types.Image) error { return nil }

func patientToTypes(p Patient) types.Patient {
	return types.Patient{Name: p.Name, ID: p.PatientID, BirthDate: p.BirthDate, Sex: p.Sex}
}

func studyToTypes(s Study) types.Study {
	return types.Study{
		InstanceUID:  s.StudyInstanceUID,
		ID:           s.StudyID,
		Date:         s.StudyDate,
		Time:         s.StudyTime,
		Description:  s.Description,
		AccessionNum: s.AccessionNumber,
		RefPhysician: s.ReferringPhysician,
	}
}

func seriesToTypes(s Series) types.Series {
	return types.Series{
		InstanceUID: s.SeriesInstanceUID,
		Number:      s.SeriesNumber,
		Description: s.Description,
		Modality:    s.Modality,
	}
}

func instanceToTypes(i Instance) types.Image {
	return types.Image{SOPInstanceUID: i.SOPInstanceUID, InstanceNumber: i.InstanceNumber}
}
