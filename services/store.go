package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caio-sobreiro/pacs/catalog"
	"github.com/caio-sobreiro/pacs/dicom"
	"github.com/caio-sobreiro/pacs/dimse"
	"github.com/caio-sobreiro/pacs/hsm"
	"github.com/caio-sobreiro/pacs/interfaces"
	"github.com/caio-sobreiro/pacs/types"
)

// CStoreService persists an incoming C-STORE instance: the patient,
// study, series and instance hierarchy is upserted into the catalog,
// and the encoded data set goes to the HSM's hot tier.
type CStoreService struct {
	Catalog catalog.Store
	HSM     *hsm.HSM
}

// NewCStoreService creates a C-STORE service backed by store and h.
func NewCStoreService(store catalog.Store, h *hsm.HSM) *CStoreService {
	return &CStoreService{Catalog: store, HSM: h}
}

// HandleDIMSE implements interfaces.ServiceHandler.
func (s *CStoreService) HandleDIMSE(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext) (*types.Message, *dicom.DataSet, error) {
	dataset := meta.Dataset
	if dataset == nil {
		decoded, err := dicom.Decode(data, dicom.TransferSyntaxFor(meta.TransferSyntaxUID))
		if err != nil {
			return NewCStoreResponse(msg, dimse.StatusFailure), nil, fmt.Errorf("parse C-STORE dataset: %w", err)
		}
		dataset = decoded
	}

	if err := s.ingest(ctx, dataset, data, meta); err != nil {
		slog.ErrorContext(ctx, "C-STORE ingest failed", "error", err, "sop_instance", msg.AffectedSOPInstanceUID)
		return NewCStoreResponse(msg, dimse.StatusFailure), nil, nil
	}

	return NewCStoreResponse(msg, dimse.StatusSuccess), nil, nil
}

func (s *CStoreService) ingest(ctx context.Context, dataset *dicom.DataSet, raw []byte, meta interfaces.MessageContext) error {
	sopUID := dataset.GetString(tagSOPInstanceUID)
	if sopUID == "" {
		return fmt.Errorf("C-STORE dataset missing SOP Instance UID")
	}
	studyUID := dataset.GetString(tagStudyInstanceUID)
	seriesUID := dataset.GetString(tagSeriesInstanceUID)

	patientPK, err := s.Catalog.UpsertPatient(ctx, catalog.Patient{
		PatientID: dataset.GetString(tagPatientID),
		Name:      dataset.GetString(tagPatientName),
		BirthDate: dataset.GetString(tagPatientBirthDate),
		Sex:       dataset.GetString(tagPatientSex),
	})
	if err != nil {
		return fmt.Errorf("upsert patient: %w", err)
	}

	studyPK, err := s.Catalog.UpsertStudy(ctx, catalog.Study{
		PatientPK:          patientPK,
		StudyInstanceUID:   studyUID,
		StudyID:            dataset.GetString(tagStudyID),
		StudyDate:          dataset.GetString(tagStudyDate),
		StudyTime:          dataset.GetString(tagStudyTime),
		AccessionNumber:    dataset.GetString(tagAccessionNumber),
		ReferringPhysician: dataset.GetString(tagReferringPhysician),
		Description:        dataset.GetString(tagStudyDescription),
	})
	if err != nil {
		return fmt.Errorf("upsert study: %w", err)
	}

	seriesPK, err := s.Catalog.UpsertSeries(ctx, catalog.Series{
		StudyPK:           studyPK,
		SeriesInstanceUID: seriesUID,
		SeriesNumber:      dataset.GetString(tagSeriesNumber),
		Modality:          dataset.GetString(tagModality),
		Description:       dataset.GetString(tagSeriesDescription),
	})
	if err != nil {
		return fmt.Errorf("upsert series: %w", err)
	}

	sopClassUID := dataset.GetString(tagSOPClassUID)
	if _, err := s.Catalog.UpsertInstance(ctx, catalog.Instance{
		SeriesPK:        seriesPK,
		SOPInstanceUID:  sopUID,
		SOPClassUID:     sopClassUID,
		InstanceNumber:  dataset.GetString(tagInstanceNumber),
		StorageLocation: sopUID,
	}); err != nil {
		return fmt.Errorf("upsert instance: %w", err)
	}

	if s.HSM == nil {
		return nil
	}

	payload := raw
	if len(payload) == 0 {
		encoded, err := dicom.Encode(dataset, dicom.TransferSyntaxFor(meta.TransferSyntaxUID))
		if err != nil {
			return fmt.Errorf("encode dataset for storage: %w", err)
		}
		payload = encoded
	}
	if err := s.HSM.Store(ctx, sopUID, studyUID, seriesUID, payload); err != nil {
		return fmt.Errorf("hsm store: %w", err)
	}
	return nil
}
