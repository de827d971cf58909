package sqlitestore

import (
	"database/sql"
	"strings"
	"time"

	"github.com/caio-sobreiro/pacs/catalog"
	pacserrors "github.com/caio-sobreiro/pacs/errors"
)

// row is satisfied by both *sql.Row and *sql.Rows, letting scan* helpers
// serve both point lookups and result-set iteration.
type row interface {
	Scan(dest ...any) error
}

const studySelect = `SELECT pk, patient_pk, study_instance_uid, study_id, study_date, study_time,
	accession_number, referring_physician, description, num_series, num_instances,
	modalities_in_study, created_at, updated_at FROM study`

const seriesSelect = `SELECT pk, study_pk, series_instance_uid, series_number, modality, description,
	num_instances, created_at, updated_at FROM series`

const instanceSelect = `SELECT pk, series_pk, sop_instance_uid, sop_class_uid, instance_number,
	storage_location, deleted_at, created_at, updated_at FROM instance`

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func scanPatient(r row) (catalog.Patient, error) {
	var p catalog.Patient
	var created, updated string
	err := r.Scan(&p.PK, &p.PatientID, &p.Name, &p.BirthDate, &p.Sex, &created, &updated)
	if err == sql.ErrNoRows {
		return p, pacserrors.NewCatalogError("not_found", "patient not found")
	}
	if err != nil {
		return p, pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	p.CreatedAt, p.UpdatedAt = parseTime(created), parseTime(updated)
	return p, nil
}

func scanStudy(r row) (catalog.Study, error) {
	var s catalog.Study
	var created, updated, modalities string
	err := r.Scan(&s.PK, &s.PatientPK, &s.StudyInstanceUID, &s.StudyID, &s.StudyDate, &s.StudyTime,
		&s.AccessionNumber, &s.ReferringPhysician, &s.Description, &s.NumSeries, &s.NumInstances,
		&modalities, &created, &updated)
	if err == sql.ErrNoRows {
		return s, pacserrors.NewCatalogError("not_found", "study not found")
	}
	if err != nil {
		return s, pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	if modalities != "" {
		s.ModalitiesInStudy = strings.Split(modalities, "\\")
	}
	s.CreatedAt, s.UpdatedAt = parseTime(created), parseTime(updated)
	return s, nil
}

func scanSeries(r row) (catalog.Series, error) {
	var s catalog.Series
	var created, updated string
	err := r.Scan(&s.PK, &s.StudyPK, &s.SeriesInstanceUID, &s.SeriesNumber, &s.Modality, &s.Description,
		&s.NumInstances, &created, &updated)
	if err == sql.ErrNoRows {
		return s, pacserrors.NewCatalogError("not_found", "series not found")
	}
	if err != nil {
		return s, pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	s.CreatedAt, s.UpdatedAt = parseTime(created), parseTime(updated)
	return s, nil
}

func scanInstance(r row) (catalog.Instance, error) {
	var i catalog.Instance
	var created, updated string
	var deletedAt sql.NullString
	err := r.Scan(&i.PK, &i.SeriesPK, &i.SOPInstanceUID, &i.SOPClassUID, &i.InstanceNumber,
		&i.StorageLocation, &deletedAt, &created, &updated)
	if err == sql.ErrNoRows {
		return i, pacserrors.NewCatalogError("not_found", "instance not found")
	}
	if err != nil {
		return i, pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	if deletedAt.Valid {
		t := parseTime(deletedAt.String)
		i.DeletedAt = &t
	}
	i.CreatedAt, i.UpdatedAt = parseTime(created), parseTime(updated)
	return i, nil
}
