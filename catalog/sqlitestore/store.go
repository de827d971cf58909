// Package sqlitestore is a modernc.org/sqlite-backed implementation of
// catalog.Store: a pure-Go, CGo-free embedded relational catalog, with
// the schema applied as idempotent CREATE ... IF NOT EXISTS statements at
// Open time rather than by a separate migration tool.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/caio-sobreiro/pacs/catalog"
	pacserrors "github.com/caio-sobreiro/pacs/errors"

	_ "modernc.org/sqlite"
)

// Store is a catalog.Store backed by a single SQLite database file (or
// ":memory:" for tests).
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database at path and
// applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	// The pure-Go sqlite driver serializes writes internally; a single
	// connection avoids SQLITE_BUSY churn under concurrent upserts.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// UpsertPatient inserts or updates a patient row idempotently by
// patient_id.
func (s *Store) UpsertPatient(ctx context.Context, p catalog.Patient) (int64, error) {
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patient (patient_id, name, birth_date, sex, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_id) DO UPDATE SET
			name=excluded.name, birth_date=excluded.birth_date, sex=excluded.sex, updated_at=excluded.updated_at
	`, p.PatientID, p.Name, p.BirthDate, p.Sex, ts, ts)
	if err != nil {
		return 0, pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("upsert patient %s: %v", p.PatientID, err))
	}
	var pk int64
	if err := s.db.QueryRowContext(ctx, `SELECT pk FROM patient WHERE patient_id = ?`, p.PatientID).Scan(&pk); err != nil {
		return 0, pacserrors.NewCatalogError("not_found", fmt.Sprintf("reading back patient %s: %v", p.PatientID, err))
	}
	return pk, nil
}

// UpsertStudy inserts or updates a study row idempotently by
// study_instance_uid.
func (s *Store) UpsertStudy(ctx context.Context, st catalog.Study) (int64, error) {
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO study (patient_pk, study_instance_uid, study_id, study_date, study_time,
			accession_number, referring_physician, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(study_instance_uid) DO UPDATE SET
			study_id=excluded.study_id, study_date=excluded.study_date, study_time=excluded.study_time,
			accession_number=excluded.accession_number, referring_physician=excluded.referring_physician,
			description=excluded.description, updated_at=excluded.updated_at
	`, st.PatientPK, st.StudyInstanceUID, st.StudyID, st.StudyDate, st.StudyTime,
		st.AccessionNumber, st.ReferringPhysician, st.Description, ts, ts)
	if err != nil {
		return 0, pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("upsert study %s: %v", st.StudyInstanceUID, err))
	}
	var pk int64
	if err := s.db.QueryRowContext(ctx, `SELECT pk FROM study WHERE study_instance_uid = ?`, st.StudyInstanceUID).Scan(&pk); err != nil {
		return 0, pacserrors.NewCatalogError("not_found", fmt.Sprintf("reading back study %s: %v", st.StudyInstanceUID, err))
	}
	return pk, nil
}

// UpsertSeries inserts or updates a series row idempotently by
// series_instance_uid, then recomputes the parent study's num_series and
// modalities_in_study.
func (s *Store) UpsertSeries(ctx context.Context, sr catalog.Series) (int64, error) {
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series (study_pk, series_instance_uid, series_number, modality, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(series_instance_uid) DO UPDATE SET
			series_number=excluded.series_number, modality=excluded.modality,
			description=excluded.description, updated_at=excluded.updated_at
	`, sr.StudyPK, sr.SeriesInstanceUID, sr.SeriesNumber, sr.Modality, sr.Description, ts, ts)
	if err != nil {
		return 0, pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("upsert series %s: %v", sr.SeriesInstanceUID, err))
	}
	var pk int64
	if err := s.db.QueryRowContext(ctx, `SELECT pk FROM series WHERE series_instance_uid = ?`, sr.SeriesInstanceUID).Scan(&pk); err != nil {
		return 0, pacserrors.NewCatalogError("not_found", fmt.Sprintf("reading back series %s: %v", sr.SeriesInstanceUID, err))
	}
	if err := s.recomputeStudyCounts(ctx, sr.StudyPK); err != nil {
		return pk, err
	}
	return pk, nil
}

// UpsertInstance inserts or updates an instance row idempotently by
// sop_instance_uid, then recomputes the parent series' num_instances and
// cascades to the study's num_instances.
func (s *Store) UpsertInstance(ctx context.Context, i catalog.Instance) (int64, error) {
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instance (series_pk, sop_instance_uid, sop_class_uid, instance_number, storage_location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sop_instance_uid) DO UPDATE SET
			sop_class_uid=excluded.sop_class_uid, instance_number=excluded.instance_number,
			storage_location=excluded.storage_location, updated_at=excluded.updated_at, deleted_at=NULL
	`, i.SeriesPK, i.SOPInstanceUID, i.SOPClassUID, i.InstanceNumber, i.StorageLocation, ts, ts)
	if err != nil {
		return 0, pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("upsert instance %s: %v", i.SOPInstanceUID, err))
	}
	var pk int64
	if err := s.db.QueryRowContext(ctx, `SELECT pk FROM instance WHERE sop_instance_uid = ?`, i.SOPInstanceUID).Scan(&pk); err != nil {
		return 0, pacserrors.NewCatalogError("not_found", fmt.Sprintf("reading back instance %s: %v", i.SOPInstanceUID, err))
	}
	if err := s.recomputeSeriesCounts(ctx, i.SeriesPK); err != nil {
		return pk, err
	}
	var studyPK int64
	if err := s.db.QueryRowContext(ctx, `SELECT study_pk FROM series WHERE pk = ?`, i.SeriesPK).Scan(&studyPK); err != nil {
		return pk, pacserrors.NewCatalogError("not_found", fmt.Sprintf("resolving parent study of series %d: %v", i.SeriesPK, err))
	}
	if err := s.recomputeStudyCounts(ctx, studyPK); err != nil {
		return pk, err
	}
	return pk, nil
}

func (s *Store) recomputeSeriesCounts(ctx context.Context, seriesPK int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE series SET num_instances = (
			SELECT COUNT(*) FROM instance WHERE series_pk = ? AND deleted_at IS NULL
		), updated_at = ? WHERE pk = ?
	`, seriesPK, now(), seriesPK)
	if err != nil {
		return pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("recompute series %d counts: %v", seriesPK, err))
	}
	return nil
}

func (s *Store) recomputeStudyCounts(ctx context.Context, studyPK int64) error {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT modality FROM series WHERE study_pk = ? AND modality != ''`, studyPK)
	if err != nil {
		return pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("listing modalities for study %d: %v", studyPK, err))
	}
	var modalities []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			rows.Close()
			return pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("scanning modality for study %d: %v", studyPK, err))
		}
		modalities = append(modalities, m)
	}
	rows.Close()
	sort.Strings(modalities)

	_, err = s.db.ExecContext(ctx, `
		UPDATE study SET
			num_series = (SELECT COUNT(*) FROM series WHERE study_pk = ?),
			num_instances = (
				SELECT COUNT(*) FROM instance i JOIN series sr ON i.series_pk = sr.pk
				WHERE sr.study_pk = ? AND i.deleted_at IS NULL
			),
			modalities_in_study = ?,
			updated_at = ?
		WHERE pk = ?
	`, studyPK, studyPK, strings.Join(modalities, "\\"), now(), studyPK)
	if err != nil {
		return pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("recompute study %d counts: %v", studyPK, err))
	}
	return nil
}

func (s *Store) FindPatient(ctx context.Context, patientID string) (catalog.Patient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT pk, patient_id, name, birth_date, sex, created_at, updated_at FROM patient WHERE patient_id = ?`, patientID)
	return scanPatient(row)
}

func (s *Store) FindStudy(ctx context.Context, studyInstanceUID string) (catalog.Study, error) {
	row := s.db.QueryRowContext(ctx, studySelect+` WHERE study_instance_uid = ?`, studyInstanceUID)
	return scanStudy(row)
}

func (s *Store) FindSeries(ctx context.Context, seriesInstanceUID string) (catalog.Series, error) {
	row := s.db.QueryRowContext(ctx, seriesSelect+` WHERE series_instance_uid = ?`, seriesInstanceUID)
	return scanSeries(row)
}

func (s *Store) FindInstance(ctx context.Context, sopInstanceUID string) (catalog.Instance, error) {
	row := s.db.QueryRowContext(ctx, instanceSelect+` WHERE sop_instance_uid = ? AND deleted_at IS NULL`, sopInstanceUID)
	return scanInstance(row)
}

func (s *Store) ListSeriesByStudy(ctx context.Context, studyPK int64) ([]catalog.Series, error) {
	rows, err := s.db.QueryContext(ctx, seriesSelect+` WHERE study_pk = ? ORDER BY series_instance_uid`, studyPK)
	if err != nil {
		return nil, pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	defer rows.Close()
	var out []catalog.Series
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, nil
}

func (s *Store) ListInstancesBySeries(ctx context.Context, seriesPK int64) ([]catalog.Instance, error) {
	rows, err := s.db.QueryContext(ctx, instanceSelect+` WHERE series_pk = ? AND deleted_at IS NULL ORDER BY sop_instance_uid`, seriesPK)
	if err != nil {
		return nil, pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	defer rows.Close()
	var out []catalog.Instance
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func (s *Store) DeleteStudy(ctx context.Context, studyInstanceUID string) error {
	st, err := s.FindStudy(ctx, studyInstanceUID)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM instance WHERE series_pk IN (SELECT pk FROM series WHERE study_pk = ?)
	`, st.PK); err != nil {
		return pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("cascading delete instances for study %s: %v", studyInstanceUID, err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM series WHERE study_pk = ?`, st.PK); err != nil {
		return pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("cascading delete series for study %s: %v", studyInstanceUID, err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM study WHERE pk = ?`, st.PK); err != nil {
		return pacserrors.NewCatalogError("constraint_violation", fmt.Sprintf("deleting study %s: %v", studyInstanceUID, err))
	}
	return tx.Commit()
}
