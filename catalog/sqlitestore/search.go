package sqlitestore

import (
	"context"
	"strings"

	"github.com/caio-sobreiro/pacs/catalog"
	pacserrors "github.com/caio-sobreiro/pacs/errors"
)

// likeClause builds "col LIKE ? ESCAPE '\'" for wildcarded values and
// "col = ?" for exact ones, so exact-match filters can still use the
// column's index.
func likeClause(col, value string) (clause string, arg string) {
	if catalog.HasWildcard(value) {
		return col + ` LIKE ? ESCAPE '\'`, catalog.ToLikePattern(value)
	}
	return col + ` = ?`, value
}

func defaultPage(p catalog.Page) (limit, offset int) {
	limit = p.Limit
	if limit <= 0 {
		limit = 100
	}
	return limit, p.Offset
}

func (s *Store) SearchPatients(ctx context.Context, q catalog.PatientQuery, page catalog.Page) (*catalog.Cursor, error) {
	var where []string
	var args []any
	if q.PatientID != "" {
		c, a := likeClause("patient_id", q.PatientID)
		where, args = append(where, c), append(args, a)
	}
	if q.Name != "" {
		c, a := likeClause("name", q.Name)
		where, args = append(where, c), append(args, a)
	}
	limit, offset := defaultPage(page)
	query := `SELECT pk, patient_id, name, birth_date, sex, created_at, updated_at FROM patient`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY patient_id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return catalog.NewCursor(catalog.KindPatient, out), nil
}

func (s *Store) SearchStudies(ctx context.Context, q catalog.StudyQuery, page catalog.Page) (*catalog.Cursor, error) {
	var where []string
	var args []any
	if q.PatientPK != 0 {
		where, args = append(where, "patient_pk = ?"), append(args, q.PatientPK)
	}
	if q.StudyInstanceUID != "" {
		c, a := likeClause("study_instance_uid", q.StudyInstanceUID)
		where, args = append(where, c), append(args, a)
	}
	if q.AccessionNumber != "" {
		c, a := likeClause("accession_number", q.AccessionNumber)
		where, args = append(where, c), append(args, a)
	}
	if q.Description != "" {
		c, a := likeClause("description", q.Description)
		where, args = append(where, c), append(args, a)
	}
	if q.Modality != "" {
		c, a := likeClause("modalities_in_study", "*"+q.Modality+"*")
		where, args = append(where, c), append(args, a)
	}
	if q.DateFrom != "" {
		where, args = append(where, "study_date >= ?"), append(args, q.DateFrom)
	}
	if q.DateTo != "" {
		where, args = append(where, "study_date <= ?"), append(args, q.DateTo)
	}
	limit, offset := defaultPage(page)
	query := studySelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY study_instance_uid LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		st, err := scanStudy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return catalog.NewCursor(catalog.KindStudy, out), nil
}

func (s *Store) SearchSeries(ctx context.Context, q catalog.SeriesQuery, page catalog.Page) (*catalog.Cursor, error) {
	var where []string
	var args []any
	if q.StudyPK != 0 {
		where, args = append(where, "study_pk = ?"), append(args, q.StudyPK)
	}
	if q.SeriesInstanceUID != "" {
		c, a := likeClause("series_instance_uid", q.SeriesInstanceUID)
		where, args = append(where, c), append(args, a)
	}
	if q.Modality != "" {
		c, a := likeClause("modality", q.Modality)
		where, args = append(where, c), append(args, a)
	}
	if q.Description != "" {
		c, a := likeClause("description", q.Description)
		where, args = append(where, c), append(args, a)
	}
	limit, offset := defaultPage(page)
	query := seriesSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY series_instance_uid LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return catalog.NewCursor(catalog.KindSeries, out), nil
}

func (s *Store) SearchInstances(ctx context.Context, q catalog.InstanceQuery, page catalog.Page) (*catalog.Cursor, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	if q.SeriesPK != 0 {
		where, args = append(where, "series_pk = ?"), append(args, q.SeriesPK)
	}
	if q.SOPInstanceUID != "" {
		c, a := likeClause("sop_instance_uid", q.SOPInstanceUID)
		where, args = append(where, c), append(args, a)
	}
	if q.SOPClassUID != "" {
		c, a := likeClause("sop_class_uid", q.SOPClassUID)
		where, args = append(where, c), append(args, a)
	}
	limit, offset := defaultPage(page)
	query := instanceSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY sop_instance_uid LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pacserrors.NewCatalogError("backend_unavailable", err.Error())
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return catalog.NewCursor(catalog.KindInstance, out), nil
}
