package catalog

import "context"

// Store is the catalog's persistence contract: idempotent upserts keyed
// by the natural DICOM identifier at each level, point lookups by
// PatientID or UID, wildcard search returning a Cursor, and
// cascading delete. Implementations must recompute denormalized counts
// (study.num_series, study.num_instances, series.num_instances,
// study.modalities_in_study) as part of every upsert that changes the
// hierarchy below a study.
type Store interface {
	UpsertPatient(ctx context.Context, p Patient) (pk int64, err error)
	UpsertStudy(ctx context.Context, s Study) (pk int64, err error)
	UpsertSeries(ctx context.Context, s Series) (pk int64, err error)
	UpsertInstance(ctx context.Context, i Instance) (pk int64, err error)

	FindPatient(ctx context.Context, patientID string) (Patient, error)
	FindStudy(ctx context.Context, studyInstanceUID string) (Study, error)
	FindSeries(ctx context.Context, seriesInstanceUID string) (Series, error)
	FindInstance(ctx context.Context, sopInstanceUID string) (Instance, error)

	ListSeriesByStudy(ctx context.Context, studyPK int64) ([]Series, error)
	ListInstancesBySeries(ctx context.Context, seriesPK int64) ([]Instance, error)

	SearchPatients(ctx context.Context, q PatientQuery, page Page) (*Cursor, error)
	SearchStudies(ctx context.Context, q StudyQuery, page Page) (*Cursor, error)
	SearchSeries(ctx context.Context, q SeriesQuery, page Page) (*Cursor, error)
	SearchInstances(ctx context.Context, q InstanceQuery, page Page) (*Cursor, error)

	DeleteStudy(ctx context.Context, studyInstanceUID string) error

	Close() error
}
