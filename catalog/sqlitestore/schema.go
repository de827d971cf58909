package sqlitestore

const schema = `
CREATE TABLE IF NOT EXISTS patient (
	pk          INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id  TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL DEFAULT '',
	birth_date  TEXT NOT NULL DEFAULT '',
	sex         TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_patient_name ON patient(name);

CREATE TABLE IF NOT EXISTS study (
	pk                  INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_pk          INTEGER NOT NULL REFERENCES patient(pk),
	study_instance_uid  TEXT NOT NULL UNIQUE,
	study_id            TEXT NOT NULL DEFAULT '',
	study_date          TEXT NOT NULL DEFAULT '',
	study_time          TEXT NOT NULL DEFAULT '',
	accession_number    TEXT NOT NULL DEFAULT '',
	referring_physician TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	num_series          INTEGER NOT NULL DEFAULT 0,
	num_instances       INTEGER NOT NULL DEFAULT 0,
	modalities_in_study TEXT NOT NULL DEFAULT '',
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_study_patient ON study(patient_pk);
CREATE INDEX IF NOT EXISTS idx_study_accession ON study(accession_number);
CREATE INDEX IF NOT EXISTS idx_study_date ON study(study_date);
CREATE INDEX IF NOT EXISTS idx_study_description ON study(description);

CREATE TABLE IF NOT EXISTS series (
	pk                   INTEGER PRIMARY KEY AUTOINCREMENT,
	study_pk             INTEGER NOT NULL REFERENCES study(pk),
	series_instance_uid  TEXT NOT NULL UNIQUE,
	series_number        TEXT NOT NULL DEFAULT '',
	modality             TEXT NOT NULL DEFAULT '',
	description          TEXT NOT NULL DEFAULT '',
	num_instances        INTEGER NOT NULL DEFAULT 0,
	created_at           TEXT NOT NULL,
	updated_at           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_series_study ON series(study_pk);
CREATE INDEX IF NOT EXISTS idx_series_modality ON series(modality);

CREATE TABLE IF NOT EXISTS instance (
	pk                INTEGER PRIMARY KEY AUTOINCREMENT,
	series_pk         INTEGER NOT NULL REFERENCES series(pk),
	sop_instance_uid  TEXT NOT NULL UNIQUE,
	sop_class_uid     TEXT NOT NULL DEFAULT '',
	instance_number   TEXT NOT NULL DEFAULT '',
	storage_location  TEXT NOT NULL DEFAULT '',
	deleted_at        TEXT,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_instance_series ON instance(series_pk);
CREATE INDEX IF NOT EXISTS idx_instance_sop_class ON instance(sop_class_uid);
`
