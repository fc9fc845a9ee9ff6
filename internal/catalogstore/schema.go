package catalogstore

// migration0001 creates the original photos/tags schema.
const migration0001 = `
CREATE TABLE IF NOT EXISTS photos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	extension TEXT NOT NULL,
	file_name TEXT NOT NULL,
	byte_size INTEGER NOT NULL,
	mod_time INTEGER NOT NULL,
	content_hash TEXT NOT NULL,

	make TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	lens TEXT NOT NULL DEFAULT '',
	date_taken INTEGER,
	iso INTEGER,
	fnumber REAL,
	focal_length REAL,
	exposure_time REAL,
	exposure_compensation REAL,

	gps_lat REAL,
	gps_lng REAL,

	width INTEGER,
	height INTEGER,
	thumbnail_path TEXT NOT NULL DEFAULT '',
	preview_path TEXT NOT NULL DEFAULT '',
	dhash INTEGER,

	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

	CHECK ((gps_lat IS NULL) = (gps_lng IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_photos_file_name ON photos(file_name);
CREATE INDEX IF NOT EXISTS idx_photos_make_model ON photos(make, model);
CREATE INDEX IF NOT EXISTS idx_photos_date_taken ON photos(date_taken);
CREATE INDEX IF NOT EXISTS idx_photos_dhash ON photos(dhash);

CREATE TABLE IF NOT EXISTS tags (
	photo_id INTEGER NOT NULL,
	tag TEXT NOT NULL,
	confidence REAL,
	source TEXT NOT NULL DEFAULT 'auto',
	locked INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (photo_id, tag),
	FOREIGN KEY (photo_id) REFERENCES photos(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);

CREATE TABLE IF NOT EXISTS embeddings (
	photo_id INTEGER PRIMARY KEY,
	vector BLOB NOT NULL,
	norm REAL NOT NULL,
	FOREIGN KEY (photo_id) REFERENCES photos(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// migration0002 adds the import-roots bookkeeping table, a supplemented
// feature from the original scan-tracking design: it records each
// previously-scanned root and when, for a future recent-roots surface.
// Discovery's own catalog-membership check (LookupByPath) is what skips
// unchanged files on re-import.
const migration0002 = `
CREATE TABLE IF NOT EXISTS import_roots (
	root TEXT PRIMARY KEY,
	last_scanned INTEGER NOT NULL
);
`

// migration0003 columns were absent from databases created under 0001
// alone; they are added by additive column probing in runMigration0003
// rather than plain ALTER TABLE statements, since a plain ALTER would fail
// against a database where some of these columns already exist from a
// prior partial run.
var migration0003Columns = []struct {
	name string
	ddl  string
}{
	{"rating", "ALTER TABLE photos ADD COLUMN rating INTEGER"},
	{"picked", "ALTER TABLE photos ADD COLUMN picked INTEGER NOT NULL DEFAULT 0"},
	{"rejected", "ALTER TABLE photos ADD COLUMN rejected INTEGER NOT NULL DEFAULT 0"},
	{"last_modified", "ALTER TABLE photos ADD COLUMN last_modified INTEGER NOT NULL DEFAULT 0"},
	{"import_batch_id", "ALTER TABLE photos ADD COLUMN import_batch_id TEXT NOT NULL DEFAULT ''"},
}

const migration0003Indexes = `
CREATE INDEX IF NOT EXISTS idx_photos_rating ON photos(rating);
CREATE INDEX IF NOT EXISTS idx_photos_picked ON photos(picked);
CREATE INDEX IF NOT EXISTS idx_photos_rejected ON photos(rejected);
CREATE INDEX IF NOT EXISTS idx_photos_last_modified ON photos(last_modified);
CREATE INDEX IF NOT EXISTS idx_photos_import_batch_id ON photos(import_batch_id);
`
