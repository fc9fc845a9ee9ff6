// Package models defines the catalog's row types and query filters.
package models

import "time"

// Photo is the canonical catalog record for one image file.
type Photo struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`

	Extension string `json:"extension"`
	FileName  string `json:"file_name"`
	ByteSize  int64  `json:"byte_size"`
	ModTime   int64  `json:"mod_time"` // unix seconds
	ContentHash string `json:"content_hash"`

	Make              string `json:"make,omitempty"`
	Model             string `json:"model,omitempty"`
	Lens              string `json:"lens,omitempty"`
	DateTaken         *int64 `json:"date_taken,omitempty"` // unix seconds
	ISO               *int   `json:"iso,omitempty"`
	FNumber           *float64 `json:"fnumber,omitempty"`
	FocalLength       *float64 `json:"focal_length,omitempty"`
	ExposureTime      *float64 `json:"exposure_time,omitempty"`
	ExposureCompensation *float64 `json:"exposure_compensation,omitempty"`

	GPSLat *float64 `json:"gps_lat,omitempty"`
	GPSLng *float64 `json:"gps_lng,omitempty"`

	Width        *int    `json:"width,omitempty"`
	Height       *int    `json:"height,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	PreviewPath   string `json:"preview_path,omitempty"`
	DHash        *int64  `json:"dhash,omitempty"`

	Rating   *int   `json:"rating,omitempty"`
	Picked   bool   `json:"picked"`
	Rejected bool   `json:"rejected"`
	LastModified  int64  `json:"last_modified"`
	ImportBatchID string `json:"import_batch_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tags []Tag `json:"tags,omitempty"`
}

// Tag is a (photo, tag) association, either produced automatically by the
// inference engine or added manually by the user.
type Tag struct {
	PhotoID    int64    `json:"photo_id"`
	Tag        string   `json:"tag"`
	Confidence *float64 `json:"confidence,omitempty"`
	Source     TagSource `json:"source"`
	Locked     bool     `json:"locked"`
}

type TagSource string

const (
	TagSourceAuto   TagSource = "auto"
	TagSourceManual TagSource = "manual"
)

// Embedding is the one-to-one color-histogram vector for a photo.
type Embedding struct {
	PhotoID int64
	Vector  []float32 // 48-D, L2-normalized
	Norm    float64   // original pre-normalization L2 norm
}

// SmartView names a saved filter combining rating/picked/rejected/import-batch
// predicates.
type SmartView string

const (
	SmartViewUnsorted   SmartView = "UNSORTED"
	SmartViewPicks      SmartView = "PICKS"
	SmartViewRejects    SmartView = "REJECTS"
	SmartViewLastImport SmartView = "LAST_IMPORT"
	SmartViewAll        SmartView = "ALL"
)

// SmartViewCounts holds the five atomic scalar counts exposed to the shell.
type SmartViewCounts struct {
	Unsorted   int64 `json:"unsorted"`
	Picks      int64 `json:"picks"`
	Rejects    int64 `json:"rejects"`
	LastImport int64 `json:"last_import"`
	All        int64 `json:"all"`
}

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// SortKey whitelists the columns a query may order by.
type SortKey string

const (
	SortDateTaken    SortKey = "date_taken"
	SortCreatedAt    SortKey = "created_at"
	SortFileName     SortKey = "file_name"
	SortISO          SortKey = "iso"
	SortFNumber      SortKey = "fnumber"
	SortFocalLength  SortKey = "focal_length"
	SortExposureTime SortKey = "exposure_time"
	SortRating       SortKey = "rating"
	SortPicked       SortKey = "picked"
	SortRejected     SortKey = "rejected"
	SortLastModified SortKey = "last_modified"
	SortImportBatch  SortKey = "import_batch_id"
)

// ValidSortKeys is the whitelist used to reject unknown sort columns before
// they ever reach SQL string building.
var ValidSortKeys = map[SortKey]bool{
	SortDateTaken: true, SortCreatedAt: true, SortFileName: true,
	SortISO: true, SortFNumber: true, SortFocalLength: true,
	SortExposureTime: true, SortRating: true, SortPicked: true,
	SortRejected: true, SortLastModified: true, SortImportBatch: true,
}

// Filter composes a catalog query. Zero-value fields are omitted from the
// WHERE clause.
type Filter struct {
	Search string // matched against file_name/make/model/lens with LIKE

	Make  string
	Model string
	Lens  string

	ISOMin, ISOMax             *int
	FNumberMin, FNumberMax     *float64
	FocalLengthMin, FocalLengthMax *float64
	DateFrom, DateTo           *int64

	HasGPS *bool

	Tags []string // any-of

	SmartView SmartView

	SortBy  SortKey
	SortDir SortDirection

	Limit  int
	Offset int

	// CullMode, when true, defaults SortBy to last_modified instead of
	// date_taken when SortBy is unset.
	CullMode bool
}

// DuplicateGroup is one cluster of photos whose dHashes are within the
// requested Hamming-distance threshold of each other.
type DuplicateGroup struct {
	Representative Photo   `json:"representative"`
	Members        []Photo `json:"members"`
}

// SimilarityResult pairs a photo with its cosine similarity to the query.
type SimilarityResult struct {
	Photo Photo   `json:"photo"`
	Score float64 `json:"score"`
}

// ExifMetadata is the tolerant-of-missing-fields parse of the external EXIF
// extractor's JSON document.
type ExifMetadata struct {
	Make                 string
	Model                string
	Lens                 string
	DateTaken            *int64
	ISO                  *int
	FNumber              *float64
	FocalLength          *float64
	ExposureTime         *float64
	ExposureCompensation *float64
	GPSLat               *float64
	GPSLng               *float64
	Width                *int
	Height               *int
}
