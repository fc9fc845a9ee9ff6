// Package dto holds the wire-level request/response shapes for the
// command surface described in the external interfaces section: one
// struct per command that takes a body, plus the progress/status
// payloads broadcast or returned verbatim.
package dto

import "github.com/your-org/phototag/internal/models"

// ImportFolderRequest is import_folder's body.
type ImportFolderRequest struct {
	Path string `json:"path" binding:"required"`
}

// ImportFolderResponse carries the new job id back to the caller; the
// actual progress stream arrives over the import-progress WebSocket topic.
type ImportFolderResponse struct {
	JobID string `json:"job_id"`
}

// CancelImportFileRequest is cancel_import_file's body.
type CancelImportFileRequest struct {
	Path string `json:"path" binding:"required"`
}

// IsDirectoryRequest/Response back is_directory.
type IsDirectoryRequest struct {
	Path string `json:"path" binding:"required"`
}

type IsDirectoryResponse struct {
	IsDirectory bool `json:"is_directory"`
}

// ShowInFolderRequest is show_in_folder's body.
type ShowInFolderRequest struct {
	Path string `json:"path" binding:"required"`
}

// QueryPhotosRequest mirrors models.Filter at the wire boundary, using
// plain strings/pointers so zero values round-trip as "omitted" rather
// than as the type's zero value.
type QueryPhotosRequest struct {
	Search string `json:"search"`

	Make  string `json:"make"`
	Model string `json:"model"`
	Lens  string `json:"lens"`

	ISOMin         *int     `json:"iso_min,omitempty"`
	ISOMax         *int     `json:"iso_max,omitempty"`
	FNumberMin     *float64 `json:"fnumber_min,omitempty"`
	FNumberMax     *float64 `json:"fnumber_max,omitempty"`
	FocalLengthMin *float64 `json:"focal_length_min,omitempty"`
	FocalLengthMax *float64 `json:"focal_length_max,omitempty"`
	DateFrom       *int64   `json:"date_from,omitempty"`
	DateTo         *int64   `json:"date_to,omitempty"`

	HasGPS *bool `json:"has_gps,omitempty"`

	Tags []string `json:"tags,omitempty"`

	SmartView string `json:"smart_view,omitempty"`

	SortBy  string `json:"sort_by,omitempty"`
	SortDir string `json:"sort_dir,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	CullMode bool `json:"cull_mode,omitempty"`
}

// ToFilter converts the wire request into the query-layer type. Unknown
// SmartView/SortBy/SortDir values pass through as-is; the store layer
// whitelists SortBy against models.ValidSortKeys before use.
func (r QueryPhotosRequest) ToFilter() models.Filter {
	return models.Filter{
		Search:         r.Search,
		Make:           r.Make,
		Model:          r.Model,
		Lens:           r.Lens,
		ISOMin:         r.ISOMin,
		ISOMax:         r.ISOMax,
		FNumberMin:     r.FNumberMin,
		FNumberMax:     r.FNumberMax,
		FocalLengthMin: r.FocalLengthMin,
		FocalLengthMax: r.FocalLengthMax,
		DateFrom:       r.DateFrom,
		DateTo:         r.DateTo,
		HasGPS:         r.HasGPS,
		Tags:           r.Tags,
		SmartView:      models.SmartView(r.SmartView),
		SortBy:         models.SortKey(r.SortBy),
		SortDir:        models.SortDirection(r.SortDir),
		Limit:          r.Limit,
		Offset:         r.Offset,
		CullMode:       r.CullMode,
	}
}

// ManualTagRequest is add_manual_tag/remove_manual_tag's body.
type ManualTagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// SetRatingRequest is set_rating's body; Rating nil clears the rating.
type SetRatingRequest struct {
	Rating *int `json:"rating"`
}

// TogglePickedRequest / ToggleRejectedRequest carry the boolean to set.
type TogglePickedRequest struct {
	Picked bool `json:"picked"`
}

type ToggleRejectedRequest struct {
	Rejected bool `json:"rejected"`
}

// BatchUpdateCullRequest is batch_update_cull's body.
type BatchUpdateCullRequest struct {
	IDs         []int64 `json:"ids" binding:"required"`
	Rating      *int    `json:"rating"`
	ClearRating bool    `json:"clear_rating"`
	Picked      *bool   `json:"picked"`
	Rejected    *bool   `json:"rejected"`
}

type BatchUpdateCullResponse struct {
	Updated int64 `json:"updated"`
}

// FindDuplicatesRequest is find_duplicates's query params; Threshold
// defaults to 8 (the dHash Hamming-distance bound) when zero.
type FindDuplicatesRequest struct {
	Threshold int `json:"threshold,omitempty"`
}

// FindSimilarRequest is find_similar's query params; Limit is clamped to
// [1, 50] per §4.E.
type FindSimilarRequest struct {
	ID    int64 `json:"id" binding:"required"`
	Limit int   `json:"limit,omitempty"`
}

// SetInferenceDeviceRequest is set_inference_device's body.
type SetInferenceDeviceRequest struct {
	Device string `json:"device" binding:"required"`
}

// GreetResponse answers the smoke-test `greet` command.
type GreetResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the uniform JSON body for any failed command.
type ErrorResponse struct {
	Error string `json:"error"`
}
