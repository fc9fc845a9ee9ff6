package catalogstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/phototag/internal/models"
)

const photoSelectColumns = `
SELECT id, path, extension, file_name, byte_size, mod_time, content_hash,
	make, model, lens, date_taken, iso, fnumber, focal_length, exposure_time, exposure_compensation,
	gps_lat, gps_lng, width, height, thumbnail_path, preview_path, dhash,
	rating, picked, rejected, last_modified, import_batch_id,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhotoRow(row rowScanner) (*models.Photo, error) {
	var p models.Photo
	var picked, rejected int
	if err := row.Scan(
		&p.ID, &p.Path, &p.Extension, &p.FileName, &p.ByteSize, &p.ModTime, &p.ContentHash,
		&p.Make, &p.Model, &p.Lens, &p.DateTaken, &p.ISO, &p.FNumber, &p.FocalLength, &p.ExposureTime, &p.ExposureCompensation,
		&p.GPSLat, &p.GPSLng, &p.Width, &p.Height, &p.ThumbnailPath, &p.PreviewPath, &p.DHash,
		&p.Rating, &picked, &rejected, &p.LastModified, &p.ImportBatchID,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("photo not found")
		}
		return nil, fmt.Errorf("scan photo: %w", err)
	}
	p.Picked = picked != 0
	p.Rejected = rejected != 0
	return &p, nil
}

// buildWhere composes a WHERE clause and parameter list from a Filter.
// Every column it references is hard-coded in this function, never taken
// from the caller — only values are parameterized.
func buildWhere(f models.Filter) (string, []any, error) {
	var clauses []string
	var args []any

	if f.Search != "" {
		clauses = append(clauses, `(file_name LIKE ? OR make LIKE ? OR model LIKE ? OR lens LIKE ?)`)
		like := "%" + f.Search + "%"
		args = append(args, like, like, like, like)
	}
	if f.Make != "" {
		clauses = append(clauses, `make = ?`)
		args = append(args, f.Make)
	}
	if f.Model != "" {
		clauses = append(clauses, `model = ?`)
		args = append(args, f.Model)
	}
	if f.Lens != "" {
		clauses = append(clauses, `lens = ?`)
		args = append(args, f.Lens)
	}
	if f.ISOMin != nil {
		clauses = append(clauses, `iso >= ?`)
		args = append(args, *f.ISOMin)
	}
	if f.ISOMax != nil {
		clauses = append(clauses, `iso <= ?`)
		args = append(args, *f.ISOMax)
	}
	if f.FNumberMin != nil {
		clauses = append(clauses, `fnumber >= ?`)
		args = append(args, *f.FNumberMin)
	}
	if f.FNumberMax != nil {
		clauses = append(clauses, `fnumber <= ?`)
		args = append(args, *f.FNumberMax)
	}
	if f.FocalLengthMin != nil {
		clauses = append(clauses, `focal_length >= ?`)
		args = append(args, *f.FocalLengthMin)
	}
	if f.FocalLengthMax != nil {
		clauses = append(clauses, `focal_length <= ?`)
		args = append(args, *f.FocalLengthMax)
	}
	if f.DateFrom != nil {
		clauses = append(clauses, `date_taken >= ?`)
		args = append(args, *f.DateFrom)
	}
	if f.DateTo != nil {
		clauses = append(clauses, `date_taken <= ?`)
		args = append(args, *f.DateTo)
	}
	if f.HasGPS != nil {
		if *f.HasGPS {
			clauses = append(clauses, `gps_lat IS NOT NULL`)
		} else {
			clauses = append(clauses, `gps_lat IS NULL`)
		}
	}
	if len(f.Tags) > 0 {
		placeholders := make([]string, len(f.Tags))
		for i, t := range f.Tags {
			placeholders[i] = "?"
			args = append(args, t)
		}
		clauses = append(clauses, fmt.Sprintf(
			`id IN (SELECT photo_id FROM tags WHERE tag IN (%s))`, strings.Join(placeholders, ",")))
	}

	switch f.SmartView {
	case models.SmartViewUnsorted:
		clauses = append(clauses, `picked = 0 AND rejected = 0`)
	case models.SmartViewPicks:
		clauses = append(clauses, `picked = 1 AND rejected = 0`)
	case models.SmartViewRejects:
		clauses = append(clauses, `rejected = 1`)
	case models.SmartViewLastImport:
		clauses = append(clauses, `import_batch_id = (SELECT import_batch_id FROM photos ORDER BY last_modified DESC LIMIT 1)`)
	case models.SmartViewAll, "":
		// no predicate
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	return where, args, nil
}

// resolveSort picks the sort column and direction, rejecting anything
// outside the whitelist before it ever reaches SQL text.
func resolveSort(f models.Filter) (string, string, error) {
	sortBy := f.SortBy
	if sortBy == "" {
		if f.CullMode {
			sortBy = models.SortLastModified
		} else {
			sortBy = models.SortDateTaken
		}
	}
	if !models.ValidSortKeys[sortBy] {
		return "", "", fmt.Errorf("invalid sort key: %s", sortBy)
	}

	dir := f.SortDir
	if dir != models.SortAsc {
		dir = models.SortDesc
	}
	return string(sortBy), string(dir), nil
}

// QueryPhotos runs a filtered, sorted, paginated query and attaches tags to
// every returned row.
func (s *Store) QueryPhotos(f models.Filter) ([]models.Photo, error) {
	where, args, err := buildWhere(f)
	if err != nil {
		return nil, err
	}
	sortCol, sortDir, err := resolveSort(f)
	if err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}

	query := fmt.Sprintf("%s FROM photos %s ORDER BY %s %s LIMIT ? OFFSET ?", photoSelectColumns, where, sortCol, sortDir)
	args = append(args, limit, f.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		p, err := scanPhotoRow(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range photos {
		tags, err := s.tagsFor(photos[i].ID)
		if err != nil {
			return nil, err
		}
		photos[i].Tags = tags
	}
	return photos, nil
}

// BatchUpdateCull applies an optional (rating, picked, rejected) to a list
// of photo ids in a single parameterized UPDATE, touching only the
// provided columns plus last_modified. An empty id list is a no-op that
// returns 0.
func (s *Store) BatchUpdateCull(ids []int64, rating *int, clearRating bool, picked, rejected *bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := validateRating(rating); err != nil {
		return 0, err
	}

	var sets []string
	var args []any

	switch {
	case clearRating:
		sets = append(sets, "rating = NULL")
	case rating != nil:
		sets = append(sets, "rating = ?")
		args = append(args, *rating)
	}
	if picked != nil {
		sets = append(sets, "picked = ?")
		args = append(args, *picked)
	}
	if rejected != nil {
		sets = append(sets, "rejected = ?")
		args = append(args, *rejected)
	}
	sets = append(sets, "last_modified = ?")
	args = append(args, time.Now().Unix())

	placeholders := make([]string, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf("UPDATE photos SET %s WHERE id IN (%s)", strings.Join(sets, ", "), strings.Join(placeholders, ","))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("batch update cull: %w", err)
	}
	return res.RowsAffected()
}

// SetRating sets (or clears, when rating is nil) the star rating for one
// photo.
func (s *Store) SetRating(id int64, rating *int) error {
	if err := validateRating(rating); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE photos SET rating = ?, last_modified = ? WHERE id = ?`, rating, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	return nil
}

// validateRating enforces the rating invariant: null or 0..5 inclusive.
func validateRating(rating *int) error {
	if rating != nil && (*rating < 0 || *rating > 5) {
		return fmt.Errorf("invalid rating: %d (must be 0-5)", *rating)
	}
	return nil
}

// TogglePicked sets the picked flag.
func (s *Store) TogglePicked(id int64, picked bool) error {
	_, err := s.db.Exec(`UPDATE photos SET picked = ?, last_modified = ? WHERE id = ?`, picked, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("toggle picked: %w", err)
	}
	return nil
}

// ToggleRejected sets the rejected flag.
func (s *Store) ToggleRejected(id int64, rejected bool) error {
	_, err := s.db.Exec(`UPDATE photos SET rejected = ?, last_modified = ? WHERE id = ?`, rejected, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("toggle rejected: %w", err)
	}
	return nil
}

// SmartViewCounts returns the five scalar counts atomically (within one
// transaction snapshot).
func (s *Store) SmartViewCounts() (models.SmartViewCounts, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.SmartViewCounts{}, fmt.Errorf("begin smart view counts: %w", err)
	}
	defer tx.Rollback()

	var c models.SmartViewCounts
	queries := map[string]*int64{
		`SELECT COUNT(*) FROM photos WHERE picked = 0 AND rejected = 0`: &c.Unsorted,
		`SELECT COUNT(*) FROM photos WHERE picked = 1 AND rejected = 0`: &c.Picks,
		`SELECT COUNT(*) FROM photos WHERE rejected = 1`:                &c.Rejects,
		`SELECT COUNT(*) FROM photos WHERE import_batch_id = (SELECT import_batch_id FROM photos ORDER BY last_modified DESC LIMIT 1)`: &c.LastImport,
		`SELECT COUNT(*) FROM photos`: &c.All,
	}
	for q, dest := range queries {
		if err := tx.QueryRow(q).Scan(dest); err != nil {
			return models.SmartViewCounts{}, fmt.Errorf("count query: %w", err)
		}
	}
	return c, tx.Commit()
}

// ExportCSVRows runs a filtered query and projects the result into the
// (filename, path, camera, lens, date, iso, fnumber, focal, shutter, tags)
// CSV column order.
func (s *Store) ExportCSVRows(f models.Filter) ([][]string, error) {
	photos, err := s.QueryPhotos(f)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(photos)+1)
	rows = append(rows, []string{"filename", "path", "camera", "lens", "date", "iso", "fnumber", "focal", "shutter", "tags"})

	for _, p := range photos {
		var date string
		if p.DateTaken != nil {
			date = time.Unix(*p.DateTaken, 0).UTC().Format(time.RFC3339)
		}
		camera := strings.TrimSpace(p.Make + " " + p.Model)

		tagNames := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			tagNames[i] = t.Tag
		}

		rows = append(rows, []string{
			p.FileName,
			p.Path,
			camera,
			p.Lens,
			date,
			fmtOptInt(p.ISO),
			fmtOptFloat(p.FNumber),
			fmtOptFloat(p.FocalLength),
			fmtOptFloat(p.ExposureTime),
			strings.Join(tagNames, ";"),
		})
	}
	return rows, nil
}

func fmtOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func fmtOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}
