package catalogstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/your-org/phototag/internal/models"
)

// UpsertPhoto writes a photo record keyed by path. If a row with the same
// path exists and its (mtime, size) are unchanged, only updated_at is
// touched and the existing id is returned — this is what lets a re-scan of
// an unchanged tree be a no-op beyond a timestamp bump. Otherwise every
// column is written and last_modified/updated_at are refreshed.
func (s *Store) UpsertPhoto(p *models.Photo, importBatchID string) (int64, error) {
	var existingID int64
	var existingMod int64
	var existingSize int64
	err := s.db.QueryRow(
		`SELECT id, mod_time, byte_size FROM photos WHERE path = ?`, p.Path,
	).Scan(&existingID, &existingMod, &existingSize)

	now := time.Now()

	switch {
	case err == sql.ErrNoRows:
		res, err := s.db.Exec(`
			INSERT INTO photos (
				path, extension, file_name, byte_size, mod_time, content_hash,
				make, model, lens, date_taken, iso, fnumber, focal_length, exposure_time, exposure_compensation,
				gps_lat, gps_lng, width, height, thumbnail_path, preview_path, dhash,
				rating, picked, rejected, last_modified, import_batch_id,
				created_at, updated_at
			) VALUES (?,?,?,?,?,?, ?,?,?,?,?,?,?,?,?, ?,?,?,?,?,?,?, ?,?,?,?,?, ?,?)`,
			p.Path, p.Extension, p.FileName, p.ByteSize, p.ModTime, p.ContentHash,
			p.Make, p.Model, p.Lens, p.DateTaken, p.ISO, p.FNumber, p.FocalLength, p.ExposureTime, p.ExposureCompensation,
			p.GPSLat, p.GPSLng, p.Width, p.Height, p.ThumbnailPath, p.PreviewPath, p.DHash,
			p.Rating, p.Picked, p.Rejected, now.Unix(), importBatchID,
			now, now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert photo: %w", err)
		}
		return res.LastInsertId()

	case err != nil:
		return 0, fmt.Errorf("lookup photo by path: %w", err)

	case existingMod == p.ModTime && existingSize == p.ByteSize:
		if _, err := s.db.Exec(`UPDATE photos SET updated_at = ? WHERE id = ?`, now, existingID); err != nil {
			return 0, fmt.Errorf("touch updated_at: %w", err)
		}
		return existingID, nil

	default:
		_, err := s.db.Exec(`
			UPDATE photos SET
				extension=?, file_name=?, byte_size=?, mod_time=?, content_hash=?,
				make=?, model=?, lens=?, date_taken=?, iso=?, fnumber=?, focal_length=?, exposure_time=?, exposure_compensation=?,
				gps_lat=?, gps_lng=?, width=?, height=?, thumbnail_path=?, preview_path=?, dhash=?,
				last_modified=?, import_batch_id=?, updated_at=?
			WHERE id = ?`,
			p.Extension, p.FileName, p.ByteSize, p.ModTime, p.ContentHash,
			p.Make, p.Model, p.Lens, p.DateTaken, p.ISO, p.FNumber, p.FocalLength, p.ExposureTime, p.ExposureCompensation,
			p.GPSLat, p.GPSLng, p.Width, p.Height, p.ThumbnailPath, p.PreviewPath, p.DHash,
			now.Unix(), importBatchID, now,
			existingID,
		)
		if err != nil {
			return 0, fmt.Errorf("update photo: %w", err)
		}
		return existingID, nil
	}
}

// LookupByPath returns (mtime, size, ok) for the catalog row at path, used
// by the EXIF stage to decide whether a file needs re-processing.
func (s *Store) LookupByPath(path string) (modTime, byteSize int64, ok bool, err error) {
	err = s.db.QueryRow(`SELECT mod_time, byte_size FROM photos WHERE path = ?`, path).Scan(&modTime, &byteSize)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("lookup by path: %w", err)
	}
	return modTime, byteSize, true, nil
}

// ReplaceAutoTags deletes unlocked automatic tags for photoID and inserts
// the new set, skipping any tag name for which a manual tag already exists
// (manual tags always win and are never overwritten by a re-tag).
func (s *Store) ReplaceAutoTags(photoID int64, tags map[string]float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace-auto-tags: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tags WHERE photo_id = ? AND source = 'auto' AND locked = 0`, photoID); err != nil {
		return fmt.Errorf("delete auto tags: %w", err)
	}

	manual := map[string]bool{}
	rows, err := tx.Query(`SELECT tag FROM tags WHERE photo_id = ? AND source = 'manual'`, photoID)
	if err != nil {
		return fmt.Errorf("list manual tags: %w", err)
	}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			rows.Close()
			return fmt.Errorf("scan manual tag: %w", err)
		}
		manual[t] = true
	}
	rows.Close()

	for tag, confidence := range tags {
		if manual[tag] {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO tags (photo_id, tag, confidence, source, locked) VALUES (?,?,?,'auto',0)
			 ON CONFLICT(photo_id, tag) DO UPDATE SET confidence = excluded.confidence`,
			photoID, tag, confidence,
		); err != nil {
			return fmt.Errorf("insert auto tag %q: %w", tag, err)
		}
	}

	return tx.Commit()
}

// AddManualTag inserts a locked, confidence-1.0 manual tag. A second
// identical call is a no-op thanks to the (photo_id, tag) primary key.
func (s *Store) AddManualTag(photoID int64, tag string) error {
	_, err := s.db.Exec(
		`INSERT INTO tags (photo_id, tag, confidence, source, locked) VALUES (?,?,1.0,'manual',1)
		 ON CONFLICT(photo_id, tag) DO NOTHING`,
		photoID, tag,
	)
	if err != nil {
		return fmt.Errorf("add manual tag: %w", err)
	}
	return nil
}

// RemoveManualTag deletes a manual tag.
func (s *Store) RemoveManualTag(photoID int64, tag string) error {
	_, err := s.db.Exec(`DELETE FROM tags WHERE photo_id = ? AND tag = ? AND source = 'manual'`, photoID, tag)
	if err != nil {
		return fmt.Errorf("remove manual tag: %w", err)
	}
	return nil
}

func (s *Store) tagsFor(photoID int64) ([]models.Tag, error) {
	rows, err := s.db.Query(`SELECT photo_id, tag, confidence, source, locked FROM tags WHERE photo_id = ?`, photoID)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		var confidence sql.NullFloat64
		var locked int
		if err := rows.Scan(&t.PhotoID, &t.Tag, &confidence, &t.Source, &locked); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		if confidence.Valid {
			t.Confidence = &confidence.Float64
		}
		t.Locked = locked != 0
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetPhoto fetches one photo row with its tags.
func (s *Store) GetPhoto(id int64) (*models.Photo, error) {
	p, err := scanPhotoRow(s.db.QueryRow(photoSelectColumns+` FROM photos WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	tags, err := s.tagsFor(id)
	if err != nil {
		return nil, err
	}
	p.Tags = tags
	return p, nil
}
