package catalogstore

import "fmt"

// TouchImportRoot records (or updates) the last-scanned time for root. The
// per-file catalog-membership check (discover, via LookupByPath) is what
// lets re-imports skip unchanged files; this table is scan history only,
// kept for a future recent-roots surface.
func (s *Store) TouchImportRoot(root string, scannedAt int64) error {
	_, err := s.db.Exec(
		`INSERT INTO import_roots (root, last_scanned) VALUES (?,?)
		 ON CONFLICT(root) DO UPDATE SET last_scanned = excluded.last_scanned`,
		root, scannedAt,
	)
	if err != nil {
		return fmt.Errorf("touch import root: %w", err)
	}
	return nil
}
