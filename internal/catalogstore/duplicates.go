package catalogstore

import (
	"fmt"
	"math/bits"

	"github.com/your-org/phototag/internal/models"
)

const (
	defaultDupThreshold = 8
	maxDupThreshold     = 20
)

// FindDuplicates groups photos whose dHashes are within Hamming distance
// threshold of each other. Only photos with a non-null dhash participate.
// Groups of size 1 are never returned. The representative of each group is
// the member with the largest pixel area, ties broken by smaller byte size.
func (s *Store) FindDuplicates(threshold int) ([]models.DuplicateGroup, error) {
	if threshold <= 0 {
		threshold = defaultDupThreshold
	}
	if threshold > maxDupThreshold {
		threshold = maxDupThreshold
	}

	rows, err := s.db.Query(photoSelectColumns + ` FROM photos WHERE dhash IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query dhash candidates: %w", err)
	}
	var candidates []models.Photo
	for rows.Next() {
		p, err := scanPhotoRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		candidates = append(candidates, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	n := len(candidates)

	// Greedy clique cover: a candidate only joins a group if its dHash is
	// within threshold of every member already in it, not just one. A
	// chain of pairwise-close photos (A~B~C where A and C exceed
	// threshold) must therefore end up in separate groups rather than
	// being transitively merged.
	var clusters [][]int
	for i := 0; i < n; i++ {
		placed := false
		for gi, members := range clusters {
			fitsAll := true
			for _, j := range members {
				if hamming64(*candidates[i].DHash, *candidates[j].DHash) > threshold {
					fitsAll = false
					break
				}
			}
			if fitsAll {
				clusters[gi] = append(clusters[gi], i)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []int{i})
		}
	}

	var groups []models.DuplicateGroup
	for _, members := range clusters {
		if len(members) < 2 {
			continue
		}
		photos := make([]models.Photo, len(members))
		for i, idx := range members {
			photos[i] = candidates[idx]
		}
		rep := representative(photos)
		groups = append(groups, models.DuplicateGroup{Representative: rep, Members: photos})
	}
	return groups, nil
}

func hamming64(a, b int64) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// representative picks the member with the largest pixel area, ties broken
// by smaller byte size.
func representative(photos []models.Photo) models.Photo {
	best := photos[0]
	bestArea := area(best)
	for _, p := range photos[1:] {
		a := area(p)
		if a > bestArea || (a == bestArea && p.ByteSize < best.ByteSize) {
			best = p
			bestArea = a
		}
	}
	return best
}

func area(p models.Photo) int64 {
	if p.Width == nil || p.Height == nil {
		return 0
	}
	return int64(*p.Width) * int64(*p.Height)
}
