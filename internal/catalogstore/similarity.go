package catalogstore

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/your-org/phototag/internal/embedding"
	"github.com/your-org/phototag/internal/models"
)

const maxSimilarityLimit = 50

// FindSimilar returns the k nearest-neighbor photos to photoID by cosine
// similarity over stored (already L2-normalized) embeddings, excluding the
// query photo itself. k is clamped to [1, 50].
func (s *Store) FindSimilar(photoID int64, k int) ([]models.SimilarityResult, error) {
	if k < 1 {
		k = 1
	}
	if k > maxSimilarityLimit {
		k = maxSimilarityLimit
	}

	var queryBuf []byte
	err := s.db.QueryRow(`SELECT vector FROM embeddings WHERE photo_id = ?`, photoID).Scan(&queryBuf)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no embedding stored for photo %d", photoID)
	}
	if err != nil {
		return nil, fmt.Errorf("load query embedding: %w", err)
	}
	queryVec, err := embedding.Deserialize(queryBuf)
	if err != nil {
		return nil, fmt.Errorf("decode query embedding: %w", err)
	}

	rows, err := s.db.Query(`SELECT photo_id, vector FROM embeddings WHERE photo_id != ?`, photoID)
	if err != nil {
		return nil, fmt.Errorf("query candidate embeddings: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id    int64
		score float64
	}
	var all []scored
	for rows.Next() {
		var id int64
		var buf []byte
		if err := rows.Scan(&id, &buf); err != nil {
			return nil, fmt.Errorf("scan candidate embedding: %w", err)
		}
		vec, err := embedding.Deserialize(buf)
		if err != nil {
			continue
		}
		all = append(all, scored{id: id, score: embedding.CosineSimilarity(queryVec, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > k {
		all = all[:k]
	}

	results := make([]models.SimilarityResult, 0, len(all))
	for _, c := range all {
		p, err := s.GetPhoto(c.id)
		if err != nil {
			continue
		}
		results = append(results, models.SimilarityResult{Photo: *p, Score: c.score})
	}
	return results, nil
}

// WriteEmbedding upserts the embedding row for a photo.
func (s *Store) WriteEmbedding(photoID int64, vec []float32, norm float64) error {
	_, err := s.db.Exec(
		`INSERT INTO embeddings (photo_id, vector, norm) VALUES (?,?,?)
		 ON CONFLICT(photo_id) DO UPDATE SET vector = excluded.vector, norm = excluded.norm`,
		photoID, embedding.Serialize(vec), norm,
	)
	if err != nil {
		return fmt.Errorf("write embedding: %w", err)
	}
	return nil
}
