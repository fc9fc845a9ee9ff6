package catalogstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/phototag/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.db")
	s, err := Open(path, 4)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsCreateCullColumns(t *testing.T) {
	s := openTestStore(t)

	cols, err := columnSet(s.db, "photos")
	require.NoError(t, err)
	for _, c := range []string{"rating", "picked", "rejected", "last_modified", "import_batch_id"} {
		require.True(t, cols[c], "missing column %s", c)
	}
}

func TestUpsertPhotoInsertThenTouchOnUnchanged(t *testing.T) {
	s := openTestStore(t)

	p := &models.Photo{Path: "/a/IMG_0001.JPG", Extension: "jpg", FileName: "IMG_0001.JPG", ByteSize: 100, ModTime: 1000, ContentHash: "abc"}
	id1, err := s.UpsertPhoto(p, "batch-1")
	require.NoError(t, err)
	require.NotZero(t, id1)

	id2, err := s.UpsertPhoto(p, "batch-2")
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	got, err := s.GetPhoto(id1)
	require.NoError(t, err)
	require.Equal(t, "batch-1", got.ImportBatchID, "unchanged re-scan must not touch import_batch_id")
}

func TestUpsertPhotoRewritesOnChange(t *testing.T) {
	s := openTestStore(t)

	p := &models.Photo{Path: "/a/IMG_0002.JPG", Extension: "jpg", FileName: "IMG_0002.JPG", ByteSize: 100, ModTime: 1000, ContentHash: "abc"}
	id, err := s.UpsertPhoto(p, "batch-1")
	require.NoError(t, err)

	p.ByteSize = 200
	p.ContentHash = "def"
	id2, err := s.UpsertPhoto(p, "batch-2")
	require.NoError(t, err)
	require.Equal(t, id, id2)

	got, err := s.GetPhoto(id)
	require.NoError(t, err)
	require.Equal(t, "batch-2", got.ImportBatchID)
	require.Equal(t, "def", got.ContentHash)
}

func TestAddManualTagIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	p := &models.Photo{Path: "/a/IMG_0003.JPG", Extension: "jpg", FileName: "IMG_0003.JPG", ByteSize: 1, ModTime: 1, ContentHash: "x"}
	id, err := s.UpsertPhoto(p, "b")
	require.NoError(t, err)

	require.NoError(t, s.AddManualTag(id, "keeper"))
	require.NoError(t, s.AddManualTag(id, "keeper"))

	got, err := s.GetPhoto(id)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	require.Equal(t, models.TagSourceManual, got.Tags[0].Source)
	require.True(t, got.Tags[0].Locked)
}

func TestReplaceAutoTagsPreservesManual(t *testing.T) {
	s := openTestStore(t)
	p := &models.Photo{Path: "/a/IMG_0004.JPG", Extension: "jpg", FileName: "IMG_0004.JPG", ByteSize: 1, ModTime: 1, ContentHash: "x"}
	id, err := s.UpsertPhoto(p, "b")
	require.NoError(t, err)

	require.NoError(t, s.AddManualTag(id, "keeper"))
	require.NoError(t, s.ReplaceAutoTags(id, map[string]float64{"keeper": 0.9, "beach": 0.8}))

	got, err := s.GetPhoto(id)
	require.NoError(t, err)

	bySource := map[string]models.Tag{}
	for _, t := range got.Tags {
		bySource[t.Tag] = t
	}
	require.Equal(t, models.TagSourceManual, bySource["keeper"].Source)
	require.Equal(t, models.TagSourceAuto, bySource["beach"].Source)

	require.NoError(t, s.ReplaceAutoTags(id, map[string]float64{"sunset": 0.7}))
	got2, err := s.GetPhoto(id)
	require.NoError(t, err)
	require.Len(t, got2.Tags, 2) // keeper (manual) + sunset (auto); beach dropped
}

func TestBatchUpdateCullEmptyIDsIsNoop(t *testing.T) {
	s := openTestStore(t)
	n, err := s.BatchUpdateCull(nil, nil, false, nil, nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSetRatingRejectsOutOfRange(t *testing.T) {
	s := openTestStore(t)
	p := &models.Photo{Path: "/a/1.jpg", Extension: "jpg", FileName: "1.jpg", ByteSize: 1, ModTime: 1, ContentHash: "a"}
	id, err := s.UpsertPhoto(p, "batch-1")
	require.NoError(t, err)

	tooHigh := 6
	require.Error(t, s.SetRating(id, &tooHigh))
	tooLow := -1
	require.Error(t, s.SetRating(id, &tooLow))

	got, err := s.GetPhoto(id)
	require.NoError(t, err)
	require.Nil(t, got.Rating)
}

func TestBatchUpdateCullRejectsOutOfRangeRating(t *testing.T) {
	s := openTestStore(t)
	p := &models.Photo{Path: "/a/1.jpg", Extension: "jpg", FileName: "1.jpg", ByteSize: 1, ModTime: 1, ContentHash: "a"}
	id, err := s.UpsertPhoto(p, "batch-1")
	require.NoError(t, err)

	tooHigh := 10
	_, err = s.BatchUpdateCull([]int64{id}, &tooHigh, false, nil, nil)
	require.Error(t, err)
}

func TestSmartViewCounts(t *testing.T) {
	s := openTestStore(t)
	p1 := &models.Photo{Path: "/a/1.jpg", Extension: "jpg", FileName: "1.jpg", ByteSize: 1, ModTime: 1, ContentHash: "a"}
	id1, err := s.UpsertPhoto(p1, "batch-1")
	require.NoError(t, err)

	rating := 5
	picked := true
	rejected := true
	_, err = s.BatchUpdateCull([]int64{id1}, &rating, false, &picked, &rejected)
	require.NoError(t, err)

	counts, err := s.SmartViewCounts()
	require.NoError(t, err)
	require.Equal(t, int64(0), counts.Picks, "picked-but-rejected must not count as a pick")
	require.Equal(t, int64(1), counts.Rejects)
	require.Equal(t, int64(1), counts.All)
}

func TestFindDuplicatesNeverReturnsSingletonGroup(t *testing.T) {
	s := openTestStore(t)
	p := &models.Photo{Path: "/a/solo.jpg", Extension: "jpg", FileName: "solo.jpg", ByteSize: 1, ModTime: 1, ContentHash: "a"}
	id, err := s.UpsertPhoto(p, "b")
	require.NoError(t, err)

	var dhash int64 = 0x1
	_, err = s.db.Exec(`UPDATE photos SET dhash = ? WHERE id = ?`, dhash, id)
	require.NoError(t, err)

	groups, err := s.FindDuplicates(8)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestFindSimilarExcludesSelf(t *testing.T) {
	s := openTestStore(t)
	p1 := &models.Photo{Path: "/a/1.jpg", Extension: "jpg", FileName: "1.jpg", ByteSize: 1, ModTime: 1, ContentHash: "a"}
	p2 := &models.Photo{Path: "/a/2.jpg", Extension: "jpg", FileName: "2.jpg", ByteSize: 1, ModTime: 1, ContentHash: "b"}
	id1, err := s.UpsertPhoto(p1, "b")
	require.NoError(t, err)
	id2, err := s.UpsertPhoto(p2, "b")
	require.NoError(t, err)

	require.NoError(t, s.WriteEmbedding(id1, []float32{1, 0, 0}, 1))
	require.NoError(t, s.WriteEmbedding(id2, []float32{0.9, 0.1, 0}, 1))

	results, err := s.FindSimilar(id1, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, id2, results[0].Photo.ID)
	require.GreaterOrEqual(t, results[0].Score, -1.0)
	require.LessOrEqual(t, results[0].Score, 1.0)
}
