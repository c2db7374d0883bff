package matching

import (
	"testing"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func face(v domain.Embedding, x float64) domain.FaceDescriptor {
	return domain.FaceDescriptor{Vector: v, Box: domain.Box{X: x, Y: 10, Width: 50, Height: 60}}
}

func TestMatch_AnnAndBob(t *testing.T) {
	f1 := face(domain.Embedding{0, 0, 0}, 1)
	f2 := face(domain.Embedding{0, 0, 10}, 2)

	catalog := []domain.CatalogEntry{
		{PersonID: 1, Name: "Ann", Descriptors: []domain.Embedding{{0.30, 0, 0}, {0.55, 0, 10}}},
		{PersonID: 2, Name: "Bob", Descriptors: []domain.Embedding{{0, 0.70, 0}, {0, 0.38, 10}}},
	}

	got := Match([]domain.FaceDescriptor{f1, f2}, catalog, DefaultOptions())
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].PersonID)
	assert.Equal(t, "Ann", got[0].Name)
	assert.InDelta(t, 0.30, got[0].Distance, 1e-12)
	assert.Equal(t, f1.Box, got[0].Box)

	assert.Equal(t, int64(2), got[1].PersonID)
	assert.Equal(t, "Bob", got[1].Name)
	assert.InDelta(t, 0.38, got[1].Distance, 1e-12)
	assert.Equal(t, f2.Box, got[1].Box)
}

func TestMatch_ThresholdIsStrict(t *testing.T) {
	tests := []struct {
		name      string
		offset    float64
		wantMatch bool
	}{
		{"exactly at threshold", 0.4, false},
		{"just below threshold", 0.3999, true},
		{"above threshold", 0.41, false},
		{"identical vectors", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := []domain.CatalogEntry{
				{PersonID: 7, Name: "Ann", Descriptors: []domain.Embedding{{tt.offset, 0}}},
			}

			got := Match([]domain.FaceDescriptor{face(domain.Embedding{0, 0}, 0)}, catalog, DefaultOptions())
			if tt.wantMatch {
				require.Len(t, got, 1)
				assert.InDelta(t, tt.offset, got[0].Distance, 1e-12)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestMatch_DedupKeepsClosestFace(t *testing.T) {
	f1 := face(domain.Embedding{0, 0}, 1)
	f2 := face(domain.Embedding{0, 10}, 2)
	catalog := []domain.CatalogEntry{
		{PersonID: 1, Name: "Ann", Descriptors: []domain.Embedding{{0.35, 0}, {0.20, 10}}},
	}

	got := Match([]domain.FaceDescriptor{f1, f2}, catalog, DefaultOptions())
	require.Len(t, got, 1)
	assert.InDelta(t, 0.20, got[0].Distance, 1e-12)
	assert.Equal(t, f2.Box, got[0].Box)
}

func TestMatch_DedupMode(t *testing.T) {
	f1 := face(domain.Embedding{0, 0}, 1)
	f2 := face(domain.Embedding{0, 10}, 2)
	catalog := []domain.CatalogEntry{
		{PersonID: 1, Name: "Alex", Descriptors: []domain.Embedding{{0.1, 0}}},
		{PersonID: 2, Name: "Alex", Descriptors: []domain.Embedding{{0.2, 10}}},
	}
	faces := []domain.FaceDescriptor{f1, f2}

	byID := Match(faces, catalog, Options{Threshold: 0.4, DedupBy: DedupByID})
	assert.Len(t, byID, 2)

	byName := Match(faces, catalog, Options{Threshold: 0.4, DedupBy: DedupByName})
	require.Len(t, byName, 1)
	assert.Equal(t, int64(1), byName[0].PersonID)
}

func TestMatch_EmptyInputs(t *testing.T) {
	catalog := []domain.CatalogEntry{{PersonID: 1, Name: "Ann", Descriptors: []domain.Embedding{{0, 0}}}}
	faces := []domain.FaceDescriptor{face(domain.Embedding{0, 0}, 0)}

	noCatalog := Match(faces, nil, DefaultOptions())
	assert.NotNil(t, noCatalog)
	assert.Empty(t, noCatalog)

	noFaces := Match(nil, catalog, DefaultOptions())
	assert.NotNil(t, noFaces)
	assert.Empty(t, noFaces)
}

func TestMatch_SkipsMalformedVectors(t *testing.T) {
	catalog := []domain.CatalogEntry{
		{PersonID: 1, Name: "Broken", Descriptors: []domain.Embedding{{0, 0, 0}, {}}},
		{PersonID: 2, Name: "Mixed", Descriptors: []domain.Embedding{{0.1}, {0.25, 0}}},
		{PersonID: 3, Name: "Nobody"},
	}
	faces := []domain.FaceDescriptor{
		face(domain.Embedding{0, 0}, 1),
		face(nil, 2),
	}

	got := Match(faces, catalog, DefaultOptions())
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].PersonID)
	assert.InDelta(t, 0.25, got[0].Distance, 1e-12)
}

func TestMatch_TieGoesToFirstCatalogEntry(t *testing.T) {
	catalog := []domain.CatalogEntry{
		{PersonID: 5, Name: "First", Descriptors: []domain.Embedding{{0.1, 0}}},
		{PersonID: 3, Name: "Second", Descriptors: []domain.Embedding{{0, 0.1}}},
	}

	for i := 0; i < 10; i++ {
		got := Match([]domain.FaceDescriptor{face(domain.Embedding{0, 0}, 0)}, catalog, DefaultOptions())
		require.Len(t, got, 1)
		assert.Equal(t, int64(5), got[0].PersonID)
	}
}

func TestMatch_NonPositiveThresholdMatchesNothing(t *testing.T) {
	catalog := []domain.CatalogEntry{{PersonID: 1, Name: "Ann", Descriptors: []domain.Embedding{{0, 0}}}}
	faces := []domain.FaceDescriptor{face(domain.Embedding{0, 0}, 0)}

	assert.Empty(t, Match(faces, catalog, Options{}))
	assert.Empty(t, Match(faces, catalog, Options{Threshold: -1}))
	assert.Len(t, Match(faces, catalog, DefaultOptions()), 1)
}

func TestDistance(t *testing.T) {
	d, ok := Distance(domain.Embedding{0, 3}, domain.Embedding{4, 0})
	require.True(t, ok)
	assert.InDelta(t, 5.0, d, 1e-12)

	_, ok = Distance(domain.Embedding{0, 3}, domain.Embedding{4})
	assert.False(t, ok)

	_, ok = Distance(nil, nil)
	assert.False(t, ok)
}
