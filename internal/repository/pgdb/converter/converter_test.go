package converter

import (
	"testing"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorConverter_PhotoFaces(t *testing.T) {
	conv := NewDescriptorConverter()
	faces := []domain.FaceDescriptor{
		{Vector: domain.Embedding{0.5, -0.25}, Box: domain.Box{X: 1, Y: 2, Width: 3, Height: 4}},
		{Vector: domain.Embedding{1, 0}, Box: domain.Box{X: 5}},
	}

	models := conv.ToPhotoFaceDescriptorModels(42, faces)
	require.Len(t, models, 2)
	assert.Equal(t, int64(42), models[1].PhotoID)
	assert.Equal(t, 1, models[1].FaceIndex)
	assert.Equal(t, []float32{0.5, -0.25}, models[0].Descriptor.Slice())

	assert.Equal(t, faces[0], conv.ToFaceDescriptor(&models[0]))
}

func TestDescriptorConverter_PersonRecords(t *testing.T) {
	conv := NewDescriptorConverter()
	models := conv.ToPersonDescriptorModels(7, []usecase.PersonDescriptorRecord{
		{PersonImageID: 70, Vector: domain.Embedding{0.125}},
	})

	require.Len(t, models, 1)
	assert.Equal(t, int64(7), models[0].PersonID)
	assert.Equal(t, int64(70), models[0].PersonImageID)
	assert.Equal(t, domain.Embedding{0.125}, conv.ToEmbedding(models[0].Descriptor))
}

func TestDescriptorConverter_EmptyVector(t *testing.T) {
	emb := NewDescriptorConverter().ToEmbedding(pgvector.Vector{})
	assert.Empty(t, emb)
}

func TestPersonConverter(t *testing.T) {
	conv := NewPersonConverter()
	persons := conv.ToArrEntity([]PersonModel{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}})
	assert.Equal(t, []domain.Person{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}}, persons)
	assert.Nil(t, conv.ToEntity(nil))
}
