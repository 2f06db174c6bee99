package knowledge

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilvusFilterExpr(t *testing.T) {
	assert.Equal(t, `owner_id == "42"`, milvusFilterExpr(Filter{OwnerID: "42"}))
	assert.Equal(t, `owner_id == "42" && novel_id == "9"`, milvusFilterExpr(Filter{OwnerID: "42", NovelID: "9"}))
	assert.Equal(t, `owner_id == "4\" || owner_id != \""`, milvusFilterExpr(Filter{OwnerID: `4" || owner_id != "`}))
}

func TestMilvusIDExpr(t *testing.T) {
	assert.Equal(t, `doc_id in ["char_1", "scene_2"]`, milvusIDExpr([]string{"char_1", "scene_2"}))
}

func TestMilvusSchema(t *testing.T) {
	schema := milvusSchema("plotcraft_collection", 384)
	require.Len(t, schema.Fields, 7)

	id := schema.Fields[0]
	assert.Equal(t, "doc_id", id.Name)
	assert.True(t, id.PrimaryKey)
	assert.Equal(t, entity.FieldTypeVarChar, id.DataType)

	vector := schema.Fields[6]
	assert.Equal(t, entity.FieldTypeFloatVector, vector.DataType)
	assert.Equal(t, "384", vector.TypeParams["dim"])
}

func TestFormatMilvusDistance(t *testing.T) {
	assert.Equal(t, "COSINE", formatMilvusDistance(""))
	assert.Equal(t, "IP", formatMilvusDistance("dot"))
	assert.Equal(t, "L2", formatMilvusDistance("l2"))
}

func TestCheckDimensions(t *testing.T) {
	assert.NoError(t, checkDimensions([]float32{1, 2, 3, 4}, 4))
	assert.NoError(t, checkDimensions([]float32{1}, 0))
	assert.ErrorIs(t, checkDimensions([]float32{1, 2}, 4), ErrDimensionMismatch)
	assert.ErrorIs(t, checkDimensions(make([]float32, 1536), 384), ErrDimensionMismatch)
}
