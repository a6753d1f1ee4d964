package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument(t *testing.T) {
	doc := Document(Descriptors(), "1.2.3")

	require.NoError(t, doc.Validate(context.Background()))
	assert.Equal(t, "1.2.3", doc.Info.Version)

	// Два пути на коллекцию и путь загрузок
	assert.Equal(t, 2*len(Descriptors())+1, doc.Paths.Len())

	list := doc.Paths.Value("/api/forms")
	require.NotNil(t, list)
	require.NotNil(t, list.Get)
	require.NotNil(t, list.Post)
	assert.Equal(t, "create_forms", list.Post.OperationID)
	assert.Contains(t, list.Post.RequestBody.Value.Content, "multipart/form-data")

	item := doc.Paths.Value("/api/faqs/{id}")
	require.NotNil(t, item)
	assert.NotNil(t, item.Put)
	assert.NotNil(t, item.Delete)
	assert.NotContains(t, doc.Paths.Value("/api/faqs").Post.RequestBody.Value.Content, "multipart/form-data")

	assert.Contains(t, doc.Components.Schemas, "FormsItem")
	assert.Contains(t, doc.Components.Schemas, "MarqueeItem")
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "SlidesItem", schemaName("slides"))
	assert.Equal(t, "Item", schemaName(""))
}
