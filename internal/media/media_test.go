package media

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUploadAndCheck(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	ref, err := store.Upload(ctx, "Cat.PNG", "image/png", strings.NewReader("png bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "uploads/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	ok, err := store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, CheckRefs(ctx, store, ref, ""))

	err = CheckRefs(ctx, store, ref, "uploads/missing.png")
	var unknown *UnknownRefError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "uploads/missing.png", unknown.Ref)
}

func TestCheckRefsWithoutStore(t *testing.T) {
	assert.NoError(t, CheckRefs(context.Background(), nil, "anything"))
}

func TestObjectNameDropsOddExtensions(t *testing.T) {
	name := objectName("uploads", "../../etc/passwd.averyverylongext")
	assert.NotContains(t, name, "..")
	assert.False(t, strings.Contains(name, "averyverylongext"))
}
