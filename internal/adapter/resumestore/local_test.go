package resumestore_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpathhq/clearpath/internal/adapter/resumestore"
	"github.com/clearpathhq/clearpath/internal/domain"
)

func TestLocal_StoreAndOpen(t *testing.T) {
	t.Parallel()
	store, err := resumestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	handle, err := store.Store(context.Background(), "cv.txt", []byte("ten years of Go"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(handle, "resume://"))

	data, err := store.Open(handle)
	require.NoError(t, err)
	assert.Equal(t, "ten years of Go", string(data))
}

func TestLocal_Store_RejectsBadExtension(t *testing.T) {
	t.Parallel()
	store, err := resumestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Store(context.Background(), "cv.exe", []byte("MZ\x90\x00"))
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = store.Store(context.Background(), "cv.txt", nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestLocal_Store_SniffsContent(t *testing.T) {
	t.Parallel()
	store, err := resumestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	// PNG bytes behind a .pdf name fail the content sniff.
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	_, err = store.Store(context.Background(), "cv.pdf", png)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = store.Store(context.Background(), "cv.pdf", []byte("%PDF-1.4 minimal"))
	require.NoError(t, err)
}

func TestLocal_Open_RejectsTraversal(t *testing.T) {
	t.Parallel()
	store, err := resumestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("resume://../etc/passwd")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = store.Open("not-a-handle")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = store.Open("resume://missing.txt")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
