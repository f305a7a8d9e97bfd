package utils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadErrorFormatting(t *testing.T) {
	t.Parallel()
	base := errors.New("boom")
	err := NewError(ErrKindNetwork, ReasonHTTPStatus, "status 404", base)
	assert.Equal(t, "network/http_status: status 404: boom", err.Error())
	assert.ErrorIs(t, err, base)

	bare := NewError(ErrKindConfirmationUnresolved, ReasonNone, "", nil)
	assert.Equal(t, "confirmation_unresolved", bare.Error())
}

func TestAsDownloadErrorThroughWrapping(t *testing.T) {
	t.Parallel()
	inner := NewError(ErrKindFilesystem, ReasonCollisionExhausted, "doc.pdf", nil)
	wrapped := fmt.Errorf("saving: %w", inner)
	got, ok := AsDownloadError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)

	_, ok = AsDownloadError(errors.New("plain"))
	assert.False(t, ok)
}

func TestNetworkErrorClassification(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ReasonTimeout, NetworkError("get", context.DeadlineExceeded).Reason)
	assert.Equal(t, ReasonTimeout, NetworkError("get", fmt.Errorf("read: %w", context.DeadlineExceeded)).Reason)
	assert.Equal(t, ReasonConnection, NetworkError("get", syscall.ECONNRESET).Reason)

	typed := NewError(ErrKindNetwork, ReasonHTTPStatus, "", nil)
	assert.Same(t, typed, NetworkError("get", typed))
}

func TestFilesystemErrorClassification(t *testing.T) {
	t.Parallel()
	perm := FilesystemError("create", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission})
	assert.Equal(t, ErrKindFilesystem, perm.Kind)
	assert.Equal(t, ReasonPermission, perm.Reason)
	assert.Equal(t, ReasonIO, FilesystemError("write", errors.New("disk full")).Reason)
}

func TestCategories(t *testing.T) {
	t.Parallel()
	assert.Equal(t, CategorySkipped, ErrKindUnrecognizedLink.Category())
	assert.Equal(t, CategorySkipped, ErrKindFolderSkipped.Category())
	assert.Equal(t, CategoryRetry, ErrKindNetwork.Category())
	assert.Equal(t, CategoryAttention, ErrKindFilesystem.Category())
	assert.Equal(t, CategoryAttention, ErrKindConfirmationUnresolved.Category())
}
