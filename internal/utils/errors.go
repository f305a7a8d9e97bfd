package utils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
)

type ErrorKind string

const (
	ErrKindUnrecognizedLink       ErrorKind = "unrecognized_link"
	ErrKindFolderSkipped          ErrorKind = "folder_skipped"
	ErrKindInvalidExportFormat    ErrorKind = "invalid_export_format"
	ErrKindConfirmationUnresolved ErrorKind = "confirmation_unresolved"
	ErrKindNetwork                ErrorKind = "network"
	ErrKindFilesystem             ErrorKind = "filesystem"
)

type ErrorReason string

const (
	ReasonNone               ErrorReason = ""
	ReasonTimeout            ErrorReason = "timeout"
	ReasonConnection         ErrorReason = "connection"
	ReasonHTTPStatus         ErrorReason = "http_status"
	ReasonPermission         ErrorReason = "permission"
	ReasonCollisionExhausted ErrorReason = "collision_exhausted"
	ReasonIO                 ErrorReason = "io"
)

type Category string

const (
	CategorySkipped   Category = "skipped"
	CategoryRetry     Category = "retry"
	CategoryAttention Category = "attention"
)

// Category groups kinds by what the operator should do about them.
func (k ErrorKind) Category() Category {
	switch k {
	case ErrKindUnrecognizedLink, ErrKindFolderSkipped:
		return CategorySkipped
	case ErrKindNetwork:
		return CategoryRetry
	default:
		return CategoryAttention
	}
}

type DownloadError struct {
	Kind   ErrorKind
	Reason ErrorReason
	Msg    string
	Err    error
}

func (e *DownloadError) Error() string {
	tag := string(e.Kind)
	if e.Reason != ReasonNone {
		tag += "/" + string(e.Reason)
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", tag, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", tag, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", tag, e.Err)
	}
	return tag
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, reason ErrorReason, msg string, err error) *DownloadError {
	return &DownloadError{Kind: kind, Reason: reason, Msg: msg, Err: err}
}

// AsDownloadError returns the first *DownloadError in err's chain.
func AsDownloadError(err error) (*DownloadError, bool) {
	var de *DownloadError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// NetworkError classifies a transport failure as timeout or connection.
func NetworkError(msg string, err error) *DownloadError {
	if de, ok := AsDownloadError(err); ok {
		return de
	}
	reason := ReasonConnection
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		reason = ReasonTimeout
	}
	return NewError(ErrKindNetwork, reason, msg, err)
}

// FilesystemError classifies a local I/O failure as permission or io.
func FilesystemError(msg string, err error) *DownloadError {
	if de, ok := AsDownloadError(err); ok {
		return de
	}
	reason := ReasonIO
	if errors.Is(err, fs.ErrPermission) {
		reason = ReasonPermission
	}
	return NewError(ErrKindFilesystem, reason, msg, err)
}
