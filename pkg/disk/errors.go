package disk

import (
	"errors"
	"io/fs"
	"syscall"
)

// errorKind is the closed enumeration of disk failure classes.
type errorKind int

const (
	kindUnexpected errorKind = iota

	// Physical and mount level.
	kindCorruptedFormat
	kindCorruptedBackend
	kindUnformattedDisk
	kindInconsistentDisk
	kindUnsupportedDisk
	kindDiskFull
	kindDiskNotDir
	kindDiskNotFound
	kindDiskOngoingReq
	kindDriveIsRoot
	kindFaultyRemoteDisk
	kindFaultyDisk
	kindDiskAccessDenied

	// Logical volume level.
	kindVolumeNotFound
	kindVolumeExists
	kindVolumeNotEmpty
	kindVolumeAccessDenied

	// Object and version level.
	kindFileNotFound
	kindFileVersionNotFound
	kindFileCorrupt
	kindFileAccessDenied
	kindFileNameTooLong
	kindTooManyOpenFiles
	kindIsNotRegular
	kindPathNotFound
	kindCrossDeviceLink
	kindShortWrite
	kindLessData
	kindMoreData

	// Protocol and erasure level.
	kindBitrotHashAlgoInvalid
	kindOutdatedXLMeta
	kindPartMissingOrCorrupt
	kindErasureWriteQuorum
	kindErasureReadQuorum
	kindMethodNotAllowed
	kindMaxVersionsExceeded
	kindNoHealRequired
	kindNotImplemented
	kindIO
	kindCustom
)

// Error is a disk failure. Every failure which crosses the disk
// contract boundary is one of the closed set of kinds above.
//
// Equality is deliberately defined over the kind only: two io errors
// with different underlying causes compare equal through errors.Is.
// Callers reason about kinds, the embedded message and cause are
// diagnostics only.
type Error struct {
	kind errorKind
	msg  string
	op   string
	err  error
}

// Error returns the message of the failure.
func (e *Error) Error() string {
	switch e.kind {
	case kindNotImplemented:
		return "not implemented: " + e.op
	case kindIO:
		if e.err != nil {
			return "io error: " + e.err.Error()
		}
		return "io error"
	case kindCustom:
		return "custom error: " + e.msg
	default:
		return e.msg
	}
}

// Unwrap returns the low-level cause if any.
func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether the target is a disk error of the same kind.
// The message and the cause are ignored.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.kind == e.kind
}

// Op returns the operation tag of a not-implemented failure.
func (e *Error) Op() string {
	return e.op
}

// Sentinel values, one per kind. Compare with errors.Is.
var (
	ErrUnexpected       = &Error{kind: kindUnexpected, msg: "unexpected error"}
	ErrCorruptedFormat  = &Error{kind: kindCorruptedFormat, msg: "corrupted format"}
	ErrCorruptedBackend = &Error{kind: kindCorruptedBackend, msg: "corrupted backend"}
	ErrUnformattedDisk  = &Error{kind: kindUnformattedDisk, msg: "unformatted disk error"}
	ErrInconsistentDisk = &Error{kind: kindInconsistentDisk, msg: "inconsistent drive found"}
	ErrUnsupportedDisk  = &Error{kind: kindUnsupportedDisk, msg: "drive does not support O_DIRECT"}
	ErrDiskFull         = &Error{kind: kindDiskFull, msg: "drive path full"}
	ErrDiskNotDir       = &Error{kind: kindDiskNotDir, msg: "disk is not a directory"}
	ErrDiskNotFound     = &Error{kind: kindDiskNotFound, msg: "disk not found"}
	ErrDiskOngoingReq   = &Error{kind: kindDiskOngoingReq, msg: "drive still did not complete the request"}
	ErrDriveIsRoot      = &Error{kind: kindDriveIsRoot, msg: "drive is part of root drive, will not be used"}
	ErrFaultyRemoteDisk = &Error{kind: kindFaultyRemoteDisk, msg: "remote drive is faulty"}
	ErrFaultyDisk       = &Error{kind: kindFaultyDisk, msg: "drive is faulty"}
	ErrDiskAccessDenied = &Error{kind: kindDiskAccessDenied, msg: "drive access denied"}

	ErrVolumeNotFound     = &Error{kind: kindVolumeNotFound, msg: "volume not found"}
	ErrVolumeExists       = &Error{kind: kindVolumeExists, msg: "volume already exists"}
	ErrVolumeNotEmpty     = &Error{kind: kindVolumeNotEmpty, msg: "volume is not empty"}
	ErrVolumeAccessDenied = &Error{kind: kindVolumeAccessDenied, msg: "volume access denied"}

	ErrFileNotFound        = &Error{kind: kindFileNotFound, msg: "file not found"}
	ErrFileVersionNotFound = &Error{kind: kindFileVersionNotFound, msg: "file version not found"}
	ErrFileCorrupt         = &Error{kind: kindFileCorrupt, msg: "file is corrupted"}
	ErrFileAccessDenied    = &Error{kind: kindFileAccessDenied, msg: "file access denied"}
	ErrFileNameTooLong     = &Error{kind: kindFileNameTooLong, msg: "file name too long"}
	ErrTooManyOpenFiles    = &Error{kind: kindTooManyOpenFiles, msg: "too many open files, please increase 'ulimit -n'"}
	ErrIsNotRegular        = &Error{kind: kindIsNotRegular, msg: "not of regular file type"}
	ErrPathNotFound        = &Error{kind: kindPathNotFound, msg: "path not found"}
	ErrCrossDeviceLink     = &Error{kind: kindCrossDeviceLink, msg: "rename across devices not allowed, please fix your backend configuration"}
	ErrShortWrite          = &Error{kind: kindShortWrite, msg: "short write"}
	ErrLessData            = &Error{kind: kindLessData, msg: "less data available than what was requested"}
	ErrMoreData            = &Error{kind: kindMoreData, msg: "more data was sent than what was advertised"}

	ErrBitrotHashAlgoInvalid = &Error{kind: kindBitrotHashAlgoInvalid, msg: "bit-rot hash algorithm is invalid"}
	ErrOutdatedXLMeta        = &Error{kind: kindOutdatedXLMeta, msg: "outdated XL meta"}
	ErrPartMissingOrCorrupt  = &Error{kind: kindPartMissingOrCorrupt, msg: "part missing or corrupt"}
	ErrErasureWriteQuorum    = &Error{kind: kindErasureWriteQuorum, msg: "erasure write quorum"}
	ErrErasureReadQuorum     = &Error{kind: kindErasureReadQuorum, msg: "erasure read quorum"}
	ErrMethodNotAllowed      = &Error{kind: kindMethodNotAllowed, msg: "method not allowed"}
	ErrMaxVersionsExceeded   = &Error{kind: kindMaxVersionsExceeded, msg: "maximum versions exceeded, please delete few versions to proceed"}
	ErrNoHealRequired        = &Error{kind: kindNoHealRequired, msg: "no healing is required"}

	// ErrNotImplemented and ErrIO and ErrCustom are the bare sentinels
	// of parameterized kinds. Construct carrying values with
	// NewNotImplementedError, NewIOError and NewCustomError.
	ErrNotImplemented = &Error{kind: kindNotImplemented}
	ErrIO             = &Error{kind: kindIO, msg: "io error"}
	ErrCustom         = &Error{kind: kindCustom}
)

// NewNotImplementedError creates a not implemented error carrying
// the name of the missing operation.
func NewNotImplementedError(operation string) *Error {
	return &Error{kind: kindNotImplemented, op: operation}
}

// NewIOError wraps a low-level failure which matched no specific kind.
func NewIOError(cause error) *Error {
	return &Error{kind: kindIO, err: cause}
}

// NewCustomError creates a custom error with the given message.
// Used when a remote peer reports a failure in free text form.
func NewCustomError(message string) *Error {
	return &Error{kind: kindCustom, msg: message}
}

// sentinels is the lookup table of fromRemote, message to value.
var sentinels = []*Error{
	ErrUnexpected, ErrCorruptedFormat, ErrCorruptedBackend,
	ErrUnformattedDisk, ErrInconsistentDisk, ErrUnsupportedDisk,
	ErrDiskFull, ErrDiskNotDir, ErrDiskNotFound, ErrDiskOngoingReq,
	ErrDriveIsRoot, ErrFaultyRemoteDisk, ErrFaultyDisk,
	ErrDiskAccessDenied,
	ErrVolumeNotFound, ErrVolumeExists, ErrVolumeNotEmpty,
	ErrVolumeAccessDenied,
	ErrFileNotFound, ErrFileVersionNotFound, ErrFileCorrupt,
	ErrFileAccessDenied, ErrFileNameTooLong, ErrTooManyOpenFiles,
	ErrIsNotRegular, ErrPathNotFound, ErrCrossDeviceLink,
	ErrShortWrite, ErrLessData, ErrMoreData,
	ErrBitrotHashAlgoInvalid, ErrOutdatedXLMeta, ErrPartMissingOrCorrupt,
	ErrErasureWriteQuorum, ErrErasureReadQuorum, ErrMethodNotAllowed,
	ErrMaxVersionsExceeded, ErrNoHealRequired,
}

// fromRemote turns a failure message rendered by a peer back into the
// matching taxonomy value, so quorum aggregation treats remote and
// local outcomes alike. Unknown messages come back as custom errors.
func fromRemote(msg string) *Error {
	for _, s := range sentinels {
		if s.msg == msg {
			return s
		}
	}
	return NewCustomError(msg)
}

// isSysErr checks whether the cause of the error is the given errno.
func isSysErr(err error, errno syscall.Errno) bool {
	var se syscall.Errno
	if errors.As(err, &se) {
		return se == errno
	}
	return false
}

// toFileError classifies a raw I/O failure raised by a file operation.
func toFileError(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}

	switch {
	case errors.Is(err, fs.ErrNotExist), isSysErr(err, syscall.ENOTDIR), isSysErr(err, syscall.EISDIR):
		return ErrFileNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrFileAccessDenied
	case isSysErr(err, syscall.ENAMETOOLONG):
		return ErrFileNameTooLong
	case isSysErr(err, syscall.EMFILE), isSysErr(err, syscall.ENFILE):
		return ErrTooManyOpenFiles
	case isSysErr(err, syscall.ENOSPC):
		return ErrDiskFull
	case isSysErr(err, syscall.EXDEV):
		return ErrCrossDeviceLink
	case isSysErr(err, syscall.EROFS):
		return ErrFileAccessDenied
	default:
		return NewIOError(err)
	}
}

// toVolumeError classifies a raw I/O failure raised by a volume operation.
func toVolumeError(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}

	switch {
	case errors.Is(err, fs.ErrNotExist), isSysErr(err, syscall.ENOTDIR):
		return ErrVolumeNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrVolumeAccessDenied
	case errors.Is(err, fs.ErrExist):
		return ErrVolumeExists
	case isSysErr(err, syscall.ENOTEMPTY):
		return ErrVolumeNotEmpty
	case isSysErr(err, syscall.ENOSPC):
		return ErrDiskFull
	default:
		return NewIOError(err)
	}
}

// toAccessError classifies a raw I/O failure raised by a disk level probe.
func toAccessError(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}

	switch {
	case errors.Is(err, fs.ErrPermission):
		return ErrDiskAccessDenied
	case errors.Is(err, fs.ErrNotExist):
		return ErrDiskNotFound
	default:
		return NewIOError(err)
	}
}

// toUnformattedDiskError classifies a raw I/O failure raised while
// reading the disk identity.
func toUnformattedDiskError(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}

	if errors.Is(err, fs.ErrNotExist) {
		return ErrUnformattedDisk
	}
	return NewIOError(err)
}
