package disk

import (
	"errors"
	"io/fs"
	"syscall"
	"testing"
)

func TestErrorEquality(t *testing.T) {
	// Two io errors with different causes are the same failure class.
	a := NewIOError(syscall.EIO)
	b := NewIOError(syscall.EPIPE)
	if !errors.Is(a, b) {
		t.Error("io errors with different causes should compare equal")
	}
	if !errors.Is(a, ErrIO) {
		t.Error("io error should match the bare sentinel")
	}

	if errors.Is(ErrFileNotFound, ErrVolumeNotFound) {
		t.Error("different kinds should not compare equal")
	}

	// Messages and operation tags do not take part in equality.
	if !errors.Is(NewNotImplementedError("WalkDir"), NewNotImplementedError("ReadXL")) {
		t.Error("not implemented errors should compare equal regardless of op")
	}
	if !errors.Is(NewCustomError("a"), NewCustomError("b")) {
		t.Error("custom errors should compare equal regardless of message")
	}

	// The cause remains reachable through the chain.
	if !errors.Is(a, syscall.EIO) {
		t.Error("io error should unwrap to its cause")
	}
}

func TestNotImplementedCarriesOp(t *testing.T) {
	err := NewNotImplementedError("RenameData")
	if err.Op() != "RenameData" {
		t.Errorf("op = %q, want RenameData", err.Op())
	}
	if err.Error() != "not implemented: RenameData" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestToFileError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{fs.ErrNotExist, ErrFileNotFound},
		{syscall.ENOTDIR, ErrFileNotFound},
		{syscall.EISDIR, ErrFileNotFound},
		{fs.ErrPermission, ErrFileAccessDenied},
		{syscall.EROFS, ErrFileAccessDenied},
		{syscall.ENAMETOOLONG, ErrFileNameTooLong},
		{syscall.EMFILE, ErrTooManyOpenFiles},
		{syscall.ENFILE, ErrTooManyOpenFiles},
		{syscall.ENOSPC, ErrDiskFull},
		{syscall.EXDEV, ErrCrossDeviceLink},
		{syscall.EIO, ErrIO},
	}
	for _, tt := range tests {
		if got := toFileError(tt.in); !errors.Is(got, tt.want) {
			t.Errorf("toFileError(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if toFileError(nil) != nil {
		t.Error("nil should stay nil")
	}
}

func TestToVolumeError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{fs.ErrNotExist, ErrVolumeNotFound},
		{syscall.ENOTDIR, ErrVolumeNotFound},
		{fs.ErrPermission, ErrVolumeAccessDenied},
		{fs.ErrExist, ErrVolumeExists},
		{syscall.ENOTEMPTY, ErrVolumeNotEmpty},
		{syscall.ENOSPC, ErrDiskFull},
	}
	for _, tt := range tests {
		if got := toVolumeError(tt.in); !errors.Is(got, tt.want) {
			t.Errorf("toVolumeError(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToAccessError(t *testing.T) {
	if got := toAccessError(fs.ErrPermission); !errors.Is(got, ErrDiskAccessDenied) {
		t.Errorf("permission = %v, want disk access denied", got)
	}
	if got := toAccessError(fs.ErrNotExist); !errors.Is(got, ErrDiskNotFound) {
		t.Errorf("not exist = %v, want disk not found", got)
	}
}

func TestToUnformattedDiskError(t *testing.T) {
	if got := toUnformattedDiskError(fs.ErrNotExist); !errors.Is(got, ErrUnformattedDisk) {
		t.Errorf("not exist = %v, want unformatted disk", got)
	}
	if got := toUnformattedDiskError(syscall.EIO); !errors.Is(got, ErrIO) {
		t.Errorf("eio = %v, want io error", got)
	}
}

func TestClassifierPassesThroughClassified(t *testing.T) {
	// An already classified failure keeps its class on reclassification.
	for _, f := range []func(error) error{toFileError, toVolumeError, toAccessError, toUnformattedDiskError} {
		if got := f(ErrFileCorrupt); !errors.Is(got, ErrFileCorrupt) {
			t.Errorf("classified error changed class: %v", got)
		}
	}
}

func TestFromRemote(t *testing.T) {
	// A rendered taxonomy message maps back to the same value.
	for _, want := range []*Error{ErrFileNotFound, ErrVolumeNotFound, ErrDiskFull, ErrMaxVersionsExceeded} {
		if got := fromRemote(want.Error()); !errors.Is(got, want) {
			t.Errorf("fromRemote(%q) = %v, want %v", want.Error(), got, want)
		}
	}

	if got := fromRemote("some peer specific failure"); !errors.Is(got, ErrCustom) {
		t.Errorf("unknown message should become a custom error, got %v", got)
	}
}
