package disk

import "errors"

// The helpers in this file are pure functions over per-disk outcomes.
// An upstream erasure routine invokes the same operation against many
// disks in parallel, collects one optional error per disk and composes
// these predicates to decide whether a read or write quorum was met.

// IsAllNotFound returns true only if the list is non-empty and every
// entry is a file-not-found or a file-version-not-found failure.
// A single success (nil entry) or any other failure kind makes it false.
func IsAllNotFound(errs []error) bool {
	for _, err := range errs {
		if err == nil {
			return false
		}
		if errors.Is(err, ErrFileNotFound) || errors.Is(err, ErrFileVersionNotFound) {
			continue
		}
		return false
	}
	return len(errs) > 0
}

// IsErrObjectNotFound returns true if the error means the object is
// genuinely absent rather than the disk being broken.
func IsErrObjectNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound) || errors.Is(err, ErrVolumeNotFound)
}

// IsErrVersionNotFound returns true if the error means the requested
// version of the object is absent.
func IsErrVersionNotFound(err error) bool {
	return errors.Is(err, ErrFileVersionNotFound)
}

// ConvPartErrToInt maps a per-part outcome to its status code.
// Every kind outside the fixed vocabulary collapses to unknown.
func ConvPartErrToInt(err error) int {
	switch {
	case err == nil:
		return CheckPartSuccess
	case errors.Is(err, ErrDiskNotFound):
		return CheckPartDiskNotFound
	case errors.Is(err, ErrVolumeNotFound):
		return CheckPartVolumeNotFound
	case errors.Is(err, ErrFileNotFound):
		return CheckPartFileNotFound
	case errors.Is(err, ErrFileCorrupt):
		return CheckPartFileCorrupt
	default:
		return CheckPartUnknown
	}
}

// HasPartErr returns true if any entry of the status vector is not a success.
func HasPartErr(partErrs []int) bool {
	for _, c := range partErrs {
		if c != CheckPartSuccess {
			return true
		}
	}
	return false
}
