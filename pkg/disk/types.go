package disk

import (
	"io"
	"time"
)

// VolInfo represents a bucket-like container on a disk.
type VolInfo struct {
	// Name of the volume.
	Name string
	// Created is the creation time of the volume, zero when unknown.
	Created time.Time
}

// DiskInfo is a point-in-time capacity and health snapshot of a disk.
type DiskInfo struct {
	Total      uint64
	Free       uint64
	Used       uint64
	UsedInodes uint64
	FreeInodes uint64
	FSType     string
	RootDisk   bool
	Rotational bool
	Healing    bool
	Scanning   bool
	Endpoint   string
	MountPath  string
	ID         string
	Error      string
}

// DiskInfoOptions modifies the behavior of the DiskInfo call.
type DiskInfoOptions struct {
	// DiskID is the identity the caller expects the disk to have.
	DiskID string
	// Metrics includes extended metrics into the snapshot.
	Metrics bool
	// NoOp makes the call return an empty snapshot without touching
	// the backend. Used as a liveness probe.
	NoOp bool
}

// DeleteOptions modifies the behavior of delete operations.
type DeleteOptions struct {
	// Recursive removes the whole subtree under the path.
	Recursive bool
	// Immediate removes in place instead of moving into the trash.
	Immediate bool
	// UndoWrite reverts a preceding write: the written data directory
	// is dropped and OldDataDir is restored from the trash.
	UndoWrite bool
	// OldDataDir is the data directory identifier superseded by the
	// write being undone.
	OldDataDir string
}

// UpdateMetadataOpts modifies the behavior of UpdateMetadata.
type UpdateMetadataOpts struct {
	// NoPersistence validates and applies the update without writing
	// it back. Used for staging.
	NoPersistence bool
}

// ReadOptions modifies the behavior of ReadVersion.
type ReadOptions struct {
	// InclFreeVersions searches versions pending space reclamation too.
	InclFreeVersions bool
	// ReadData loads small object data inline into the file info.
	ReadData bool
	// Healing marks the read as issued by the healing subsystem.
	Healing bool
}

// WalkDirOptions governs a directory walk.
type WalkDirOptions struct {
	// Bucket to scan.
	Bucket string `json:"bucket"`
	// BaseDir is the directory inside the bucket.
	BaseDir string `json:"baseDir"`
	// Recursive does a full recursive scan.
	Recursive bool `json:"recursive"`
	// ReportNotFound surfaces a file-not-found failure when the base
	// directory does not exist.
	ReportNotFound bool `json:"reportNotFound"`
	// FilterPrefix only returns results with the given prefix within
	// the base directory. Should never contain a slash.
	FilterPrefix string `json:"filterPrefix,omitempty"`
	// ForwardTo resumes the walk at the given object path.
	ForwardTo string `json:"forwardTo,omitempty"`
	// Limit caps the number of returned entries if above zero.
	Limit int `json:"limit"`
	// DiskID fails the walk when the serving disk has a different
	// identity. Leave empty to skip the check.
	DiskID string `json:"diskID,omitempty"`
}

// WalkEntry is one discovered entry of a directory walk, streamed to
// the caller as a json line. Meta carries the raw object metadata
// when the entry is an object.
type WalkEntry struct {
	Name string `json:"name"`
	Meta []byte `json:"meta,omitempty"`
}

// CheckPartsResp carries one status code per object part, using the
// CheckPart* vocabulary.
type CheckPartsResp struct {
	Results []int
}

// RenameDataResp is the outcome of an atomic rename-with-metadata.
type RenameDataResp struct {
	// OldDataDir is the data directory identifier superseded by the
	// rename, empty when nothing was replaced. The caller schedules
	// it for cleanup.
	OldDataDir string
	// Sign is an opaque signature over the written metadata.
	Sign []byte
}

// ReadMultipleReq is a batched small-file read request.
type ReadMultipleReq struct {
	// Bucket and Prefix locate the files.
	Bucket string
	Prefix string
	// Files are the names to read, relative to the prefix.
	Files []string
	// MaxSize skips any file larger than this if above zero.
	MaxSize int64
	// MetadataOnly omits the file contents from the responses.
	MetadataOnly bool
	// Abort404 stops the batch at the first missing file.
	Abort404 bool
	// MaxResults caps the number of responses if above zero.
	MaxResults int
}

// ReadMultipleResp is the per-file response of a batched read.
// Failures are reported per item, a broken file never aborts the batch
// unless Abort404 asked for it.
type ReadMultipleResp struct {
	Bucket  string
	Prefix  string
	File    string
	Exists  bool
	Error   string
	Data    []byte
	ModTime time.Time
}

// ObjectPartInfo describes one erasure-coded part of an object version.
type ObjectPartInfo struct {
	Number int
	Size   int64
	// Algorithm names the bitrot hash algorithm of Hash. Empty means
	// the part carries no checksum.
	Algorithm string
	Hash      []byte
}

// FileInfo is a single object version.
type FileInfo struct {
	// Name of the object.
	Name string
	// VersionID identifies the version, empty for unversioned objects.
	VersionID string
	// Deleted marks the version as a delete marker.
	Deleted bool
	// DataDir is the identifier of the directory holding the shard
	// data of this version.
	DataDir string
	Size    int64
	ModTime time.Time
	// Parts are the erasure-coded parts of the version.
	Parts []ObjectPartInfo
	// Data holds small object contents inline when a read asked for it.
	Data []byte `json:"-"`
}

// FileInfoVersions is the full version history of an object.
type FileInfoVersions struct {
	// Volume and Name locate the object.
	Volume string
	Name   string
	// LatestModTime is the mod time of the latest version.
	LatestModTime time.Time
	// Versions are ordered latest first.
	Versions []FileInfo
	// FreeVersions are versions pending space reclamation.
	FreeVersions []FileInfo
}

// FindVersionIndex returns the position of the version with the given
// id, or -1 when absent.
func (f *FileInfoVersions) FindVersionIndex(versionID string) int {
	if versionID == "" {
		return -1
	}
	for i := range f.Versions {
		if f.Versions[i].VersionID == versionID {
			return i
		}
	}
	return -1
}

// Hasher is the bitrot hashing capability consumed by part
// verification: a digest over a byte stream with reset and size
// reporting. Standard library hash implementations satisfy it.
type Hasher interface {
	io.Writer
	Sum(b []byte) []byte
	Reset()
	Size() int
	BlockSize() int
}

// Caller is a ready-to-use control channel client for one remote node.
type Caller interface {
	Call(serviceMethod string, args interface{}, reply interface{}) error
	Close() error
}

// Resolver yields control channel clients for node addresses. The
// concrete resolution (dialing, pooling, discovery) lives outside
// this package.
type Resolver interface {
	Resolve(addr string) (Caller, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(addr string) (Caller, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(addr string) (Caller, error) {
	return f(addr)
}
