// Package disk is the disk abstraction layer of the store: one
// capability contract which every storage backend satisfies, a
// filesystem-backed local engine, a network-backed remote client, and
// the failure taxonomy which makes per-disk outcomes aggregatable
// into quorum decisions upstream.
package disk

import (
	"context"
	"crypto/sha256"
	"io"
)

// DiskAPI is the capability contract of one disk. The erasure,
// scanning and healing subsystems drive every disk in a set through
// this interface and treat each disk's outcome independently.
//
// All operations are safe for concurrent use. Failures surface as
// taxonomy errors from this package; an operation a backend does not
// support fails with a not-implemented error carrying the operation
// name, it never succeeds with a placeholder value.
type DiskAPI interface {
	// Identity and health.
	String() string
	IsOnline() bool
	IsLocal() bool
	Hostname() string
	Endpoint() Endpoint
	Close() error
	DiskID() (string, error)
	SetDiskID(id string) error
	Path() string
	GetDiskLoc() DiskLocation
	DiskInfo(ctx context.Context, opts DiskInfoOptions) (DiskInfo, error)

	// Volume operations.
	MakeVol(ctx context.Context, volume string) error
	MakeVolBulk(ctx context.Context, volumes ...string) error
	ListVols(ctx context.Context) ([]VolInfo, error)
	StatVol(ctx context.Context, volume string) (VolInfo, error)
	DeleteVol(ctx context.Context, volume string) error

	// Versioned metadata operations.
	DeleteVersion(ctx context.Context, volume, path string, fi FileInfo, forceDelMarker bool, opts DeleteOptions) error
	DeleteVersions(ctx context.Context, volume string, versions []FileInfoVersions, opts DeleteOptions) []error
	DeletePaths(ctx context.Context, volume string, paths []string) error
	WriteMetadata(ctx context.Context, origvolume, volume, path string, fi FileInfo) error
	UpdateMetadata(ctx context.Context, volume, path string, fi FileInfo, opts UpdateMetadataOpts) error
	ReadVersion(ctx context.Context, origvolume, volume, path, versionID string, opts ReadOptions) (FileInfo, error)
	ReadXL(ctx context.Context, volume, path string, readData bool) ([]byte, error)
	RenameData(ctx context.Context, srcVolume, srcPath string, fi FileInfo, dstVolume, dstPath string) (RenameDataResp, error)

	// Streaming file operations.
	ListDir(ctx context.Context, origvolume, volume, dirPath string, count int) ([]string, error)
	ReadFile(ctx context.Context, volume, path string) (io.ReadCloser, error)
	ReadFileStream(ctx context.Context, volume, path string, offset, length int64) (io.ReadCloser, error)
	AppendFile(ctx context.Context, volume, path string) (io.WriteCloser, error)
	CreateFile(ctx context.Context, origvolume, volume, path string, fileSize int64) (io.WriteCloser, error)
	RenameFile(ctx context.Context, srcVolume, srcPath, dstVolume, dstPath string) error
	RenamePart(ctx context.Context, srcVolume, srcPath, dstVolume, dstPath string, meta []byte) error
	Delete(ctx context.Context, volume, path string, opts DeleteOptions) error
	VerifyFile(ctx context.Context, volume, path string, fi FileInfo) (CheckPartsResp, error)
	CheckParts(ctx context.Context, volume, path string, fi FileInfo) (CheckPartsResp, error)
	ReadMultiple(ctx context.Context, req ReadMultipleReq) ([]ReadMultipleResp, error)
	WriteAll(ctx context.Context, volume, path string, data []byte) error
	ReadAll(ctx context.Context, volume, path string) ([]byte, error)

	// Directory walk. Discovered entries are streamed to wr as json
	// lines instead of being buffered.
	WalkDir(ctx context.Context, opts WalkDirOptions, wr io.Writer) error
}

// DiskOption carries construction options shared by both backends.
type DiskOption struct {
	// Cleanup wipes the reserved tmp bucket on construction.
	Cleanup bool
	// HealthCheck probes the backend on construction.
	HealthCheck bool

	// Hashers resolves bitrot hash algorithm names for part
	// verification. Algorithms absent from the map fail verification
	// with a bitrot-hash-algo-invalid error.
	Hashers map[string]func() Hasher

	// Resolver yields control channel clients for remote endpoints.
	// Required for remote disks, ignored for local ones.
	Resolver Resolver

	// AuthToken is attached to every outbound streaming request of a
	// remote disk.
	AuthToken string
}

// DefaultHashers resolves the bitrot hash algorithms every node
// supports out of the box.
func DefaultHashers() map[string]func() Hasher {
	return map[string]func() Hasher{
		"sha256": func() Hasher { return sha256.New() },
	}
}

// New creates a disk backend for the given endpoint. The backend kind
// is selected once from the endpoint locality flag and never switches
// afterwards.
func New(ep Endpoint, opt DiskOption) (DiskAPI, error) {
	if ep.IsLocal {
		return newLocalDisk(ep, opt)
	}
	return newRemoteDisk(ep, opt)
}
