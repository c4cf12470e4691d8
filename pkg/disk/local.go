package disk

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// localDisk is the filesystem-backed engine. Volumes are direct
// subdirectories of the root, object paths are joined under a volume.
type localDisk struct {
	root     string
	endpoint Endpoint
	location DiskLocation
	rootDisk bool

	hashers map[string]func() Hasher

	// Disk identity, lazily loaded from the format descriptor.
	idMu     sync.Mutex
	id       string
	idLoaded bool

	closed atomic.Bool
}

func newLocalDisk(ep Endpoint, opt DiskOption) (*localDisk, error) {
	root := ep.FilePath()

	if st, err := os.Stat(root); err == nil && !st.IsDir() {
		return nil, ErrDiskNotDir
	}
	if err := os.MkdirAll(root, 0o777); err != nil {
		return nil, toAccessError(err)
	}

	// Materialize the reserved namespaces.
	for _, b := range []string{MetaMultipartBucket, MetaTmpDeletedBucket, filepath.Join(MetaBucket, BucketMetaPrefix)} {
		if err := os.MkdirAll(filepath.Join(root, b), 0o777); err != nil {
			return nil, toAccessError(err)
		}
	}

	if opt.Cleanup {
		// Leftover staging entries from a previous run.
		entries, err := os.ReadDir(filepath.Join(root, MetaTmpBucket))
		if err == nil {
			for _, entry := range entries {
				if entry.Name() == ".trash" {
					continue
				}
				os.RemoveAll(filepath.Join(root, MetaTmpBucket, entry.Name()))
			}
		}
	}

	return &localDisk{
		root:     root,
		endpoint: ep,
		location: ep.Location(),
		rootDisk: isRootDisk(root),
		hashers:  opt.Hashers,
	}, nil
}

func (s *localDisk) String() string {
	return s.root
}

func (s *localDisk) IsOnline() bool {
	if s.closed.Load() {
		return false
	}
	_, err := os.Stat(s.root)
	return err == nil
}

func (s *localDisk) IsLocal() bool {
	return true
}

func (s *localDisk) Hostname() string {
	return "localhost"
}

func (s *localDisk) Endpoint() Endpoint {
	return s.endpoint
}

// Close is idempotent and safe to call concurrently with in-flight
// operations. The local engine holds no long-lived handles.
func (s *localDisk) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *localDisk) Path() string {
	return s.root
}

func (s *localDisk) GetDiskLoc() DiskLocation {
	return s.location
}

// DiskID returns the persisted disk identity. A never formatted
// drive yields an empty identity without an error.
func (s *localDisk) DiskID() (string, error) {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	if s.idLoaded {
		return s.id, nil
	}

	id, err := readFormat(s.root)
	if err != nil {
		return "", err
	}

	s.id = id
	s.idLoaded = true
	return id, nil
}

// SetDiskID persists a new disk identity.
func (s *localDisk) SetDiskID(id string) error {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	if err := writeFormat(s.root, id); err != nil {
		return err
	}

	s.id = id
	s.idLoaded = true
	return nil
}

func (s *localDisk) DiskInfo(_ context.Context, opts DiskInfoOptions) (DiskInfo, error) {
	if opts.NoOp {
		return DiskInfo{}, nil
	}

	info := DiskInfo{
		Endpoint:  s.endpoint.String(),
		MountPath: s.root,
		RootDisk:  s.rootDisk,
	}

	var st unix.Statfs_t
	if err := unix.Statfs(s.root, &st); err != nil {
		info.Error = err.Error()
		return info, toAccessError(err)
	}

	bsize := uint64(st.Bsize)
	info.Total = st.Blocks * bsize
	info.Free = st.Bavail * bsize
	info.Used = (st.Blocks - st.Bfree) * bsize
	info.UsedInodes = st.Files - st.Ffree
	info.FreeInodes = st.Ffree
	info.FSType = fsTypeString(int64(st.Type))

	id, err := s.DiskID()
	if err != nil {
		info.Error = err.Error()
		return info, err
	}
	info.ID = id

	if opts.DiskID != "" && id != "" && opts.DiskID != id {
		return info, ErrDiskNotFound
	}

	return info, nil
}

// Volume operations.

func (s *localDisk) volumePath(volume string) string {
	return filepath.Join(s.root, volume)
}

func (s *localDisk) objectPath(volume, path string) string {
	return filepath.Join(s.root, volume, path)
}

// checkVolume fails with volume-not-found if the volume directory is
// absent.
func (s *localDisk) checkVolume(volume string) error {
	st, err := os.Stat(s.volumePath(volume))
	if err != nil {
		return toVolumeError(err)
	}
	if !st.IsDir() {
		return ErrVolumeNotFound
	}
	return nil
}

// MakeVol creates a volume. Creating an existing volume is not an error.
func (s *localDisk) MakeVol(_ context.Context, volume string) error {
	if err := os.MkdirAll(s.volumePath(volume), 0o777); err != nil {
		return toVolumeError(err)
	}
	return nil
}

func (s *localDisk) MakeVolBulk(ctx context.Context, volumes ...string) error {
	for _, volume := range volumes {
		if err := s.MakeVol(ctx, volume); err != nil {
			return err
		}
	}
	return nil
}

func (s *localDisk) ListVols(_ context.Context) ([]VolInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, toAccessError(err)
	}

	vols := make([]VolInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		vi := VolInfo{Name: entry.Name()}
		if fi, err := entry.Info(); err == nil {
			vi.Created = fi.ModTime()
		}
		vols = append(vols, vi)
	}

	return vols, nil
}

func (s *localDisk) StatVol(_ context.Context, volume string) (VolInfo, error) {
	st, err := os.Stat(s.volumePath(volume))
	if err != nil {
		return VolInfo{}, toVolumeError(err)
	}
	if !st.IsDir() {
		return VolInfo{}, ErrVolumeNotFound
	}

	return VolInfo{Name: volume, Created: st.ModTime()}, nil
}

// DeleteVol removes the volume and its contents.
func (s *localDisk) DeleteVol(_ context.Context, volume string) error {
	p := s.volumePath(volume)
	if _, err := os.Stat(p); err != nil {
		return toVolumeError(err)
	}
	if err := os.RemoveAll(p); err != nil {
		return toVolumeError(err)
	}
	return nil
}

// Streaming file operations.

func (s *localDisk) ListDir(_ context.Context, _, volume, dirPath string, count int) ([]string, error) {
	if err := s.checkVolume(volume); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.objectPath(volume, dirPath))
	if err != nil {
		return nil, toFileError(err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if count > 0 && len(names) >= count {
			break
		}
		if entry.IsDir() {
			names = append(names, entry.Name()+"/")
		} else {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

func (s *localDisk) ReadFile(ctx context.Context, volume, path string) (io.ReadCloser, error) {
	return s.ReadFileStream(ctx, volume, path, 0, -1)
}

func (s *localDisk) ReadFileStream(_ context.Context, volume, path string, offset, length int64) (io.ReadCloser, error) {
	if err := s.checkVolume(volume); err != nil {
		return nil, err
	}

	f, err := os.Open(s.objectPath(volume, path))
	if err != nil {
		return nil, toFileError(err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, toFileError(err)
	}
	if !st.Mode().IsRegular() {
		f.Close()
		return nil, ErrIsNotRegular
	}
	if offset > st.Size() || (length >= 0 && offset+length > st.Size()) {
		f.Close()
		return nil, ErrLessData
	}

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, toFileError(err)
		}
	}

	if length < 0 {
		length = st.Size() - offset
	}
	return &limitReadCloser{r: io.LimitedReader{R: f, N: length}, c: f}, nil
}

// AppendFile opens the file for appending, creating it and its parent
// directories when absent.
func (s *localDisk) AppendFile(_ context.Context, volume, path string) (io.WriteCloser, error) {
	if err := s.checkVolume(volume); err != nil {
		return nil, err
	}

	p := s.objectPath(volume, path)
	if err := os.MkdirAll(filepath.Dir(p), 0o777); err != nil {
		return nil, toFileError(err)
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o666)
	if err != nil {
		return nil, toFileError(err)
	}
	return f, nil
}

// CreateFile creates the file, its parent directories, and truncates
// any previous contents. The size argument is a hint of the final
// file size.
func (s *localDisk) CreateFile(_ context.Context, _, volume, path string, fileSize int64) (io.WriteCloser, error) {
	if err := s.checkVolume(volume); err != nil {
		return nil, err
	}

	p := s.objectPath(volume, path)
	if err := os.MkdirAll(filepath.Dir(p), 0o777); err != nil {
		return nil, toFileError(err)
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o666)
	if err != nil {
		return nil, toFileError(err)
	}
	_ = fileSize // Preallocation hint only.
	return f, nil
}

// RenameFile renames a file across volumes of the same disk. The
// rename is atomic within one filesystem; crossing filesystems
// surfaces a cross-device failure instead of falling back to
// copy+delete, which would break crash consistency upstream.
func (s *localDisk) RenameFile(_ context.Context, srcVolume, srcPath, dstVolume, dstPath string) error {
	if err := s.checkVolume(srcVolume); err != nil {
		return err
	}
	if err := s.checkVolume(dstVolume); err != nil {
		return err
	}

	dst := s.objectPath(dstVolume, dstPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o777); err != nil {
		return toFileError(err)
	}

	if err := os.Rename(s.objectPath(srcVolume, srcPath), dst); err != nil {
		return toFileError(err)
	}
	return nil
}

// RenamePart renames a part file and stores its accompanying metadata
// blob next to the destination.
func (s *localDisk) RenamePart(ctx context.Context, srcVolume, srcPath, dstVolume, dstPath string, meta []byte) error {
	if err := s.RenameFile(ctx, srcVolume, srcPath, dstVolume, dstPath); err != nil {
		return err
	}
	if len(meta) == 0 {
		return nil
	}
	return s.WriteAll(ctx, dstVolume, dstPath+".meta", meta)
}

func (s *localDisk) Delete(_ context.Context, volume, path string, opts DeleteOptions) error {
	if err := s.checkVolume(volume); err != nil {
		return err
	}

	p := s.objectPath(volume, path)
	if _, err := os.Lstat(p); err != nil {
		return toFileError(err)
	}

	if !opts.Recursive {
		return toFileError(os.Remove(p))
	}
	if opts.Immediate {
		return toFileError(os.RemoveAll(p))
	}
	return s.moveToTrash(p, "")
}

func (s *localDisk) DeletePaths(_ context.Context, volume string, paths []string) error {
	if err := s.checkVolume(volume); err != nil {
		return err
	}

	var firstErr error
	for _, path := range paths {
		p := s.objectPath(volume, path)
		if _, err := os.Lstat(p); err != nil {
			// Already gone entries do not fail the batch.
			if os.IsNotExist(err) {
				continue
			}
			if firstErr == nil {
				firstErr = toFileError(err)
			}
			continue
		}
		if err := s.moveToTrash(p, ""); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// WriteAll writes the whole file in one call, atomically: the data is
// staged in the tmp bucket and renamed into place.
func (s *localDisk) WriteAll(_ context.Context, volume, path string, data []byte) error {
	if err := s.checkVolume(volume); err != nil {
		return err
	}

	p := s.objectPath(volume, path)
	if err := os.MkdirAll(filepath.Dir(p), 0o777); err != nil {
		return toFileError(err)
	}

	tmp := filepath.Join(s.root, MetaTmpBucket, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o666); err != nil {
		return toFileError(err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return toFileError(err)
	}
	return nil
}

func (s *localDisk) ReadAll(_ context.Context, volume, path string) ([]byte, error) {
	if err := s.checkVolume(volume); err != nil {
		return nil, err
	}

	buf, err := os.ReadFile(s.objectPath(volume, path))
	if err != nil {
		return nil, toFileError(err)
	}
	return buf, nil
}

// moveToTrash parks the path in the reserved trash bucket for
// deferred removal. The trash lives inside the same root, so the move
// is a single rename.
func (s *localDisk) moveToTrash(p, name string) error {
	trash := filepath.Join(s.root, MetaTmpDeletedBucket)
	if err := os.MkdirAll(trash, 0o777); err != nil {
		return toFileError(err)
	}

	if name == "" {
		name = uuid.NewString()
	}
	if err := os.Rename(p, filepath.Join(trash, name)); err != nil {
		return toFileError(err)
	}
	return nil
}

// limitReadCloser is a ranged file reader.
type limitReadCloser struct {
	r io.LimitedReader
	c io.Closer
}

func (l *limitReadCloser) Read(p []byte) (int, error) {
	return l.r.Read(p)
}

func (l *limitReadCloser) Close() error {
	return l.c.Close()
}

// isRootDisk reports whether the path lives on the same device as the
// root filesystem.
func isRootDisk(p string) bool {
	var st, rootSt unix.Stat_t
	if err := unix.Stat(p, &st); err != nil {
		return false
	}
	if err := unix.Stat("/", &rootSt); err != nil {
		return false
	}
	return st.Dev == rootSt.Dev
}

// fsTypeString maps a statfs magic number to a display name.
func fsTypeString(magic int64) string {
	switch magic {
	case 0xef53:
		return "ext4"
	case 0x58465342:
		return "xfs"
	case 0x9123683e:
		return "btrfs"
	case 0x01021994:
		return "tmpfs"
	case 0x6969:
		return "nfs"
	case 0x2fc12fc1:
		return "zfs"
	default:
		return "unknown"
	}
}
