package disk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Versioned metadata operations of the local engine. Each object is a
// directory holding its metadata descriptor and one data directory per
// stored version.

// readRawMeta reads the raw metadata descriptor of an object, falling
// back to the backup copy if the primary is missing.
func (s *localDisk) readRawMeta(volume, p string) ([]byte, error) {
	obj := s.objectPath(volume, p)

	buf, err := os.ReadFile(filepath.Join(obj, StorageFormatFile))
	if err == nil {
		return buf, nil
	}
	if !os.IsNotExist(err) {
		return nil, toFileError(err)
	}

	buf, err = os.ReadFile(filepath.Join(obj, StorageFormatFileBackup))
	if err != nil {
		return nil, toFileError(err)
	}
	return buf, nil
}

func (s *localDisk) loadMeta(volume, p string) (*xlMeta, error) {
	buf, err := s.readRawMeta(volume, p)
	if err != nil {
		return nil, err
	}
	return decodeXLMeta(buf)
}

// storeMeta persists the descriptor atomically, keeping the previous
// descriptor as backup.
func (s *localDisk) storeMeta(ctx context.Context, volume, p string, m *xlMeta) error {
	buf, err := m.encode()
	if err != nil {
		return err
	}

	obj := s.objectPath(volume, p)
	metaPath := filepath.Join(obj, StorageFormatFile)
	if old, err := os.ReadFile(metaPath); err == nil {
		if err := os.WriteFile(filepath.Join(obj, StorageFormatFileBackup), old, 0o666); err != nil {
			return toFileError(err)
		}
	}

	return s.WriteAll(ctx, volume, path.Join(p, StorageFormatFile), buf)
}

// removeMeta drops a fully emptied object: descriptor, backup, and
// the object directory itself when nothing else remains.
func (s *localDisk) removeMeta(volume, p string) error {
	obj := s.objectPath(volume, p)
	if err := os.Remove(filepath.Join(obj, StorageFormatFile)); err != nil && !os.IsNotExist(err) {
		return toFileError(err)
	}
	os.Remove(filepath.Join(obj, StorageFormatFileBackup))
	os.Remove(obj)
	return nil
}

// WriteMetadata records a new version of the object, creating the
// descriptor if it does not exist yet.
func (s *localDisk) WriteMetadata(ctx context.Context, _, volume, p string, fi FileInfo) error {
	if err := s.checkVolume(volume); err != nil {
		return err
	}

	m, err := s.loadMeta(volume, p)
	if err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			return err
		}
		m = newXLMeta()
	}

	if err := m.addVersion(fi); err != nil {
		return err
	}
	return s.storeMeta(ctx, volume, p, m)
}

// UpdateMetadata replaces an existing version in place.
func (s *localDisk) UpdateMetadata(ctx context.Context, volume, p string, fi FileInfo, opts UpdateMetadataOpts) error {
	if err := s.checkVolume(volume); err != nil {
		return err
	}

	m, err := s.loadMeta(volume, p)
	if err != nil {
		return err
	}

	i := m.findVersionExact(fi.VersionID)
	if i < 0 {
		return ErrFileVersionNotFound
	}
	m.Versions[i] = fi

	if opts.NoPersistence {
		return nil
	}
	return s.storeMeta(ctx, volume, p, m)
}

// ReadVersion resolves one version from the object descriptor. An
// empty version id selects the latest version. Small enough data may
// be loaded inline when requested.
func (s *localDisk) ReadVersion(_ context.Context, _, volume, p, versionID string, opts ReadOptions) (FileInfo, error) {
	if err := s.checkVolume(volume); err != nil {
		return FileInfo{}, err
	}

	m, err := s.loadMeta(volume, p)
	if err != nil {
		return FileInfo{}, err
	}

	i := m.findVersion(versionID)
	if i < 0 {
		if opts.InclFreeVersions {
			for _, fv := range m.FreeVersions {
				if fv.VersionID == versionID {
					fv.Name = p
					return fv, nil
				}
			}
		}
		if versionID == "" {
			return FileInfo{}, ErrFileNotFound
		}
		return FileInfo{}, ErrFileVersionNotFound
	}

	fi := m.Versions[i]
	fi.Name = p

	if opts.ReadData && !fi.Deleted && fi.DataDir != "" && fi.Size > 0 && fi.Size <= smallFileThreshold {
		data, err := os.ReadFile(filepath.Join(s.objectPath(volume, p), fi.DataDir, "part.1"))
		if err == nil {
			fi.Data = data
		}
	}

	return fi, nil
}

// ReadXL returns the raw metadata descriptor bytes.
func (s *localDisk) ReadXL(_ context.Context, volume, p string, _ bool) ([]byte, error) {
	if err := s.checkVolume(volume); err != nil {
		return nil, err
	}
	return s.readRawMeta(volume, p)
}

// DeleteVersion removes one version from the descriptor. Freed data
// directories are parked in the trash unless immediate removal is
// requested, and the parked version stays in the descriptor's free
// list until a later delete addressing its id reclaims it. When the
// last version goes and nothing is parked, the descriptor goes too.
func (s *localDisk) DeleteVersion(ctx context.Context, volume, p string, fi FileInfo, forceDelMarker bool, opts DeleteOptions) error {
	if err := s.checkVolume(volume); err != nil {
		return err
	}

	obj := s.objectPath(volume, p)

	if opts.UndoWrite {
		return s.undoWrite(ctx, volume, p, fi, opts)
	}

	m, err := s.loadMeta(volume, p)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) && fi.Deleted && forceDelMarker {
			// Delete marker on a non-existent object.
			m = newXLMeta()
			if err := m.addVersion(fi); err != nil {
				return err
			}
			return s.storeMeta(ctx, volume, p, m)
		}
		return err
	}

	removed, err := m.deleteVersion(fi.VersionID)
	if err != nil {
		if fv, ok := m.deleteFreeVersion(fi.VersionID); ok {
			// Reclaiming a parked version drops its trash entry.
			if fv.DataDir != "" {
				if err := os.RemoveAll(filepath.Join(s.root, MetaTmpDeletedBucket, fv.DataDir)); err != nil {
					return toFileError(err)
				}
			}
			if len(m.Versions) == 0 && len(m.FreeVersions) == 0 {
				return s.removeMeta(volume, p)
			}
			return s.storeMeta(ctx, volume, p, m)
		}
		if fi.Deleted && forceDelMarker {
			if err := m.addVersion(fi); err != nil {
				return err
			}
			return s.storeMeta(ctx, volume, p, m)
		}
		return err
	}

	if removed.DataDir != "" {
		dd := filepath.Join(obj, removed.DataDir)
		if opts.Immediate {
			if err := os.RemoveAll(dd); err != nil {
				return toFileError(err)
			}
		} else if _, err := os.Lstat(dd); err == nil {
			if err := s.moveToTrash(dd, removed.DataDir); err != nil {
				return err
			}
			m.addFreeVersion(removed)
		}
	}

	if len(m.Versions) == 0 && len(m.FreeVersions) == 0 {
		return s.removeMeta(volume, p)
	}
	return s.storeMeta(ctx, volume, p, m)
}

// undoWrite rolls back a failed write: the freshly written data
// directory is dropped, the superseded one restored from the trash,
// and the new version entry erased from the descriptor.
func (s *localDisk) undoWrite(ctx context.Context, volume, p string, fi FileInfo, opts DeleteOptions) error {
	obj := s.objectPath(volume, p)

	if fi.DataDir != "" {
		if err := os.RemoveAll(filepath.Join(obj, fi.DataDir)); err != nil {
			return toFileError(err)
		}
	}
	if opts.OldDataDir != "" {
		parked := filepath.Join(s.root, MetaTmpDeletedBucket, opts.OldDataDir)
		if _, err := os.Lstat(parked); err == nil {
			if err := os.Rename(parked, filepath.Join(obj, opts.OldDataDir)); err != nil {
				return toFileError(err)
			}
		}
	}

	m, err := s.loadMeta(volume, p)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil
		}
		return err
	}
	if _, err := m.deleteVersion(fi.VersionID); err != nil {
		return nil
	}
	if len(m.Versions) == 0 && len(m.FreeVersions) == 0 {
		return s.removeMeta(volume, p)
	}
	return s.storeMeta(ctx, volume, p, m)
}

// DeleteVersions bulk-deletes versions of several objects. Failures
// are reported per object, positionally.
func (s *localDisk) DeleteVersions(ctx context.Context, volume string, versions []FileInfoVersions, opts DeleteOptions) []error {
	errs := make([]error, len(versions))
	for i, fiv := range versions {
		for _, fi := range fiv.Versions {
			if err := s.DeleteVersion(ctx, volume, fiv.Name, fi, false, opts); err != nil {
				errs[i] = err
				break
			}
		}
	}
	return errs
}

// RenameData atomically publishes a staged write: the staged data
// directory moves under the destination object and the version is
// recorded in the destination descriptor. A superseded data directory
// is parked in the trash under its own name so a later undo can
// restore it.
func (s *localDisk) RenameData(ctx context.Context, srcVolume, srcPath string, fi FileInfo, dstVolume, dstPath string) (RenameDataResp, error) {
	if err := s.checkVolume(srcVolume); err != nil {
		return RenameDataResp{}, err
	}
	if err := s.checkVolume(dstVolume); err != nil {
		return RenameDataResp{}, err
	}

	srcObj := s.objectPath(srcVolume, srcPath)
	dstObj := s.objectPath(dstVolume, dstPath)

	m, err := s.loadMeta(dstVolume, dstPath)
	if err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			return RenameDataResp{}, err
		}
		m = newXLMeta()
	}

	var oldDataDir string
	if i := m.findVersionExact(fi.VersionID); i >= 0 {
		if dd := m.Versions[i].DataDir; dd != "" && dd != fi.DataDir {
			oldDataDir = dd
		}
	}

	if err := os.MkdirAll(dstObj, 0o777); err != nil {
		return RenameDataResp{}, toFileError(err)
	}

	if oldDataDir != "" {
		if _, err := os.Lstat(filepath.Join(dstObj, oldDataDir)); err == nil {
			if err := s.moveToTrash(filepath.Join(dstObj, oldDataDir), oldDataDir); err != nil {
				return RenameDataResp{}, err
			}
		}
	}

	if fi.DataDir != "" {
		if err := os.Rename(filepath.Join(srcObj, fi.DataDir), filepath.Join(dstObj, fi.DataDir)); err != nil {
			return RenameDataResp{}, toFileError(err)
		}
	}

	if err := m.addVersion(fi); err != nil {
		return RenameDataResp{}, err
	}
	if err := s.storeMeta(ctx, dstVolume, dstPath, m); err != nil {
		return RenameDataResp{}, err
	}

	// The staged descriptor is no longer needed.
	os.Remove(filepath.Join(srcObj, StorageFormatFile))
	os.Remove(filepath.Join(srcObj, StorageFormatFileBackup))
	os.Remove(srcObj)

	return RenameDataResp{OldDataDir: oldDataDir}, nil
}

// checkPart inspects a single part file and reports its condition as
// an error, nil meaning the part passed.
func (s *localDisk) checkPart(volume, p, dataDir string, part ObjectPartInfo, verify bool) error {
	pp := filepath.Join(s.objectPath(volume, p), dataDir, fmt.Sprintf("part.%d", part.Number))

	st, err := os.Lstat(pp)
	if err != nil {
		return toFileError(err)
	}
	if !st.Mode().IsRegular() {
		return ErrFileCorrupt
	}
	if part.Size >= 0 && st.Size() != part.Size {
		return ErrFileCorrupt
	}
	if !verify {
		return nil
	}

	if part.Algorithm == "" {
		return nil
	}
	factory, ok := s.hashers[part.Algorithm]
	if !ok {
		return ErrBitrotHashAlgoInvalid
	}

	f, err := os.Open(pp)
	if err != nil {
		return toFileError(err)
	}
	defer f.Close()

	h := factory()
	if _, err := io.Copy(h, f); err != nil {
		return toFileError(err)
	}
	if !bytes.Equal(h.Sum(nil), part.Hash) {
		return ErrFileCorrupt
	}
	return nil
}

func (s *localDisk) checkParts(volume, p string, fi FileInfo, verify bool) (CheckPartsResp, error) {
	resp := CheckPartsResp{Results: make([]int, len(fi.Parts))}

	if _, err := os.Stat(s.root); err != nil {
		for i := range resp.Results {
			resp.Results[i] = CheckPartDiskNotFound
		}
		return resp, nil
	}
	if err := s.checkVolume(volume); err != nil {
		for i := range resp.Results {
			resp.Results[i] = ConvPartErrToInt(err)
		}
		return resp, nil
	}

	for i, part := range fi.Parts {
		resp.Results[i] = ConvPartErrToInt(s.checkPart(volume, p, fi.DataDir, part, verify))
	}
	return resp, nil
}

// CheckParts verifies presence and size of every part of a version.
func (s *localDisk) CheckParts(_ context.Context, volume, p string, fi FileInfo) (CheckPartsResp, error) {
	return s.checkParts(volume, p, fi, false)
}

// VerifyFile additionally re-hashes every part and compares the
// digest against the recorded one.
func (s *localDisk) VerifyFile(_ context.Context, volume, p string, fi FileInfo) (CheckPartsResp, error) {
	return s.checkParts(volume, p, fi, true)
}

// ReadMultiple reads several files below one prefix in a single call,
// bounded by a result count and a total size cap.
func (s *localDisk) ReadMultiple(ctx context.Context, req ReadMultipleReq) ([]ReadMultipleResp, error) {
	if err := s.checkVolume(req.Bucket); err != nil {
		return nil, err
	}

	resps := make([]ReadMultipleResp, 0, len(req.Files))

	var (
		total int64
		found int
	)
	for _, name := range req.Files {
		if err := ctx.Err(); err != nil {
			return resps, err
		}
		if req.MaxResults > 0 && found >= req.MaxResults {
			break
		}

		r := ReadMultipleResp{Bucket: req.Bucket, Prefix: req.Prefix, File: name}
		p := s.objectPath(req.Bucket, path.Join(req.Prefix, name))

		st, err := os.Lstat(p)
		switch {
		case err != nil:
			r.Error = toFileError(err).Error()
		case !st.Mode().IsRegular():
			r.Error = ErrFileNotFound.Error()
		case req.MaxSize > 0 && total+st.Size() > req.MaxSize:
			r.Exists = true
			r.Error = fmt.Sprintf("max size (%d) exceeded", req.MaxSize)
		default:
			r.Exists = true
			r.ModTime = st.ModTime()
			if req.MetadataOnly {
				found++
			} else if data, rerr := os.ReadFile(p); rerr != nil {
				r.Exists = false
				r.Error = toFileError(rerr).Error()
			} else {
				r.Data = data
				total += st.Size()
				found++
			}
		}

		resps = append(resps, r)

		if req.Abort404 && !r.Exists {
			break
		}
	}

	return resps, nil
}

// WalkDir streams directory entries below a base directory as
// newline-delimited JSON. Directories carrying a metadata descriptor
// are emitted as objects with the raw descriptor attached and are not
// descended into.
func (s *localDisk) WalkDir(ctx context.Context, opts WalkDirOptions, wr io.Writer) error {
	if opts.DiskID != "" {
		id, err := s.DiskID()
		if err != nil {
			return err
		}
		if id != "" && id != opts.DiskID {
			return ErrDiskNotFound
		}
	}

	if err := s.checkVolume(opts.Bucket); err != nil {
		return err
	}

	base := s.objectPath(opts.Bucket, opts.BaseDir)
	if _, err := os.Stat(base); err != nil {
		if os.IsNotExist(err) {
			if opts.ReportNotFound {
				return ErrFileNotFound
			}
			return nil
		}
		return toFileError(err)
	}

	enc := json.NewEncoder(wr)
	var n int
	return s.walk(ctx, base, opts.BaseDir, true, opts, enc, &n)
}

func (s *localDisk) walk(ctx context.Context, dir, rel string, top bool, opts WalkDirOptions, enc *json.Encoder, n *int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return toFileError(err)
	}

	emit := func(e WalkEntry) error {
		if err := enc.Encode(e); err != nil {
			return NewIOError(err)
		}
		*n++
		return nil
	}

	for _, entry := range entries {
		if opts.Limit > 0 && *n >= opts.Limit {
			return nil
		}

		name := entry.Name()
		if top && opts.FilterPrefix != "" && !strings.HasPrefix(name, opts.FilterPrefix) {
			continue
		}

		entryRel := path.Join(rel, name)
		if opts.ForwardTo != "" && entryRel < opts.ForwardTo && !strings.HasPrefix(opts.ForwardTo, entryRel) {
			continue
		}

		if !entry.IsDir() {
			if name == StorageFormatFile || name == StorageFormatFileBackup {
				continue
			}
			if err := emit(WalkEntry{Name: entryRel}); err != nil {
				return err
			}
			continue
		}

		meta, err := os.ReadFile(filepath.Join(dir, name, StorageFormatFile))
		if err == nil {
			if err := emit(WalkEntry{Name: entryRel, Meta: meta}); err != nil {
				return err
			}
			continue
		}

		if opts.Recursive {
			if err := s.walk(ctx, filepath.Join(dir, name), entryRel, false, opts, enc, n); err != nil {
				return err
			}
			continue
		}
		if err := emit(WalkEntry{Name: entryRel + "/"}); err != nil {
			return err
		}
	}

	return nil
}
