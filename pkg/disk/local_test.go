package disk

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestDisk(t *testing.T) *localDisk {
	t.Helper()

	ep, err := NewEndpoint(t.TempDir(), 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	d, err := newLocalDisk(ep, DiskOption{
		Cleanup: true,
		Hashers: DefaultHashers(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestLocalDiskReservedNamespaces(t *testing.T) {
	d := newTestDisk(t)

	for _, b := range []string{MetaBucket, MetaMultipartBucket, MetaTmpBucket, MetaTmpDeletedBucket} {
		st, err := os.Stat(filepath.Join(d.Path(), b))
		if err != nil || !st.IsDir() {
			t.Errorf("reserved namespace %q missing: %v", b, err)
		}
	}
}

func TestLocalDiskIdentity(t *testing.T) {
	d := newTestDisk(t)

	// A fresh disk has no identity yet, which is not a failure.
	id, err := d.DiskID()
	if err != nil {
		t.Fatal(err)
	}
	if id != "" {
		t.Errorf("fresh disk id = %q, want empty", id)
	}

	want := uuid.NewString()
	if err := d.SetDiskID(want); err != nil {
		t.Fatal(err)
	}
	if id, _ := d.DiskID(); id != want {
		t.Errorf("id = %q, want %q", id, want)
	}

	// Identity survives reconstruction.
	d2, err := newLocalDisk(d.endpoint, DiskOption{})
	if err != nil {
		t.Fatal(err)
	}
	if id, _ := d2.DiskID(); id != want {
		t.Errorf("reloaded id = %q, want %q", id, want)
	}

	if err := d.SetDiskID("not-a-uuid"); !errors.Is(err, ErrInconsistentDisk) {
		t.Errorf("bad id = %v, want inconsistent disk", err)
	}
}

func TestLocalDiskCorruptFormat(t *testing.T) {
	d := newTestDisk(t)

	p := filepath.Join(d.Path(), MetaBucket, FormatConfigFile)
	if err := os.WriteFile(p, []byte("garbage"), 0o666); err != nil {
		t.Fatal(err)
	}

	d2, err := newLocalDisk(d.endpoint, DiskOption{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d2.DiskID(); !errors.Is(err, ErrCorruptedFormat) {
		t.Errorf("corrupt format = %v, want corrupted format", err)
	}
}

func TestLocalDiskVolumes(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()

	if err := d.MakeVol(ctx, "bucket"); err != nil {
		t.Fatal(err)
	}
	// Creating an existing volume is not an error.
	if err := d.MakeVol(ctx, "bucket"); err != nil {
		t.Errorf("repeated MakeVol = %v", err)
	}

	vi, err := d.StatVol(ctx, "bucket")
	if err != nil {
		t.Fatal(err)
	}
	if vi.Name != "bucket" || vi.Created.IsZero() {
		t.Errorf("vol info = %+v", vi)
	}

	if _, err := d.StatVol(ctx, "missing"); !errors.Is(err, ErrVolumeNotFound) {
		t.Errorf("stat missing = %v, want volume not found", err)
	}
	if err := d.DeleteVol(ctx, "missing"); !errors.Is(err, ErrVolumeNotFound) {
		t.Errorf("delete missing = %v, want volume not found", err)
	}

	if err := d.MakeVolBulk(ctx, "b1", "b2", "b3"); err != nil {
		t.Fatal(err)
	}
	vols, err := d.ListVols(ctx)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, v := range vols {
		names[v.Name] = true
	}
	for _, want := range []string{"bucket", "b1", "b2", "b3", MetaBucket} {
		if !names[want] {
			t.Errorf("ListVols misses %q", want)
		}
	}

	if err := d.DeleteVol(ctx, "bucket"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.StatVol(ctx, "bucket"); !errors.Is(err, ErrVolumeNotFound) {
		t.Errorf("stat deleted = %v, want volume not found", err)
	}
}

func TestLocalDiskReadWrite(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")

	data := []byte("hello disk layer")
	if err := d.WriteAll(ctx, "bucket", "dir/file", data); err != nil {
		t.Fatal(err)
	}
	got, err := d.ReadAll(ctx, "bucket", "dir/file")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("read back %q, want %q", got, data)
	}

	if _, err := d.ReadAll(ctx, "bucket", "missing"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("read missing = %v, want file not found", err)
	}
	if _, err := d.ReadAll(ctx, "nobucket", "f"); !errors.Is(err, ErrVolumeNotFound) {
		t.Errorf("read in missing volume = %v, want volume not found", err)
	}

	// Ranged read.
	rc, err := d.ReadFileStream(ctx, "bucket", "dir/file", 6, 4)
	if err != nil {
		t.Fatal(err)
	}
	part, _ := io.ReadAll(rc)
	rc.Close()
	if string(part) != "disk" {
		t.Errorf("range read %q, want disk", part)
	}

	// Range beyond the file.
	if _, err := d.ReadFileStream(ctx, "bucket", "dir/file", 6, 100); !errors.Is(err, ErrLessData) {
		t.Errorf("oversized range = %v, want less data", err)
	}

	// Streaming write with auto-created parents.
	wc, err := d.CreateFile(ctx, "", "bucket", "a/b/c/file", int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	wc.Write(data)
	if err := wc.Close(); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.ReadAll(ctx, "bucket", "a/b/c/file"); !bytes.Equal(got, data) {
		t.Errorf("streamed write read back %q", got)
	}

	// Append extends the file.
	wc, err = d.AppendFile(ctx, "bucket", "a/b/c/file")
	if err != nil {
		t.Fatal(err)
	}
	wc.Write([]byte("!"))
	wc.Close()
	if got, _ := d.ReadAll(ctx, "bucket", "a/b/c/file"); len(got) != len(data)+1 {
		t.Errorf("append result length = %d, want %d", len(got), len(data)+1)
	}
}

func TestLocalDiskListDir(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")
	d.WriteAll(ctx, "bucket", "dir/f1", []byte("1"))
	d.WriteAll(ctx, "bucket", "dir/sub/f2", []byte("2"))

	entries, err := d.ListDir(ctx, "", "bucket", "dir", -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %v", entries)
	}
	found := map[string]bool{}
	for _, e := range entries {
		found[e] = true
	}
	if !found["f1"] || !found["sub/"] {
		t.Errorf("entries = %v, want f1 and sub/", entries)
	}

	if _, err := d.ListDir(ctx, "", "bucket", "missing", -1); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("list missing = %v, want file not found", err)
	}
}

func TestLocalDiskRenameFile(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "src")
	d.MakeVol(ctx, "dst")
	d.WriteAll(ctx, "src", "f", []byte("payload"))

	if err := d.RenameFile(ctx, "src", "f", "dst", "deep/f"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ReadAll(ctx, "src", "f"); !errors.Is(err, ErrFileNotFound) {
		t.Error("source should be gone after rename")
	}
	if got, _ := d.ReadAll(ctx, "dst", "deep/f"); string(got) != "payload" {
		t.Errorf("renamed content = %q", got)
	}

	if err := d.RenameFile(ctx, "missing", "f", "dst", "f"); !errors.Is(err, ErrVolumeNotFound) {
		t.Errorf("rename from missing volume = %v, want volume not found", err)
	}
	if err := d.RenameFile(ctx, "src", "missing", "dst", "f"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("rename missing file = %v, want file not found", err)
	}
}

func TestLocalDiskDeleteTrash(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")
	d.WriteAll(ctx, "bucket", "obj/data", []byte("x"))

	// Deferred delete moves the subtree into the trash.
	if err := d.Delete(ctx, "bucket", "obj", DeleteOptions{Recursive: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ReadAll(ctx, "bucket", "obj/data"); !errors.Is(err, ErrFileNotFound) {
		t.Error("deleted object should be gone")
	}
	trash, err := os.ReadDir(filepath.Join(d.Path(), MetaTmpDeletedBucket))
	if err != nil {
		t.Fatal(err)
	}
	if len(trash) != 1 {
		t.Errorf("trash entries = %d, want 1", len(trash))
	}

	// Immediate delete bypasses the trash.
	d.WriteAll(ctx, "bucket", "obj2/data", []byte("y"))
	if err := d.Delete(ctx, "bucket", "obj2", DeleteOptions{Recursive: true, Immediate: true}); err != nil {
		t.Fatal(err)
	}
	trash, _ = os.ReadDir(filepath.Join(d.Path(), MetaTmpDeletedBucket))
	if len(trash) != 1 {
		t.Errorf("trash entries after immediate = %d, want still 1", len(trash))
	}

	if err := d.Delete(ctx, "bucket", "missing", DeleteOptions{}); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("delete missing = %v, want file not found", err)
	}
}

func TestLocalDiskDeletePaths(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")
	d.WriteAll(ctx, "bucket", "p1", []byte("1"))
	d.WriteAll(ctx, "bucket", "p2", []byte("2"))

	// Missing entries do not fail the batch.
	if err := d.DeletePaths(ctx, "bucket", []string{"p1", "missing", "p2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ReadAll(ctx, "bucket", "p1"); !errors.Is(err, ErrFileNotFound) {
		t.Error("p1 should be gone")
	}
	if _, err := d.ReadAll(ctx, "bucket", "p2"); !errors.Is(err, ErrFileNotFound) {
		t.Error("p2 should be gone")
	}
}

func writeTestVersion(t *testing.T, d *localDisk, volume, object, versionID string, data []byte) FileInfo {
	t.Helper()
	ctx := context.Background()

	fi := FileInfo{
		Name:      object,
		VersionID: versionID,
		DataDir:   uuid.NewString(),
		Size:      int64(len(data)),
		ModTime:   time.Now(),
	}
	if err := d.WriteAll(ctx, volume, object+"/"+fi.DataDir+"/part.1", data); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteMetadata(ctx, "", volume, object, fi); err != nil {
		t.Fatal(err)
	}
	return fi
}

func TestLocalDiskVersions(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")

	v1 := writeTestVersion(t, d, "bucket", "obj", "v1", []byte("first"))
	time.Sleep(10 * time.Millisecond)
	v2 := writeTestVersion(t, d, "bucket", "obj", "v2", []byte("second"))

	// Empty version id resolves the latest version.
	fi, err := d.ReadVersion(ctx, "", "bucket", "obj", "", ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if fi.VersionID != "v2" {
		t.Errorf("latest = %q, want v2", fi.VersionID)
	}

	// Addressing a version explicitly.
	fi, err = d.ReadVersion(ctx, "", "bucket", "obj", "v1", ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if fi.VersionID != "v1" {
		t.Errorf("explicit read = %q, want v1", fi.VersionID)
	}

	// Small data is loaded inline when asked for.
	fi, err = d.ReadVersion(ctx, "", "bucket", "obj", "v2", ReadOptions{ReadData: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(fi.Data) != "second" {
		t.Errorf("inline data = %q, want second", fi.Data)
	}

	if _, err := d.ReadVersion(ctx, "", "bucket", "obj", "missing", ReadOptions{}); !errors.Is(err, ErrFileVersionNotFound) {
		t.Errorf("missing version = %v, want version not found", err)
	}
	if _, err := d.ReadVersion(ctx, "", "bucket", "nothing", "", ReadOptions{}); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("missing object = %v, want file not found", err)
	}

	// Raw descriptor read.
	raw, err := d.ReadXL(ctx, "bucket", "obj", false)
	if err != nil {
		t.Fatal(err)
	}
	m, err := decodeXLMeta(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Versions) != 2 {
		t.Errorf("descriptor versions = %d, want 2", len(m.Versions))
	}

	// Update in place.
	v1.Size = 12345
	if err := d.UpdateMetadata(ctx, "bucket", "obj", v1, UpdateMetadataOpts{}); err != nil {
		t.Fatal(err)
	}
	fi, _ = d.ReadVersion(ctx, "", "bucket", "obj", "v1", ReadOptions{})
	if fi.Size != 12345 {
		t.Errorf("updated size = %d", fi.Size)
	}
	if err := d.UpdateMetadata(ctx, "bucket", "obj", FileInfo{VersionID: "nope"}, UpdateMetadataOpts{}); !errors.Is(err, ErrFileVersionNotFound) {
		t.Errorf("update missing = %v, want version not found", err)
	}

	// Deleting a version parks its data directory in the trash and
	// records the version in the free list.
	if err := d.DeleteVersion(ctx, "bucket", "obj", v2, false, DeleteOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(d.Path(), MetaTmpDeletedBucket, v2.DataDir)); err != nil {
		t.Error("deleted data dir should sit in the trash")
	}
	if _, err := d.ReadVersion(ctx, "", "bucket", "obj", "v2", ReadOptions{}); !errors.Is(err, ErrFileVersionNotFound) {
		t.Errorf("deleted version read = %v, want version not found", err)
	}
	fi, err = d.ReadVersion(ctx, "", "bucket", "obj", "v2", ReadOptions{InclFreeVersions: true})
	if err != nil {
		t.Fatal(err)
	}
	if fi.Name != "obj" || fi.Size != int64(len("second")) {
		t.Errorf("free version read = %+v", fi)
	}

	// Deleting the last live version keeps the descriptor while parked
	// versions remain.
	if err := d.DeleteVersion(ctx, "bucket", "obj", v1, false, DeleteOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ReadVersion(ctx, "", "bucket", "obj", "", ReadOptions{}); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("read after last delete = %v, want file not found", err)
	}
	if _, err := d.ReadXL(ctx, "bucket", "obj", false); err != nil {
		t.Errorf("descriptor should survive parked versions: %v", err)
	}

	// Reclaiming the parked versions drops their trash entries, and
	// the descriptor goes with the last of them.
	for _, fv := range []FileInfo{v1, v2} {
		if err := d.DeleteVersion(ctx, "bucket", "obj", fv, false, DeleteOptions{}); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(filepath.Join(d.Path(), MetaTmpDeletedBucket, fv.DataDir)); err == nil {
			t.Errorf("trash entry %s should be reclaimed", fv.DataDir)
		}
	}
	if _, err := d.ReadXL(ctx, "bucket", "obj", false); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("descriptor after reclamation = %v, want file not found", err)
	}
}

func TestLocalDiskDeleteMarker(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")

	marker := FileInfo{Name: "obj", VersionID: "dm1", Deleted: true, ModTime: time.Now()}

	// Force-placing a delete marker on a non-existent object.
	if err := d.DeleteVersion(ctx, "bucket", "obj", marker, true, DeleteOptions{}); err != nil {
		t.Fatal(err)
	}
	fi, err := d.ReadVersion(ctx, "", "bucket", "obj", "", ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !fi.Deleted {
		t.Error("latest version should be a delete marker")
	}

	// Without the force flag the same call fails.
	marker2 := FileInfo{Name: "obj", VersionID: "dm2", Deleted: true, ModTime: time.Now()}
	if err := d.DeleteVersion(ctx, "bucket", "obj", marker2, false, DeleteOptions{}); !errors.Is(err, ErrFileVersionNotFound) {
		t.Errorf("unforced marker = %v, want version not found", err)
	}
}

func TestLocalDiskDeleteVersionsBulk(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")

	fi := writeTestVersion(t, d, "bucket", "obj1", "v1", []byte("1"))

	errs := d.DeleteVersions(ctx, "bucket", []FileInfoVersions{
		{Name: "obj1", Versions: []FileInfo{fi}},
		{Name: "ghost", Versions: []FileInfo{{VersionID: "x"}}},
	}, DeleteOptions{})

	if errs[0] != nil {
		t.Errorf("existing object delete = %v", errs[0])
	}
	if !errors.Is(errs[1], ErrFileNotFound) {
		t.Errorf("ghost object delete = %v, want file not found", errs[1])
	}
}

func TestLocalDiskRenameData(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")
	d.MakeVol(ctx, MetaTmpBucket)

	stage := func(versionID, data string) FileInfo {
		fi := FileInfo{
			Name:      "obj",
			VersionID: versionID,
			DataDir:   uuid.NewString(),
			Size:      int64(len(data)),
			ModTime:   time.Now(),
		}
		if err := d.WriteAll(ctx, MetaTmpBucket, "upload/"+fi.DataDir+"/part.1", []byte(data)); err != nil {
			t.Fatal(err)
		}
		return fi
	}

	// First publish.
	fi1 := stage("v1", "first")
	resp, err := d.RenameData(ctx, MetaTmpBucket, "upload", fi1, "bucket", "obj")
	if err != nil {
		t.Fatal(err)
	}
	if resp.OldDataDir != "" {
		t.Errorf("first publish old data dir = %q, want empty", resp.OldDataDir)
	}
	got, err := d.ReadVersion(ctx, "", "bucket", "obj", "v1", ReadOptions{ReadData: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Data) != "first" {
		t.Errorf("published data = %q", got.Data)
	}

	// Re-publishing the same version supersedes the old data dir and
	// parks it in the trash under its own name.
	fi2 := stage("v1", "second")
	fi2.ModTime = fi1.ModTime.Add(time.Second)
	resp, err = d.RenameData(ctx, MetaTmpBucket, "upload", fi2, "bucket", "obj")
	if err != nil {
		t.Fatal(err)
	}
	if resp.OldDataDir != fi1.DataDir {
		t.Errorf("old data dir = %q, want %q", resp.OldDataDir, fi1.DataDir)
	}
	if _, err := os.Stat(filepath.Join(d.Path(), MetaTmpDeletedBucket, fi1.DataDir)); err != nil {
		t.Error("superseded data dir should be parked in the trash")
	}

	// Undo restores the superseded data dir and erases the new entry.
	err = d.DeleteVersion(ctx, "bucket", "obj", fi2, false, DeleteOptions{
		UndoWrite:  true,
		OldDataDir: fi1.DataDir,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(d.Path(), "bucket", "obj", fi1.DataDir)); err != nil {
		t.Error("undo should restore the old data dir")
	}
	if _, err := os.Stat(filepath.Join(d.Path(), "bucket", "obj", fi2.DataDir)); err == nil {
		t.Error("undo should drop the new data dir")
	}
}

func TestLocalDiskReadXLBackupFallback(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")

	writeTestVersion(t, d, "bucket", "obj", "v1", []byte("data"))

	// Losing the primary descriptor still resolves through the backup.
	primary := filepath.Join(d.Path(), "bucket", "obj", StorageFormatFile)
	backup := filepath.Join(d.Path(), "bucket", "obj", StorageFormatFileBackup)
	buf, err := os.ReadFile(primary)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(backup, buf, 0o666); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(primary); err != nil {
		t.Fatal(err)
	}

	if _, err := d.ReadXL(ctx, "bucket", "obj", false); err != nil {
		t.Errorf("backup fallback = %v", err)
	}
	if _, err := d.ReadVersion(ctx, "", "bucket", "obj", "v1", ReadOptions{}); err != nil {
		t.Errorf("read through backup = %v", err)
	}
}

func TestLocalDiskCheckParts(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")

	data := []byte("part contents")
	sum := sha256.Sum256(data)

	fi := FileInfo{
		Name:      "obj",
		VersionID: "v1",
		DataDir:   uuid.NewString(),
		Size:      int64(len(data)),
		ModTime:   time.Now(),
		Parts: []ObjectPartInfo{
			{Number: 1, Size: int64(len(data)), Algorithm: "sha256", Hash: sum[:]},
			{Number: 2, Size: 4, Algorithm: "sha256"},
		},
	}
	d.WriteAll(ctx, "bucket", "obj/"+fi.DataDir+"/part.1", data)
	d.WriteMetadata(ctx, "", "bucket", "obj", fi)

	resp, err := d.CheckParts(ctx, "bucket", "obj", fi)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Results[0] != CheckPartSuccess {
		t.Errorf("part 1 = %d, want success", resp.Results[0])
	}
	if resp.Results[1] != CheckPartFileNotFound {
		t.Errorf("part 2 = %d, want file not found", resp.Results[1])
	}

	// Size mismatch is corruption.
	d.WriteAll(ctx, "bucket", "obj/"+fi.DataDir+"/part.2", []byte("xx"))
	resp, _ = d.CheckParts(ctx, "bucket", "obj", fi)
	if resp.Results[1] != CheckPartFileCorrupt {
		t.Errorf("short part = %d, want corrupt", resp.Results[1])
	}

	// Verification re-hashes the contents.
	resp, err = d.VerifyFile(ctx, "bucket", "obj", fi)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Results[0] != CheckPartSuccess {
		t.Errorf("verify part 1 = %d, want success", resp.Results[0])
	}

	// Flipping a byte is detected.
	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 0xff
	d.WriteAll(ctx, "bucket", "obj/"+fi.DataDir+"/part.1", corrupted)
	resp, _ = d.VerifyFile(ctx, "bucket", "obj", fi)
	if resp.Results[0] != CheckPartFileCorrupt {
		t.Errorf("bitrot part = %d, want corrupt", resp.Results[0])
	}

	// Unknown hash algorithm.
	fi.Parts[0].Algorithm = "whirlpool"
	resp, _ = d.VerifyFile(ctx, "bucket", "obj", fi)
	if resp.Results[0] != CheckPartUnknown {
		t.Errorf("unknown algo = %d, want unknown", resp.Results[0])
	}
}

func TestLocalDiskReadMultiple(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")
	d.WriteAll(ctx, "bucket", "pre/f1", []byte("one"))
	d.WriteAll(ctx, "bucket", "pre/f2", []byte("two"))

	resps, err := d.ReadMultiple(ctx, ReadMultipleReq{
		Bucket: "bucket",
		Prefix: "pre",
		Files:  []string{"f1", "missing", "f2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resps) != 3 {
		t.Fatalf("responses = %d, want 3", len(resps))
	}
	if !resps[0].Exists || string(resps[0].Data) != "one" {
		t.Errorf("f1 = %+v", resps[0])
	}
	if resps[1].Exists || resps[1].Error == "" {
		t.Errorf("missing = %+v", resps[1])
	}
	if !resps[2].Exists || string(resps[2].Data) != "two" {
		t.Errorf("f2 = %+v", resps[2])
	}

	// Abort404 stops the batch at the first miss.
	resps, err = d.ReadMultiple(ctx, ReadMultipleReq{
		Bucket:   "bucket",
		Prefix:   "pre",
		Files:    []string{"missing", "f1"},
		Abort404: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resps) != 1 {
		t.Errorf("responses after abort = %d, want 1", len(resps))
	}
}

func TestLocalDiskWalkDir(t *testing.T) {
	d := newTestDisk(t)
	ctx := context.Background()
	d.MakeVol(ctx, "bucket")

	writeTestVersion(t, d, "bucket", "dir/obj1", "v1", []byte("1"))
	writeTestVersion(t, d, "bucket", "dir/obj2", "v1", []byte("2"))
	d.MakeVol(ctx, "bucket/dir/plain")

	var buf bytes.Buffer
	err := d.WalkDir(ctx, WalkDirOptions{Bucket: "bucket", BaseDir: "dir", Recursive: true}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	entries := map[string]WalkEntry{}
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var e WalkEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatal(err)
		}
		entries[e.Name] = e
	}

	for _, want := range []string{"dir/obj1", "dir/obj2"} {
		e, ok := entries[want]
		if !ok {
			t.Fatalf("walk misses %q: %v", want, entries)
		}
		// Objects carry their raw descriptor.
		if _, err := decodeXLMeta(e.Meta); err != nil {
			t.Errorf("%q meta does not decode: %v", want, err)
		}
	}

	// Missing base directory is silent unless asked to report.
	if err := d.WalkDir(ctx, WalkDirOptions{Bucket: "bucket", BaseDir: "nope"}, io.Discard); err != nil {
		t.Errorf("silent missing base = %v", err)
	}
	err = d.WalkDir(ctx, WalkDirOptions{Bucket: "bucket", BaseDir: "nope", ReportNotFound: true}, io.Discard)
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("reported missing base = %v, want file not found", err)
	}

	// Identity mismatch fails fast.
	if err := d.SetDiskID(uuid.NewString()); err != nil {
		t.Fatal(err)
	}
	err = d.WalkDir(ctx, WalkDirOptions{Bucket: "bucket", DiskID: uuid.NewString()}, io.Discard)
	if !errors.Is(err, ErrDiskNotFound) {
		t.Errorf("identity mismatch = %v, want disk not found", err)
	}

	// Prefix filter applies at the top level.
	var fbuf bytes.Buffer
	err = d.WalkDir(ctx, WalkDirOptions{Bucket: "bucket", BaseDir: "dir", FilterPrefix: "obj1"}, &fbuf)
	if err != nil {
		t.Fatal(err)
	}
	lines := 0
	sc = bufio.NewScanner(&fbuf)
	for sc.Scan() {
		lines++
	}
	if lines != 1 {
		t.Errorf("filtered walk lines = %d, want 1", lines)
	}
}

func TestLocalDiskInfo(t *testing.T) {
	d := newTestDisk(t)

	info, err := d.DiskInfo(context.Background(), DiskInfoOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if info.Total == 0 {
		t.Error("total capacity should be non-zero")
	}
	if info.MountPath != d.Path() {
		t.Errorf("mount path = %q", info.MountPath)
	}

	// NoOp is a liveness probe only.
	info, err = d.DiskInfo(context.Background(), DiskInfoOptions{NoOp: true})
	if err != nil || info.Total != 0 {
		t.Errorf("noop probe = %+v, %v", info, err)
	}

	// Identity mismatch is reported as disk not found.
	if err := d.SetDiskID(uuid.NewString()); err != nil {
		t.Fatal(err)
	}
	_, err = d.DiskInfo(context.Background(), DiskInfoOptions{DiskID: uuid.NewString()})
	if !errors.Is(err, ErrDiskNotFound) {
		t.Errorf("identity mismatch = %v, want disk not found", err)
	}
}

func TestLocalDiskClose(t *testing.T) {
	d := newTestDisk(t)

	if !d.IsOnline() {
		t.Error("fresh disk should be online")
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Error("close should be idempotent")
	}
	if d.IsOnline() {
		t.Error("closed disk should be offline")
	}
}
