package diskapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/chanyoung/ecdisk/pkg/disk"
	"github.com/chanyoung/ecdisk/pkg/util/config"
	"github.com/chanyoung/ecdisk/pkg/util/mlog"
)

var logger *logrus.Entry

// Handlers serves every disk of this node to remote peers: typed
// operations over the control channel and bulk streams over http.
type Handlers interface {
	MakeVol(req *disk.MakeVolRequest, res *disk.MakeVolResponse) error
	MakeVolBulk(req *disk.MakeVolBulkRequest, res *disk.MakeVolBulkResponse) error
	ListVols(req *disk.ListVolsRequest, res *disk.ListVolsResponse) error
	StatVol(req *disk.StatVolRequest, res *disk.StatVolResponse) error
	DeleteVol(req *disk.DeleteVolRequest, res *disk.DeleteVolResponse) error

	DiskInfo(req *disk.DiskInfoRequest, res *disk.DiskInfoResponse) error
	GetDiskID(req *disk.GetDiskIDRequest, res *disk.GetDiskIDResponse) error
	SetDiskID(req *disk.SetDiskIDRequest, res *disk.SetDiskIDResponse) error

	DeleteVersion(req *disk.DeleteVersionRequest, res *disk.DeleteVersionResponse) error
	DeleteVersions(req *disk.DeleteVersionsRequest, res *disk.DeleteVersionsResponse) error
	DeletePaths(req *disk.DeletePathsRequest, res *disk.DeletePathsResponse) error
	WriteMetadata(req *disk.WriteMetadataRequest, res *disk.WriteMetadataResponse) error
	UpdateMetadata(req *disk.UpdateMetadataRequest, res *disk.UpdateMetadataResponse) error
	ReadVersion(req *disk.ReadVersionRequest, res *disk.ReadVersionResponse) error
	ReadXL(req *disk.ReadXLRequest, res *disk.ReadXLResponse) error
	RenameData(req *disk.RenameDataRequest, res *disk.RenameDataResponse) error

	ListDir(req *disk.ListDirRequest, res *disk.ListDirResponse) error
	RenameFile(req *disk.RenameFileRequest, res *disk.RenameFileResponse) error
	RenamePart(req *disk.RenamePartRequest, res *disk.RenamePartResponse) error
	Delete(req *disk.DeleteRequest, res *disk.DeleteResponse) error
	VerifyFile(req *disk.VerifyFileRequest, res *disk.VerifyFileResponse) error
	CheckParts(req *disk.CheckPartsRequest, res *disk.CheckPartsResponse) error
	ReadMultiple(req *disk.ReadMultipleRequest, res *disk.ReadMultipleResponse) error
	WriteAll(req *disk.WriteAllRequest, res *disk.WriteAllResponse) error
	ReadAll(req *disk.ReadAllRequest, res *disk.ReadAllResponse) error

	WalkDirHandler(w http.ResponseWriter, r *http.Request)
	ReadFileStreamHandler(w http.ResponseWriter, r *http.Request)
	PutFileStreamHandler(w http.ResponseWriter, r *http.Request)

	Close() error
}

type handlers struct {
	cfg *config.Diskd

	mu    sync.RWMutex
	disks map[string]disk.DiskAPI
}

// NewHandlers opens every configured disk root as a local disk and
// serves them, keyed by root directory.
func NewHandlers(cfg *config.Diskd) (Handlers, error) {
	logger = mlog.GetPackageLogger("app/diskd/usecase/diskapi")

	h := &handlers{
		cfg:   cfg,
		disks: make(map[string]disk.DiskAPI),
	}

	for _, root := range strings.Split(cfg.Disks, ",") {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}

		ep, err := disk.NewEndpoint(root, -1, -1, -1)
		if err != nil {
			return nil, err
		}
		d, err := disk.New(ep, disk.DiskOption{
			Cleanup: true,
			Hashers: disk.DefaultHashers(),
		})
		if err != nil {
			return nil, err
		}
		h.disks[ep.FilePath()] = d
	}

	return h, nil
}

func (h *handlers) getDisk(root string) (disk.DiskAPI, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	d, ok := h.disks[root]
	if !ok {
		return nil, disk.ErrDiskNotFound
	}
	return d, nil
}

// Close shuts every served disk down.
func (h *handlers) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, d := range h.disks {
		d.Close()
	}
	return nil
}

// statusCode maps a taxonomy failure to a streaming response status.
// The failure message itself travels in the body, verbatim, so the
// client side can map it back.
func statusCode(err error) int {
	switch {
	case errors.Is(err, disk.ErrFileNotFound),
		errors.Is(err, disk.ErrFileVersionNotFound),
		errors.Is(err, disk.ErrVolumeNotFound),
		errors.Is(err, disk.ErrPathNotFound),
		errors.Is(err, disk.ErrDiskNotFound):
		return http.StatusNotFound
	case errors.Is(err, disk.ErrFileAccessDenied),
		errors.Is(err, disk.ErrVolumeAccessDenied),
		errors.Is(err, disk.ErrDiskAccessDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusCode(err))
}

// WalkDirHandler streams directory entries as json lines. The walk
// options arrive as a json body.
func (h *handlers) WalkDirHandler(w http.ResponseWriter, r *http.Request) {
	ctxLogger := mlog.GetMethodLogger(logger, "handlers.WalkDirHandler")

	d, err := h.getDisk(r.URL.Query().Get("disk"))
	if err != nil {
		writeError(w, err)
		return
	}

	var opts disk.WalkDirOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		http.Error(w, "malformed walk options", http.StatusBadRequest)
		return
	}

	cw := &countingWriter{w: w}
	if err := d.WalkDir(r.Context(), opts, cw); err != nil {
		// Once entries went out the status line is already written.
		if cw.n == 0 {
			writeError(w, err)
			return
		}
		ctxLogger.Error(err)
	}
}

// ReadFileStreamHandler serves a ranged file read as the raw body.
func (h *handlers) ReadFileStreamHandler(w http.ResponseWriter, r *http.Request) {
	ctxLogger := mlog.GetMethodLogger(logger, "handlers.ReadFileStreamHandler")

	q := r.URL.Query()
	d, err := h.getDisk(q.Get("disk"))
	if err != nil {
		writeError(w, err)
		return
	}

	offset, _ := strconv.ParseInt(q.Get("offset"), 10, 64)
	length := int64(-1)
	if v := q.Get("length"); v != "" {
		length, _ = strconv.ParseInt(v, 10, 64)
	}

	rc, err := d.ReadFileStream(r.Context(), q.Get("volume"), q.Get("path"), offset, length)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	if length >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	}
	if _, err := io.Copy(w, rc); err != nil {
		ctxLogger.Error(err)
	}
}

// PutFileStreamHandler consumes the request body into a file, either
// truncating or appending. A body shorter or longer than the
// advertised size fails the upload.
func (h *handlers) PutFileStreamHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := h.getDisk(q.Get("disk"))
	if err != nil {
		writeError(w, err)
		return
	}

	size := int64(-1)
	if v := q.Get("size"); v != "" {
		size, _ = strconv.ParseInt(v, 10, 64)
	}

	var wc io.WriteCloser
	if q.Get("append") == "true" {
		wc, err = d.AppendFile(r.Context(), q.Get("volume"), q.Get("path"))
	} else {
		wc, err = d.CreateFile(r.Context(), "", q.Get("volume"), q.Get("path"), size)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	n, err := io.Copy(wc, r.Body)
	if err != nil {
		wc.Close()
		writeError(w, disk.NewIOError(err))
		return
	}
	if err := wc.Close(); err != nil {
		writeError(w, err)
		return
	}
	if size >= 0 && n != size {
		if n < size {
			writeError(w, disk.ErrShortWrite)
		} else {
			writeError(w, disk.ErrMoreData)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
