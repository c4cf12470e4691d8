package disk

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/chanyoung/ecdisk/pkg/diskrpc"
)

// NewRPCResolver returns a Resolver dialing node control channels
// over the typed rpc transport.
func NewRPCResolver(timeout time.Duration, tlsConfig *tls.Config) Resolver {
	r := &diskrpc.Resolver{Timeout: timeout, TLS: tlsConfig}
	return ResolverFunc(func(addr string) (Caller, error) {
		return r.Resolve(addr)
	})
}

// remoteDisk drives a disk attached to another node. Small typed
// operations go over the control channel, bulk data streams over
// plain http. The client carries no connection state of its own: the
// resolver yields one control channel per call and the http client
// pools the streaming connections.
type remoteDisk struct {
	endpoint  Endpoint
	location  DiskLocation
	resolver  Resolver
	authToken string
	client    *http.Client

	mu sync.RWMutex
	id string

	closed atomic.Bool
}

func newRemoteDisk(ep Endpoint, opt DiskOption) (*remoteDisk, error) {
	if opt.Resolver == nil {
		return nil, errors.New("remote disk needs a resolver")
	}

	var transport http.RoundTripper
	if ep.URL.Scheme == "https" {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	s := &remoteDisk{
		endpoint:  ep,
		location:  ep.Location(),
		resolver:  opt.Resolver,
		authToken: opt.AuthToken,
		client:    &http.Client{Transport: transport},
	}

	if opt.HealthCheck {
		if _, err := s.DiskInfo(context.Background(), DiskInfoOptions{NoOp: true}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// call runs one typed operation over the control channel. A transport
// failure is an io error, a failure reported by the peer comes back
// as the peer's taxonomy value.
func (s *remoteDisk) call(method diskrpc.MethodName, args, reply interface{}) error {
	cl, err := s.resolver.Resolve(s.endpoint.Host())
	if err != nil {
		return NewIOError(err)
	}
	defer cl.Close()

	if err := cl.Call(method.String(), args, reply); err != nil {
		return NewIOError(err)
	}
	return nil
}

func remoteErr(success bool, msg string) error {
	if success {
		return nil
	}
	return fromRemote(msg)
}

func (s *remoteDisk) String() string {
	return s.endpoint.String()
}

func (s *remoteDisk) IsOnline() bool {
	if s.closed.Load() {
		return false
	}
	_, err := s.DiskInfo(context.Background(), DiskInfoOptions{NoOp: true})
	return err == nil
}

func (s *remoteDisk) IsLocal() bool {
	return false
}

func (s *remoteDisk) Hostname() string {
	return s.endpoint.Host()
}

func (s *remoteDisk) Endpoint() Endpoint {
	return s.endpoint
}

func (s *remoteDisk) Close() error {
	s.closed.Store(true)
	s.client.CloseIdleConnections()
	return nil
}

func (s *remoteDisk) Path() string {
	return s.endpoint.FilePath()
}

func (s *remoteDisk) GetDiskLoc() DiskLocation {
	return s.location
}

// DiskID returns the remote disk identity, fetched once and cached.
func (s *remoteDisk) DiskID() (string, error) {
	s.mu.RLock()
	id := s.id
	s.mu.RUnlock()
	if id != "" {
		return id, nil
	}

	req := &GetDiskIDRequest{Disk: s.endpoint.FilePath()}
	res := &GetDiskIDResponse{}
	if err := s.call(diskrpc.GetDiskID, req, res); err != nil {
		return "", err
	}
	if err := remoteErr(res.Success, res.Err); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.id = res.ID
	s.mu.Unlock()
	return res.ID, nil
}

func (s *remoteDisk) SetDiskID(id string) error {
	req := &SetDiskIDRequest{Disk: s.endpoint.FilePath(), ID: id}
	res := &SetDiskIDResponse{}
	if err := s.call(diskrpc.SetDiskID, req, res); err != nil {
		return err
	}
	if err := remoteErr(res.Success, res.Err); err != nil {
		return err
	}

	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
	return nil
}

func (s *remoteDisk) DiskInfo(_ context.Context, opts DiskInfoOptions) (DiskInfo, error) {
	req := &DiskInfoRequest{Disk: s.endpoint.FilePath(), Opts: opts}
	res := &DiskInfoResponse{}
	if err := s.call(diskrpc.DiskInfo, req, res); err != nil {
		return DiskInfo{}, err
	}
	return res.Info, remoteErr(res.Success, res.Err)
}

// Volume operations.

func (s *remoteDisk) MakeVol(_ context.Context, volume string) error {
	req := &MakeVolRequest{Disk: s.endpoint.FilePath(), Volume: volume}
	res := &MakeVolResponse{}
	if err := s.call(diskrpc.MakeVol, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) MakeVolBulk(_ context.Context, volumes ...string) error {
	req := &MakeVolBulkRequest{Disk: s.endpoint.FilePath(), Volumes: volumes}
	res := &MakeVolBulkResponse{}
	if err := s.call(diskrpc.MakeVolBulk, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) ListVols(_ context.Context) ([]VolInfo, error) {
	req := &ListVolsRequest{Disk: s.endpoint.FilePath()}
	res := &ListVolsResponse{}
	if err := s.call(diskrpc.ListVols, req, res); err != nil {
		return nil, err
	}
	return res.Vols, remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) StatVol(_ context.Context, volume string) (VolInfo, error) {
	req := &StatVolRequest{Disk: s.endpoint.FilePath(), Volume: volume}
	res := &StatVolResponse{}
	if err := s.call(diskrpc.StatVol, req, res); err != nil {
		return VolInfo{}, err
	}
	return res.Vol, remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) DeleteVol(_ context.Context, volume string) error {
	req := &DeleteVolRequest{Disk: s.endpoint.FilePath(), Volume: volume}
	res := &DeleteVolResponse{}
	if err := s.call(diskrpc.DeleteVol, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

// Versioned metadata operations.

func (s *remoteDisk) DeleteVersion(_ context.Context, volume, path string, fi FileInfo, forceDelMarker bool, opts DeleteOptions) error {
	req := &DeleteVersionRequest{
		Disk:           s.endpoint.FilePath(),
		Volume:         volume,
		Path:           path,
		FileInfo:       fi,
		ForceDelMarker: forceDelMarker,
		Opts:           opts,
	}
	res := &DeleteVersionResponse{}
	if err := s.call(diskrpc.DeleteVersion, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) DeleteVersions(_ context.Context, volume string, versions []FileInfoVersions, opts DeleteOptions) []error {
	errs := make([]error, len(versions))

	req := &DeleteVersionsRequest{
		Disk:     s.endpoint.FilePath(),
		Volume:   volume,
		Versions: versions,
		Opts:     opts,
	}
	res := &DeleteVersionsResponse{}
	if err := s.call(diskrpc.DeleteVersions, req, res); err != nil {
		for i := range errs {
			errs[i] = err
		}
		return errs
	}
	if err := remoteErr(res.Success, res.Err); err != nil {
		for i := range errs {
			errs[i] = err
		}
		return errs
	}

	for i := range errs {
		if i < len(res.Errs) && res.Errs[i] != "" {
			errs[i] = fromRemote(res.Errs[i])
		}
	}
	return errs
}

func (s *remoteDisk) DeletePaths(_ context.Context, volume string, paths []string) error {
	req := &DeletePathsRequest{Disk: s.endpoint.FilePath(), Volume: volume, Paths: paths}
	res := &DeletePathsResponse{}
	if err := s.call(diskrpc.DeletePaths, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) WriteMetadata(_ context.Context, origvolume, volume, path string, fi FileInfo) error {
	req := &WriteMetadataRequest{
		Disk:       s.endpoint.FilePath(),
		OrigVolume: origvolume,
		Volume:     volume,
		Path:       path,
		FileInfo:   fi,
	}
	res := &WriteMetadataResponse{}
	if err := s.call(diskrpc.WriteMetadata, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) UpdateMetadata(_ context.Context, volume, path string, fi FileInfo, opts UpdateMetadataOpts) error {
	req := &UpdateMetadataRequest{
		Disk:     s.endpoint.FilePath(),
		Volume:   volume,
		Path:     path,
		FileInfo: fi,
		Opts:     opts,
	}
	res := &UpdateMetadataResponse{}
	if err := s.call(diskrpc.UpdateMetadata, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) ReadVersion(_ context.Context, origvolume, volume, path, versionID string, opts ReadOptions) (FileInfo, error) {
	req := &ReadVersionRequest{
		Disk:       s.endpoint.FilePath(),
		OrigVolume: origvolume,
		Volume:     volume,
		Path:       path,
		VersionID:  versionID,
		Opts:       opts,
	}
	res := &ReadVersionResponse{}
	if err := s.call(diskrpc.ReadVersion, req, res); err != nil {
		return FileInfo{}, err
	}
	return res.FileInfo, remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) ReadXL(_ context.Context, volume, path string, readData bool) ([]byte, error) {
	req := &ReadXLRequest{Disk: s.endpoint.FilePath(), Volume: volume, Path: path, ReadData: readData}
	res := &ReadXLResponse{}
	if err := s.call(diskrpc.ReadXL, req, res); err != nil {
		return nil, err
	}
	return res.Data, remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) RenameData(_ context.Context, srcVolume, srcPath string, fi FileInfo, dstVolume, dstPath string) (RenameDataResp, error) {
	req := &RenameDataRequest{
		Disk:      s.endpoint.FilePath(),
		SrcVolume: srcVolume,
		SrcPath:   srcPath,
		FileInfo:  fi,
		DstVolume: dstVolume,
		DstPath:   dstPath,
	}
	res := &RenameDataResponse{}
	if err := s.call(diskrpc.RenameData, req, res); err != nil {
		return RenameDataResp{}, err
	}
	return RenameDataResp{OldDataDir: res.OldDataDir, Sign: res.Sign}, remoteErr(res.Success, res.Err)
}

// Streaming file operations.

func (s *remoteDisk) ListDir(_ context.Context, origvolume, volume, dirPath string, count int) ([]string, error) {
	req := &ListDirRequest{
		Disk:       s.endpoint.FilePath(),
		OrigVolume: origvolume,
		Volume:     volume,
		DirPath:    dirPath,
		Count:      count,
	}
	res := &ListDirResponse{}
	if err := s.call(diskrpc.ListDir, req, res); err != nil {
		return nil, err
	}
	return res.Entries, remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) RenameFile(_ context.Context, srcVolume, srcPath, dstVolume, dstPath string) error {
	req := &RenameFileRequest{
		Disk:      s.endpoint.FilePath(),
		SrcVolume: srcVolume,
		SrcPath:   srcPath,
		DstVolume: dstVolume,
		DstPath:   dstPath,
	}
	res := &RenameFileResponse{}
	if err := s.call(diskrpc.RenameFile, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) RenamePart(_ context.Context, srcVolume, srcPath, dstVolume, dstPath string, meta []byte) error {
	req := &RenamePartRequest{
		Disk:      s.endpoint.FilePath(),
		SrcVolume: srcVolume,
		SrcPath:   srcPath,
		DstVolume: dstVolume,
		DstPath:   dstPath,
		Meta:      meta,
	}
	res := &RenamePartResponse{}
	if err := s.call(diskrpc.RenamePart, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) Delete(_ context.Context, volume, path string, opts DeleteOptions) error {
	req := &DeleteRequest{Disk: s.endpoint.FilePath(), Volume: volume, Path: path, Opts: opts}
	res := &DeleteResponse{}
	if err := s.call(diskrpc.Delete, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) VerifyFile(_ context.Context, volume, path string, fi FileInfo) (CheckPartsResp, error) {
	req := &VerifyFileRequest{Disk: s.endpoint.FilePath(), Volume: volume, Path: path, FileInfo: fi}
	res := &VerifyFileResponse{}
	if err := s.call(diskrpc.VerifyFile, req, res); err != nil {
		return CheckPartsResp{}, err
	}
	return CheckPartsResp{Results: res.Results}, remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) CheckParts(_ context.Context, volume, path string, fi FileInfo) (CheckPartsResp, error) {
	req := &CheckPartsRequest{Disk: s.endpoint.FilePath(), Volume: volume, Path: path, FileInfo: fi}
	res := &CheckPartsResponse{}
	if err := s.call(diskrpc.CheckParts, req, res); err != nil {
		return CheckPartsResp{}, err
	}
	return CheckPartsResp{Results: res.Results}, remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) ReadMultiple(_ context.Context, r ReadMultipleReq) ([]ReadMultipleResp, error) {
	req := &ReadMultipleRequest{Disk: s.endpoint.FilePath(), Req: r}
	res := &ReadMultipleResponse{}
	if err := s.call(diskrpc.ReadMultiple, req, res); err != nil {
		return nil, err
	}
	return res.Files, remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) WriteAll(_ context.Context, volume, path string, data []byte) error {
	req := &WriteAllRequest{Disk: s.endpoint.FilePath(), Volume: volume, Path: path, Data: data}
	res := &WriteAllResponse{}
	if err := s.call(diskrpc.WriteAll, req, res); err != nil {
		return err
	}
	return remoteErr(res.Success, res.Err)
}

func (s *remoteDisk) ReadAll(_ context.Context, volume, path string) ([]byte, error) {
	req := &ReadAllRequest{Disk: s.endpoint.FilePath(), Volume: volume, Path: path}
	res := &ReadAllResponse{}
	if err := s.call(diskrpc.ReadAll, req, res); err != nil {
		return nil, err
	}
	return res.Data, remoteErr(res.Success, res.Err)
}

// streamURL builds the url of one streaming endpoint including the
// target disk and extra query values.
func (s *remoteDisk) streamURL(p string, values url.Values) string {
	values.Set("disk", s.endpoint.FilePath())
	return s.endpoint.GridHost() + p + "?" + values.Encode()
}

func (s *remoteDisk) injectAuth(req *http.Request) {
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}
}

// streamError drains the failure body of a streaming response and
// maps it back into the taxonomy.
func streamError(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = fmt.Sprintf("remote disk returned status %d", resp.StatusCode)
	}
	return fromRemote(msg)
}

func (s *remoteDisk) ReadFile(ctx context.Context, volume, path string) (io.ReadCloser, error) {
	return s.ReadFileStream(ctx, volume, path, 0, -1)
}

func (s *remoteDisk) ReadFileStream(ctx context.Context, volume, path string, offset, length int64) (io.ReadCloser, error) {
	values := url.Values{}
	values.Set("volume", volume)
	values.Set("path", path)
	values.Set("offset", strconv.FormatInt(offset, 10))
	values.Set("length", strconv.FormatInt(length, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.streamURL(RPCPathReadFileStream, values), nil)
	if err != nil {
		return nil, NewIOError(err)
	}
	s.injectAuth(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, NewIOError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, streamError(resp)
	}
	return resp.Body, nil
}

func (s *remoteDisk) AppendFile(ctx context.Context, volume, path string) (io.WriteCloser, error) {
	return s.putFileStream(ctx, volume, path, -1, true)
}

func (s *remoteDisk) CreateFile(ctx context.Context, _, volume, path string, fileSize int64) (io.WriteCloser, error) {
	return s.putFileStream(ctx, volume, path, fileSize, false)
}

// putFileStream opens an upload stream. The write happens on the peer
// as the caller writes, the outcome arrives on Close.
func (s *remoteDisk) putFileStream(ctx context.Context, volume, path string, size int64, appendMode bool) (io.WriteCloser, error) {
	values := url.Values{}
	values.Set("volume", volume)
	values.Set("path", path)
	values.Set("size", strconv.FormatInt(size, 10))
	values.Set("append", strconv.FormatBool(appendMode))

	pr, pw := io.Pipe()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.streamURL(RPCPathPutFileStream, values), pr)
	if err != nil {
		pw.Close()
		return nil, NewIOError(err)
	}
	s.injectAuth(req)

	w := &httpWriter{pw: pw, done: make(chan error, 1)}
	go func() {
		resp, err := s.client.Do(req)
		if err != nil {
			pr.CloseWithError(err)
			w.done <- NewIOError(err)
			return
		}
		if resp.StatusCode != http.StatusOK {
			err := streamError(resp)
			pr.CloseWithError(err)
			w.done <- err
			return
		}
		resp.Body.Close()
		w.done <- nil
	}()

	return w, nil
}

// httpWriter feeds an upload stream through a pipe. Close flushes the
// request and reports the outcome of the whole upload.
type httpWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *httpWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *httpWriter) Close() error {
	w.pw.Close()
	return <-w.done
}

// WalkDir forwards the walk to the peer and relays the json line
// stream straight into wr.
func (s *remoteDisk) WalkDir(ctx context.Context, opts WalkDirOptions, wr io.Writer) error {
	body, err := json.Marshal(opts)
	if err != nil {
		return NewIOError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.streamURL(RPCPathWalkDir, url.Values{}), strings.NewReader(string(body)))
	if err != nil {
		return NewIOError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.injectAuth(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return NewIOError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return streamError(resp)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(wr, resp.Body); err != nil {
		return NewIOError(err)
	}
	return nil
}
