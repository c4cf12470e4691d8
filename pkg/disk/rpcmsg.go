package disk

// Control channel messages of the remote disk protocol. Every request
// names the target disk by its endpoint path, because one node serves
// several disks over the same channel. Every response reports the
// outcome explicitly: a failed call carries the rendered taxonomy
// error in Err, which the client side turns back into a taxonomy
// value.

type MakeVolRequest struct {
	Disk   string
	Volume string
}

type MakeVolResponse struct {
	Success bool
	Err     string
}

type MakeVolBulkRequest struct {
	Disk    string
	Volumes []string
}

type MakeVolBulkResponse struct {
	Success bool
	Err     string
}

type ListVolsRequest struct {
	Disk string
}

type ListVolsResponse struct {
	Vols []VolInfo

	Success bool
	Err     string
}

type StatVolRequest struct {
	Disk   string
	Volume string
}

type StatVolResponse struct {
	Vol VolInfo

	Success bool
	Err     string
}

type DeleteVolRequest struct {
	Disk   string
	Volume string
}

type DeleteVolResponse struct {
	Success bool
	Err     string
}

type DiskInfoRequest struct {
	Disk string
	Opts DiskInfoOptions
}

type DiskInfoResponse struct {
	Info DiskInfo

	Success bool
	Err     string
}

type GetDiskIDRequest struct {
	Disk string
}

type GetDiskIDResponse struct {
	ID string

	Success bool
	Err     string
}

type SetDiskIDRequest struct {
	Disk string
	ID   string
}

type SetDiskIDResponse struct {
	Success bool
	Err     string
}

type DeleteVersionRequest struct {
	Disk           string
	Volume         string
	Path           string
	FileInfo       FileInfo
	ForceDelMarker bool
	Opts           DeleteOptions
}

type DeleteVersionResponse struct {
	Success bool
	Err     string
}

type DeleteVersionsRequest struct {
	Disk     string
	Volume   string
	Versions []FileInfoVersions
	Opts     DeleteOptions
}

type DeleteVersionsResponse struct {
	// Errs is positional: one rendered error per requested object,
	// empty string for success.
	Errs []string

	Success bool
	Err     string
}

type DeletePathsRequest struct {
	Disk   string
	Volume string
	Paths  []string
}

type DeletePathsResponse struct {
	Success bool
	Err     string
}

type WriteMetadataRequest struct {
	Disk       string
	OrigVolume string
	Volume     string
	Path       string
	FileInfo   FileInfo
}

type WriteMetadataResponse struct {
	Success bool
	Err     string
}

type UpdateMetadataRequest struct {
	Disk     string
	Volume   string
	Path     string
	FileInfo FileInfo
	Opts     UpdateMetadataOpts
}

type UpdateMetadataResponse struct {
	Success bool
	Err     string
}

type ReadVersionRequest struct {
	Disk       string
	OrigVolume string
	Volume     string
	Path       string
	VersionID  string
	Opts       ReadOptions
}

type ReadVersionResponse struct {
	FileInfo FileInfo

	Success bool
	Err     string
}

type ReadXLRequest struct {
	Disk     string
	Volume   string
	Path     string
	ReadData bool
}

type ReadXLResponse struct {
	Data []byte

	Success bool
	Err     string
}

type RenameDataRequest struct {
	Disk      string
	SrcVolume string
	SrcPath   string
	FileInfo  FileInfo
	DstVolume string
	DstPath   string
}

type RenameDataResponse struct {
	OldDataDir string
	Sign       []byte

	Success bool
	Err     string
}

type ListDirRequest struct {
	Disk       string
	OrigVolume string
	Volume     string
	DirPath    string
	Count      int
}

type ListDirResponse struct {
	Entries []string

	Success bool
	Err     string
}

type RenameFileRequest struct {
	Disk      string
	SrcVolume string
	SrcPath   string
	DstVolume string
	DstPath   string
}

type RenameFileResponse struct {
	Success bool
	Err     string
}

type RenamePartRequest struct {
	Disk      string
	SrcVolume string
	SrcPath   string
	DstVolume string
	DstPath   string
	Meta      []byte
}

type RenamePartResponse struct {
	Success bool
	Err     string
}

type DeleteRequest struct {
	Disk   string
	Volume string
	Path   string
	Opts   DeleteOptions
}

type DeleteResponse struct {
	Success bool
	Err     string
}

type VerifyFileRequest struct {
	Disk     string
	Volume   string
	Path     string
	FileInfo FileInfo
}

type VerifyFileResponse struct {
	Results []int

	Success bool
	Err     string
}

type CheckPartsRequest struct {
	Disk     string
	Volume   string
	Path     string
	FileInfo FileInfo
}

type CheckPartsResponse struct {
	Results []int

	Success bool
	Err     string
}

type ReadMultipleRequest struct {
	Disk string
	Req  ReadMultipleReq
}

type ReadMultipleResponse struct {
	Files []ReadMultipleResp

	Success bool
	Err     string
}

type WriteAllRequest struct {
	Disk   string
	Volume string
	Path   string
	Data   []byte
}

type WriteAllResponse struct {
	Success bool
	Err     string
}

type ReadAllRequest struct {
	Disk   string
	Volume string
	Path   string
}

type ReadAllResponse struct {
	Data []byte

	Success bool
	Err     string
}
