package disk

const (
	// MetaBucket is the reserved system metadata bucket.
	MetaBucket = ".rustfs.sys"
	// MetaMultipartBucket is the reserved multipart staging bucket.
	MetaMultipartBucket = MetaBucket + "/multipart"
	// MetaTmpBucket is the reserved temp bucket.
	MetaTmpBucket = MetaBucket + "/tmp"
	// MetaTmpDeletedBucket is the reserved trash bucket which holds
	// deferred and undo-able deletes.
	MetaTmpDeletedBucket = MetaTmpBucket + "/.trash"

	// BucketMetaPrefix is the prefix of per-bucket metadata entries.
	BucketMetaPrefix = "buckets"

	// FormatConfigFile is the pool-level format descriptor. It also
	// persists the disk identity.
	FormatConfigFile = "format.json"
	// StorageFormatFile is the per-object metadata file name.
	StorageFormatFile = "xl.meta"
	// StorageFormatFileBackup is the backup copy of StorageFormatFile.
	StorageFormatFileBackup = "xl.meta.bkp"
)

// Streaming endpoints of the remote disk protocol. Bulk data bypasses
// the control channel and moves over plain HTTP.
const (
	RPCPathPrefix         = "/rustfs/rpc"
	RPCPathWalkDir        = RPCPathPrefix + "/walk_dir"
	RPCPathReadFileStream = RPCPathPrefix + "/read_file_stream"
	RPCPathPutFileStream  = RPCPathPrefix + "/put_file_stream"
)

// Check part status codes. One per object part, reported by
// CheckParts and VerifyFile through CheckPartsResp.
const (
	CheckPartUnknown        = 0
	CheckPartSuccess        = 1
	CheckPartDiskNotFound   = 2
	CheckPartVolumeNotFound = 3
	CheckPartFileNotFound   = 4
	CheckPartFileCorrupt    = 5
)

// maxObjectVersions caps how many versions a single object may
// accumulate before writes are refused with ErrMaxVersionsExceeded.
const maxObjectVersions = 16384

// smallFileThreshold is the maximum object size which ReadVersion
// loads inline when read data is requested.
const smallFileThreshold = 128 << 10
