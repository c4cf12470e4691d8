package diskrpc

import (
	"crypto/tls"
	"net"
	"net/rpc"
	"time"
)

// DiskRPCPrefix is the prefix for calling disk rpc methods.
const DiskRPCPrefix = "DISK"

// MethodName indicates what procedure will be called.
type MethodName int

const (
	// Volume methods.
	MakeVol MethodName = iota
	MakeVolBulk
	ListVols
	StatVol
	DeleteVol

	// Identity and health methods.
	DiskInfo
	GetDiskID
	SetDiskID

	// Versioned metadata methods.
	DeleteVersion
	DeleteVersions
	DeletePaths
	WriteMetadata
	UpdateMetadata
	ReadVersion
	ReadXL
	RenameData

	// File methods.
	ListDir
	RenameFile
	RenamePart
	Delete
	VerifyFile
	CheckParts
	ReadMultiple
	WriteAll
	ReadAll
)

func (m MethodName) String() string {
	switch m {
	case MakeVol:
		return DiskRPCPrefix + "." + "MakeVol"
	case MakeVolBulk:
		return DiskRPCPrefix + "." + "MakeVolBulk"
	case ListVols:
		return DiskRPCPrefix + "." + "ListVols"
	case StatVol:
		return DiskRPCPrefix + "." + "StatVol"
	case DeleteVol:
		return DiskRPCPrefix + "." + "DeleteVol"
	case DiskInfo:
		return DiskRPCPrefix + "." + "DiskInfo"
	case GetDiskID:
		return DiskRPCPrefix + "." + "GetDiskID"
	case SetDiskID:
		return DiskRPCPrefix + "." + "SetDiskID"
	case DeleteVersion:
		return DiskRPCPrefix + "." + "DeleteVersion"
	case DeleteVersions:
		return DiskRPCPrefix + "." + "DeleteVersions"
	case DeletePaths:
		return DiskRPCPrefix + "." + "DeletePaths"
	case WriteMetadata:
		return DiskRPCPrefix + "." + "WriteMetadata"
	case UpdateMetadata:
		return DiskRPCPrefix + "." + "UpdateMetadata"
	case ReadVersion:
		return DiskRPCPrefix + "." + "ReadVersion"
	case ReadXL:
		return DiskRPCPrefix + "." + "ReadXL"
	case RenameData:
		return DiskRPCPrefix + "." + "RenameData"
	case ListDir:
		return DiskRPCPrefix + "." + "ListDir"
	case RenameFile:
		return DiskRPCPrefix + "." + "RenameFile"
	case RenamePart:
		return DiskRPCPrefix + "." + "RenamePart"
	case Delete:
		return DiskRPCPrefix + "." + "Delete"
	case VerifyFile:
		return DiskRPCPrefix + "." + "VerifyFile"
	case CheckParts:
		return DiskRPCPrefix + "." + "CheckParts"
	case ReadMultiple:
		return DiskRPCPrefix + "." + "ReadMultiple"
	case WriteAll:
		return DiskRPCPrefix + "." + "WriteAll"
	case ReadAll:
		return DiskRPCPrefix + "." + "ReadAll"
	default:
		return "unknown"
	}
}

// RPCType is the first byte of connection and it implies the type of the RPC.
type RPCType byte

const (
	// RPCDisk used when disk peer connection.
	RPCDisk RPCType = 0x02
)

// Dial dials with the given rpc type connection to the address.
// Dials with tls when the tls config is given, plain tcp otherwise.
func Dial(addr string, rpcType RPCType, timeout time.Duration, tlsConfig *tls.Config) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}

	var conn net.Conn
	var err error
	if tlsConfig != nil {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, err
	}

	// Write RPC header.
	if _, err = conn.Write([]byte{byte(rpcType)}); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Resolver resolves disk server addresses into ready-to-use
// rpc clients. The zero value dials plain tcp with no timeout.
type Resolver struct {
	Timeout time.Duration
	TLS     *tls.Config
}

// Resolve dials the given address and returns a connected rpc client.
func (r *Resolver) Resolve(addr string) (*rpc.Client, error) {
	conn, err := Dial(addr, RPCDisk, r.Timeout, r.TLS)
	if err != nil {
		return nil, err
	}
	return rpc.NewClient(conn), nil
}
