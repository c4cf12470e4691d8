package config

// Diskd holds info required to set a disk server daemon.
type Diskd struct {
	// ID is the uuid of the disk server daemon.
	ID string

	// ServerAddr is the address of the disk server.
	ServerAddr string
	// ServerPort is the port of the disk server.
	ServerPort string

	// Disks is a comma separated list of disk root directories
	// which the daemon will serve to remote peers.
	Disks string

	// Security config.
	Security Security

	// LogLocation is the file path of diskd logging.
	// Default output path is stderr.
	LogLocation string
}
