package config

// Security holds information of tls connections and request authentication.
type Security struct {
	// CertsDir is a directory path of secure configuration files.
	CertsDir string
	// RootCAPem is the file name of rootCA.pem.
	RootCAPem string
	// ServerKey is the file name of the server private key.
	ServerKey string
	// ServerCrt is the file name of the server certificate.
	ServerCrt string

	// AuthToken is a shared bearer token which is attached to
	// every streaming request between the disk peers.
	AuthToken string
}
