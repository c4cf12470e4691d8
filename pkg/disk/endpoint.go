package disk

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Endpoint identifies one disk: either a local directory path or the
// url of a drive attached to a remote node, plus the placement triple
// of the disk inside the pool topology. Endpoints are immutable after
// construction.
type Endpoint struct {
	URL     *url.URL
	IsLocal bool

	PoolIdx int
	SetIdx  int
	DiskIdx int
}

// NewEndpoint parses the given argument into an endpoint. Arguments
// starting with a http or https scheme become remote endpoints, plain
// paths become local ones. Indexes below zero mean the placement is
// not known yet.
func NewEndpoint(arg string, poolIdx, setIdx, diskIdx int) (Endpoint, error) {
	if arg == "" {
		return Endpoint{}, errors.New("empty endpoint argument")
	}

	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		u, err := url.Parse(arg)
		if err != nil {
			return Endpoint{}, errors.Wrap(err, "parse endpoint url failed")
		}
		if u.Host == "" {
			return Endpoint{}, errors.New("endpoint url has no host")
		}

		return Endpoint{
			URL:     u,
			IsLocal: false,
			PoolIdx: poolIdx,
			SetIdx:  setIdx,
			DiskIdx: diskIdx,
		}, nil
	}

	abs, err := filepath.Abs(arg)
	if err != nil {
		return Endpoint{}, errors.Wrap(err, "resolve endpoint path failed")
	}

	return Endpoint{
		URL:     &url.URL{Path: abs},
		IsLocal: true,
		PoolIdx: poolIdx,
		SetIdx:  setIdx,
		DiskIdx: diskIdx,
	}, nil
}

// String returns the display form of the endpoint: the url for remote
// disks, the bare path for local ones.
func (e Endpoint) String() string {
	if e.IsLocal {
		return e.URL.Path
	}
	return e.URL.String()
}

// Host returns the host:port part of a remote endpoint. Empty for
// local endpoints.
func (e Endpoint) Host() string {
	return e.URL.Host
}

// GridHost returns the scheme://host:port base of a remote endpoint,
// used to build streaming request urls.
func (e Endpoint) GridHost() string {
	return e.URL.Scheme + "://" + e.URL.Host
}

// FilePath returns the path part of the endpoint, which is the disk
// root directory on the serving node.
func (e Endpoint) FilePath() string {
	return e.URL.Path
}

// Location returns the placement triple of the endpoint.
func (e Endpoint) Location() DiskLocation {
	return DiskLocation{
		PoolIdx: e.PoolIdx,
		SetIdx:  e.SetIdx,
		DiskIdx: e.DiskIdx,
	}
}

// DiskLocation is the placement triple of a disk. An index below zero
// means the value is absent, which happens before the disk has joined
// a set.
type DiskLocation struct {
	PoolIdx int
	SetIdx  int
	DiskIdx int
}

// Valid reports whether all three indexes are present.
func (l DiskLocation) Valid() bool {
	return l.PoolIdx >= 0 && l.SetIdx >= 0 && l.DiskIdx >= 0
}
