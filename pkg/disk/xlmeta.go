package disk

import (
	"encoding/json"
	"sort"
	"time"
)

// xlMetaVersion is the current encoding version of the object
// metadata file. Decoders accept this version and below, so the
// format stays append-only compatible.
const xlMetaVersion = 1

// xlMeta is the decoded form of an xl.meta file: the full version
// history of one object, latest version first.
type xlMeta struct {
	Version      int        `json:"version"`
	Versions     []FileInfo `json:"versions"`
	FreeVersions []FileInfo `json:"freeVersions,omitempty"`
}

func newXLMeta() *xlMeta {
	return &xlMeta{Version: xlMetaVersion}
}

// decodeXLMeta parses the raw contents of an xl.meta file.
func decodeXLMeta(buf []byte) (*xlMeta, error) {
	m := &xlMeta{}
	if err := json.Unmarshal(buf, m); err != nil {
		return nil, ErrFileCorrupt
	}
	if m.Version <= 0 || m.Version > xlMetaVersion {
		return nil, ErrOutdatedXLMeta
	}
	return m, nil
}

// encode serializes the metadata for storage.
func (m *xlMeta) encode() ([]byte, error) {
	m.Version = xlMetaVersion
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, NewIOError(err)
	}
	return buf, nil
}

// findVersion returns the index of the version with the given id.
// An empty id addresses the latest version.
func (m *xlMeta) findVersion(versionID string) int {
	if versionID == "" {
		if len(m.Versions) == 0 {
			return -1
		}
		return 0
	}
	for i := range m.Versions {
		if m.Versions[i].VersionID == versionID {
			return i
		}
	}
	return -1
}

// addVersion inserts or replaces a version and keeps the history
// ordered latest first.
func (m *xlMeta) addVersion(fi FileInfo) error {
	if i := m.findVersionExact(fi.VersionID); i >= 0 {
		m.Versions[i] = fi
		m.sortVersions()
		return nil
	}

	if len(m.Versions) >= maxObjectVersions {
		return ErrMaxVersionsExceeded
	}

	m.Versions = append(m.Versions, fi)
	m.sortVersions()
	return nil
}

// findVersionExact matches the version id literally, an empty id only
// matches an unversioned entry.
func (m *xlMeta) findVersionExact(versionID string) int {
	for i := range m.Versions {
		if m.Versions[i].VersionID == versionID {
			return i
		}
	}
	return -1
}

// deleteVersion removes the addressed version and returns it.
func (m *xlMeta) deleteVersion(versionID string) (FileInfo, error) {
	i := m.findVersion(versionID)
	if i < 0 {
		return FileInfo{}, ErrFileVersionNotFound
	}

	fi := m.Versions[i]
	m.Versions = append(m.Versions[:i], m.Versions[i+1:]...)
	return fi, nil
}

// addFreeVersion parks a version for deferred space reclamation.
func (m *xlMeta) addFreeVersion(fi FileInfo) {
	m.FreeVersions = append(m.FreeVersions, fi)
}

// deleteFreeVersion removes the parked version with the given id and
// returns it, reporting whether one was found.
func (m *xlMeta) deleteFreeVersion(versionID string) (FileInfo, bool) {
	for i := range m.FreeVersions {
		if m.FreeVersions[i].VersionID == versionID {
			fv := m.FreeVersions[i]
			m.FreeVersions = append(m.FreeVersions[:i], m.FreeVersions[i+1:]...)
			return fv, true
		}
	}
	return FileInfo{}, false
}

func (m *xlMeta) sortVersions() {
	sort.SliceStable(m.Versions, func(i, j int) bool {
		return m.Versions[i].ModTime.After(m.Versions[j].ModTime)
	})
}

// latestModTime returns the mod time of the latest version.
func (m *xlMeta) latestModTime() time.Time {
	if len(m.Versions) == 0 {
		return time.Time{}
	}
	return m.Versions[0].ModTime
}

// fileInfoVersions flattens the metadata into the contract form.
func (m *xlMeta) fileInfoVersions(volume, name string) FileInfoVersions {
	return FileInfoVersions{
		Volume:        volume,
		Name:          name,
		LatestModTime: m.latestModTime(),
		Versions:      append([]FileInfo(nil), m.Versions...),
		FreeVersions:  append([]FileInfo(nil), m.FreeVersions...),
	}
}
