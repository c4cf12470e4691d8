package disk

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// formatVersion is the current encoding version of the format
// descriptor. The descriptor is read by every disk at startup, so
// decoders accept this version and below.
const formatVersion = 1

// formatConfig is the on-disk identity of a drive, persisted at
// <root>/.rustfs.sys/format.json and surviving process restarts.
type formatConfig struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
}

// readFormat loads the persisted disk identity. A drive which was
// never formatted yields an empty identity, not an error.
func readFormat(root string) (string, error) {
	buf, err := os.ReadFile(filepath.Join(root, MetaBucket, FormatConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			// No identity yet.
			return "", nil
		}
		return "", toUnformattedDiskError(err)
	}

	f := &formatConfig{}
	if err := json.Unmarshal(buf, f); err != nil {
		return "", ErrCorruptedFormat
	}
	if f.Version <= 0 || f.Version > formatVersion {
		return "", ErrCorruptedFormat
	}
	if f.ID != "" {
		if _, err := uuid.Parse(f.ID); err != nil {
			return "", ErrCorruptedFormat
		}
	}

	return f.ID, nil
}

// writeFormat persists the disk identity atomically: the descriptor
// is staged in the tmp bucket and renamed into place.
func writeFormat(root, id string) error {
	if id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return ErrInconsistentDisk
		}
	}

	buf, err := json.Marshal(&formatConfig{Version: formatVersion, ID: id})
	if err != nil {
		return NewIOError(err)
	}

	if err := os.MkdirAll(filepath.Join(root, MetaTmpBucket), 0o777); err != nil {
		return toAccessError(err)
	}

	tmp := filepath.Join(root, MetaTmpBucket, uuid.NewString())
	if err := os.WriteFile(tmp, buf, 0o666); err != nil {
		return toAccessError(err)
	}

	dst := filepath.Join(root, MetaBucket, FormatConfigFile)
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return toAccessError(err)
	}

	return nil
}
