package diskapi

import (
	"context"

	"github.com/chanyoung/ecdisk/pkg/disk"
)

// Control channel methods. Failures never fail the rpc call itself:
// the outcome travels in the response so the client can rebuild the
// taxonomy value from it.

func fail(err error) (bool, string) {
	if err == nil {
		return true, ""
	}
	return false, err.Error()
}

func (h *handlers) MakeVol(req *disk.MakeVolRequest, res *disk.MakeVolResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.MakeVol(context.Background(), req.Volume)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) MakeVolBulk(req *disk.MakeVolBulkRequest, res *disk.MakeVolBulkResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.MakeVolBulk(context.Background(), req.Volumes...)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) ListVols(req *disk.ListVolsRequest, res *disk.ListVolsResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		res.Vols, err = d.ListVols(context.Background())
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) StatVol(req *disk.StatVolRequest, res *disk.StatVolResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		res.Vol, err = d.StatVol(context.Background(), req.Volume)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) DeleteVol(req *disk.DeleteVolRequest, res *disk.DeleteVolResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.DeleteVol(context.Background(), req.Volume)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) DiskInfo(req *disk.DiskInfoRequest, res *disk.DiskInfoResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		res.Info, err = d.DiskInfo(context.Background(), req.Opts)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) GetDiskID(req *disk.GetDiskIDRequest, res *disk.GetDiskIDResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		res.ID, err = d.DiskID()
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) SetDiskID(req *disk.SetDiskIDRequest, res *disk.SetDiskIDResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.SetDiskID(req.ID)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) DeleteVersion(req *disk.DeleteVersionRequest, res *disk.DeleteVersionResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.DeleteVersion(context.Background(), req.Volume, req.Path, req.FileInfo, req.ForceDelMarker, req.Opts)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) DeleteVersions(req *disk.DeleteVersionsRequest, res *disk.DeleteVersionsResponse) error {
	d, err := h.getDisk(req.Disk)
	if err != nil {
		res.Success, res.Err = fail(err)
		return nil
	}

	errs := d.DeleteVersions(context.Background(), req.Volume, req.Versions, req.Opts)
	res.Errs = make([]string, len(errs))
	for i, err := range errs {
		if err != nil {
			res.Errs[i] = err.Error()
		}
	}
	res.Success = true
	return nil
}

func (h *handlers) DeletePaths(req *disk.DeletePathsRequest, res *disk.DeletePathsResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.DeletePaths(context.Background(), req.Volume, req.Paths)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) WriteMetadata(req *disk.WriteMetadataRequest, res *disk.WriteMetadataResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.WriteMetadata(context.Background(), req.OrigVolume, req.Volume, req.Path, req.FileInfo)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) UpdateMetadata(req *disk.UpdateMetadataRequest, res *disk.UpdateMetadataResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.UpdateMetadata(context.Background(), req.Volume, req.Path, req.FileInfo, req.Opts)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) ReadVersion(req *disk.ReadVersionRequest, res *disk.ReadVersionResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		res.FileInfo, err = d.ReadVersion(context.Background(), req.OrigVolume, req.Volume, req.Path, req.VersionID, req.Opts)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) ReadXL(req *disk.ReadXLRequest, res *disk.ReadXLResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		res.Data, err = d.ReadXL(context.Background(), req.Volume, req.Path, req.ReadData)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) RenameData(req *disk.RenameDataRequest, res *disk.RenameDataResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		var resp disk.RenameDataResp
		resp, err = d.RenameData(context.Background(), req.SrcVolume, req.SrcPath, req.FileInfo, req.DstVolume, req.DstPath)
		res.OldDataDir = resp.OldDataDir
		res.Sign = resp.Sign
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) ListDir(req *disk.ListDirRequest, res *disk.ListDirResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		res.Entries, err = d.ListDir(context.Background(), req.OrigVolume, req.Volume, req.DirPath, req.Count)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) RenameFile(req *disk.RenameFileRequest, res *disk.RenameFileResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.RenameFile(context.Background(), req.SrcVolume, req.SrcPath, req.DstVolume, req.DstPath)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) RenamePart(req *disk.RenamePartRequest, res *disk.RenamePartResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.RenamePart(context.Background(), req.SrcVolume, req.SrcPath, req.DstVolume, req.DstPath, req.Meta)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) Delete(req *disk.DeleteRequest, res *disk.DeleteResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.Delete(context.Background(), req.Volume, req.Path, req.Opts)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) VerifyFile(req *disk.VerifyFileRequest, res *disk.VerifyFileResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		var resp disk.CheckPartsResp
		resp, err = d.VerifyFile(context.Background(), req.Volume, req.Path, req.FileInfo)
		res.Results = resp.Results
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) CheckParts(req *disk.CheckPartsRequest, res *disk.CheckPartsResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		var resp disk.CheckPartsResp
		resp, err = d.CheckParts(context.Background(), req.Volume, req.Path, req.FileInfo)
		res.Results = resp.Results
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) ReadMultiple(req *disk.ReadMultipleRequest, res *disk.ReadMultipleResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		res.Files, err = d.ReadMultiple(context.Background(), req.Req)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) WriteAll(req *disk.WriteAllRequest, res *disk.WriteAllResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		err = d.WriteAll(context.Background(), req.Volume, req.Path, req.Data)
	}
	res.Success, res.Err = fail(err)
	return nil
}

func (h *handlers) ReadAll(req *disk.ReadAllRequest, res *disk.ReadAllResponse) error {
	d, err := h.getDisk(req.Disk)
	if err == nil {
		res.Data, err = d.ReadAll(context.Background(), req.Volume, req.Path)
	}
	res.Success, res.Err = fail(err)
	return nil
}
