package launcher

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/tc-hib/winres"
	"github.com/tc-hib/winres/version"

	"github.com/provide-io/styrene/pkg/arch"
	styreneerrors "github.com/provide-io/styrene/pkg/errors"
)

// ResourceInfo is the metadata embedded in a stub's resources.
type ResourceInfo struct {
	AppID        string
	Name         string
	Comment      string
	ExeName      string
	ProductName  string
	Publisher    string
	Version      string
	VersionMajor int
	VersionMinor int
}

// WriteResourceObject writes a COFF object holding the stub's manifest,
// version information and, when icoPath is set, its icon. The object is
// linked into the stub like any other.
func WriteResourceObject(objPath, icoPath string, info ResourceInfo, a arch.Arch, logger hclog.Logger) error {
	rs := &winres.ResourceSet{}

	if icoPath != "" {
		data, err := os.ReadFile(icoPath)
		if err != nil {
			return styreneerrors.Asset("reading "+icoPath, err)
		}
		icon, err := winres.LoadICO(bytes.NewReader(data))
		if err != nil {
			return styreneerrors.Asset("loading "+icoPath, err)
		}
		if err := rs.SetIcon(winres.ID(1), icon); err != nil {
			return styreneerrors.Asset("setting icon", err)
		}
		logger.Debug("icon resource set", "ico", icoPath)
	}

	v4 := [4]uint16{clampVersion(info.VersionMajor), clampVersion(info.VersionMinor), 0, 0}
	rs.SetManifest(winres.AppManifest{
		Identity: winres.AssemblyIdentity{
			Name:    info.AppID,
			Version: v4,
		},
		Description:    info.Name,
		ExecutionLevel: winres.AsInvoker,
		DPIAwareness:   winres.DPIPerMonitorV2,
		LongPathAware:  true,
	})

	numeric := fmt.Sprintf("%d.%d.0.0", v4[0], v4[1])
	vi := version.Info{}
	vi.SetFileVersion(numeric)
	vi.SetProductVersion(numeric)
	strs := map[string]string{
		version.FileDescription:  info.Name,
		version.Comments:         info.Comment,
		version.CompanyName:      info.Publisher,
		version.ProductName:      info.ProductName,
		version.ProductVersion:   info.Version,
		version.OriginalFilename: info.ExeName,
		version.InternalName:     info.AppID,
	}
	for key, value := range strs {
		if value == "" {
			continue
		}
		if err := vi.Set(version.LangDefault, key, value); err != nil {
			return styreneerrors.Asset("setting version field "+key, err)
		}
	}
	rs.SetVersionInfo(vi)

	out, err := os.Create(objPath)
	if err != nil {
		return styreneerrors.Asset("creating "+objPath, err)
	}
	if err := rs.WriteObject(out, a.ObjectArch()); err != nil {
		out.Close()
		return styreneerrors.Asset("writing resource object", err)
	}
	if err := out.Close(); err != nil {
		return styreneerrors.Asset("closing "+objPath, err)
	}

	logger.Debug("resource object written", "path", objPath, "arch", a.ObjectArch())
	return nil
}

func clampVersion(n int) uint16 {
	switch {
	case n < 0:
		return 0
	case n > 0xffff:
		return 0xffff
	}
	return uint16(n)
}
