package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	styreneerrors "github.com/provide-io/styrene/pkg/errors"
	"github.com/provide-io/styrene/pkg/runner"
)

// Format is a portable archive type.
type Format struct {
	Name string
	// chain is empty for formats produced by an external tool.
	chain []string
}

var (
	Zip    = Format{Name: "zip"}
	TarGz  = Format{Name: "tar.gz", chain: []string{"gzip"}}
	TarBz2 = Format{Name: "tar.bz2", chain: []string{"bzip2"}}
)

var formats = map[string]Format{
	"zip":     Zip,
	"tar.gz":  TarGz,
	"tgz":     TarGz,
	"tar.bz2": TarBz2,
	"tbz2":    TarBz2,
}

// ParseFormat accepts a format name or one of its aliases.
func ParseFormat(s string) (Format, error) {
	f, ok := formats[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Format{}, fmt.Errorf("unknown archive format %q (want zip, tar.gz or tar.bz2)", s)
	}
	return f, nil
}

func (f Format) String() string { return f.Name }

// FileName is the portable archive name for a bundle version.
func (f Format) FileName(stubName, version string) string {
	return fmt.Sprintf("%s-%s-standalone.%s", stubName, version, f.Name)
}

// Writer packs bundle trees. Zip archives are made by the external zip
// tool; tar formats are written in-process.
type Writer struct {
	Runner runner.Runner
	Logger hclog.Logger
}

// Write packs the contents of root into out. Entry names are relative to
// root.
func (w *Writer) Write(ctx context.Context, root, out string, f Format) error {
	logger := w.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger.Info("📦 Writing portable archive", "file", filepath.Base(out), "format", f.Name)

	// zip runs inside root.
	abs, err := filepath.Abs(out)
	if err != nil {
		return err
	}
	out = abs

	if f.Name == Zip.Name {
		cmd := runner.Command{Name: "zip", Args: []string{"-Xq9r", out, "."}, Dir: root}
		if _, err := runner.Check(ctx, w.Runner, cmd); err != nil {
			return err
		}
	} else if err := writeTar(root, out, f.chain); err != nil {
		return styreneerrors.Asset("write "+filepath.Base(out), err)
	}

	if _, err := os.Stat(out); err != nil {
		return styreneerrors.Assetf("expected archive %s does not exist", out)
	}
	return nil
}

func writeTar(root, out string, chain []string) (err error) {
	file, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out)
		}
	}()

	cw, err := applyChain(file, chain)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)

	if err := addTree(tw, root); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar writer: %w", err)
	}
	return cw.Close()
}

func addTree(tw *tar.Writer, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fmt.Errorf("writing tar header for %s: %w", rel, err)
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		hdr.Uname, hdr.Gname = "", ""
		hdr.Uid, hdr.Gid = 0, 0

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing tar header for %s: %w", rel, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("writing tar data for %s: %w", rel, err)
		}
		return nil
	})
}
