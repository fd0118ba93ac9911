package kmlgen

import (
	"archive/zip"
	"io"
	"io/fs"
	"path"

	"github.com/rotisserie/eris"
	kml "github.com/twpayne/go-kml"

	"github.com/snowline-maps/terrain-export/internal/style"
)

// WriteKMZ packages a KML document and one icon set into a KMZ archive:
// doc.kml first, then every file under "<icon-dir>-<size>/". The icon set
// directory must exist in the provided filesystem.
func WriteKMZ(w io.Writer, doc *kml.CompoundElement, icons fs.FS, iconDir string, iconSize int) error {
	zw := zip.NewWriter(w)

	docEntry, err := zw.Create("doc.kml")
	if err != nil {
		return eris.Wrap(err, "kmz: create doc.kml entry")
	}
	if err := doc.WriteIndent(docEntry, "", "  "); err != nil {
		return eris.Wrap(err, "kmz: write doc.kml")
	}

	dirName := style.IconDirName(iconDir, iconSize)
	entries, err := fs.ReadDir(icons, dirName)
	if err != nil {
		return eris.Wrapf(err, "kmz: read icon set %s", dirName)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := path.Join(dirName, entry.Name())
		if err := addFile(zw, icons, name); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return eris.Wrap(err, "kmz: finalize archive")
	}
	return nil
}

func addFile(zw *zip.Writer, fsys fs.FS, name string) error {
	src, err := fsys.Open(name)
	if err != nil {
		return eris.Wrapf(err, "kmz: open icon %s", name)
	}
	defer src.Close() //nolint:errcheck

	dst, err := zw.Create(name)
	if err != nil {
		return eris.Wrapf(err, "kmz: create entry %s", name)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return eris.Wrapf(err, "kmz: write entry %s", name)
	}
	return nil
}
