package toolprov

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// entryMatches reports whether an archive member is the wanted executable,
// either at the archive root or inside any directory.
func entryMatches(name, exe string) bool {
	normalized := strings.ReplaceAll(name, `\`, "/")
	return normalized == exe || strings.HasSuffix(normalized, "/"+exe)
}

// extractTo copies the executable member of the archive at archivePath into w.
func extractTo(archivePath string, kind archiveKind, exe string, w func(io.Reader) error) error {
	switch kind {
	case archiveZip:
		return extractZip(archivePath, exe, w)
	case archiveTarXZ, archiveTarGz:
		return extractTar(archivePath, kind, exe, w)
	default:
		return fmt.Errorf("%w: unknown archive type", ErrExtraction)
	}
}

func extractZip(archivePath, exe string, w func(io.Reader) error) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open zip: %v", ErrExtraction, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !entryMatches(file.Name, exe) {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", ErrExtraction, file.Name, err)
		}
		err = w(rc)
		rc.Close()
		return err
	}
	return fmt.Errorf("%w: %s not found inside archive", ErrExtraction, exe)
}

func extractTar(archivePath string, kind archiveKind, exe string, w func(io.Reader) error) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open archive: %v", ErrExtraction, err)
	}
	defer file.Close()

	var stream io.Reader
	switch kind {
	case archiveTarXZ:
		xzr, err := xz.NewReader(file)
		if err != nil {
			return fmt.Errorf("%w: open xz stream: %v", ErrExtraction, err)
		}
		stream = xzr
	default:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("%w: open gzip stream: %v", ErrExtraction, err)
		}
		defer gz.Close()
		stream = gz
	}

	tr := tar.NewReader(stream)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: read tar: %v", ErrExtraction, err)
		}
		if header.Typeflag != tar.TypeReg || !entryMatches(header.Name, exe) {
			continue
		}
		return w(tr)
	}
	return fmt.Errorf("%w: %s not found inside archive", ErrExtraction, exe)
}
