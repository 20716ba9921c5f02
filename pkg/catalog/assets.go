package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Asset layout convention: every publication owns assets/<id>/ containing
// description.txt, an optional cover.<ext> image and an optional PDF. The
// catalog stores only metadata rows; these helpers resolve paths.

const descriptionFile = "description.txt"

var coverExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp"}

// PublicationDir returns the asset directory of a publication.
func PublicationDir(assetsDir, id string) string {
	return filepath.Join(assetsDir, id)
}

// DescriptionPath returns the conventional description file path. The file
// may not exist yet.
func DescriptionPath(assetsDir, id string) string {
	return filepath.Join(assetsDir, id, descriptionFile)
}

// CoverPath returns the path of the publication's cover image, or "" when
// no cover exists.
func CoverPath(assetsDir, id string) string {
	entries, err := os.ReadDir(PublicationDir(assetsDir, id))
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if strings.TrimSuffix(name, filepath.Ext(name)) != "cover" {
			continue
		}
		for _, known := range coverExtensions {
			if ext == known {
				return filepath.Join(PublicationDir(assetsDir, id), name)
			}
		}
	}
	return ""
}

// PdfPath returns the path of the publication's PDF, or "" when the
// publication has none. The first *.pdf in the directory wins.
func PdfPath(assetsDir, id string) string {
	entries, err := os.ReadDir(PublicationDir(assetsDir, id))
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			return filepath.Join(PublicationDir(assetsDir, id), entry.Name())
		}
	}
	return ""
}

// WriteDescription creates the publication's asset directory if needed and
// writes its description text.
func WriteDescription(assetsDir, id, text string) error {
	dir := PublicationDir(assetsDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating asset directory: %w", err)
	}
	if err := os.WriteFile(DescriptionPath(assetsDir, id), []byte(text), 0644); err != nil {
		return fmt.Errorf("writing description: %w", err)
	}
	return nil
}

// ImportAsset copies an external file (cover image or PDF) into the
// publication's asset directory. Covers are renamed to cover.<ext>; PDFs
// keep their original base name.
func ImportAsset(assetsDir, id, sourcePath string) (string, error) {
	dir := PublicationDir(assetsDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating asset directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(sourcePath))
	var destName string
	switch {
	case ext == ".pdf":
		destName = filepath.Base(sourcePath)
	default:
		for _, known := range coverExtensions {
			if ext == known {
				destName = "cover" + ext
				break
			}
		}
		if destName == "" {
			return "", fmt.Errorf("unsupported asset type %q", ext)
		}
	}

	dest := filepath.Join(dir, destName)
	if err := copyFile(sourcePath, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Sync()
}
