package portal

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/imedwei/apk-portal/internal/storage"
	"github.com/imedwei/apk-portal/internal/utils"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Package is one stored APK as shown in the list.
type Package struct {
	Key          string
	Name         string
	SizeBytes    int64
	LastModified time.Time
	Uploaded     time.Time // zero when the key does not follow the naming scheme
	URL          string
}

// packageRow is the template view of a Package.
type packageRow struct {
	Index        int
	Key          string
	Name         string
	Size         string
	LastModified string
	Uploaded     string
	URL          template.URL
}

type indexView struct {
	Packages []packageRow
}

// newPackage builds the display model for one listed object.
func newPackage(prefix string, obj storage.ObjectInfo, publicURL string) Package {
	p := Package{
		Key:          obj.Key,
		Name:         obj.Key,
		SizeBytes:    obj.Size,
		LastModified: obj.LastModified,
		URL:          publicURL,
	}
	if uploaded, name, err := utils.ParsePackageKey(prefix, obj.Key); err == nil {
		p.Name = name
		p.Uploaded = uploaded
	}
	return p
}

// renderIndex writes the full page for packages. Output is buffered so a
// template failure never produces a partial page.
func renderIndex(w io.Writer, packages []Package, loc *time.Location) error {
	view := indexView{Packages: make([]packageRow, 0, len(packages))}
	for i, p := range packages {
		row := packageRow{
			Index:        i + 1,
			Key:          p.Key,
			Name:         p.Name,
			Size:         utils.FormatMegabytes(p.SizeBytes),
			LastModified: utils.FormatTimestamp(p.LastModified, loc),
			// Built from bucket configuration and an escaped key.
			URL: template.URL(p.URL),
		}
		if !p.Uploaded.IsZero() {
			row.Uploaded = utils.FormatTimestamp(p.Uploaded, loc)
		}
		view.Packages = append(view.Packages, row)
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, view); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
