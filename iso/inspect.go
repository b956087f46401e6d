package iso

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kdomanski/iso9660"
)

// Info is what can be learned from an ISO without mounting it.
type Info struct {
	Label string
	// InstallImage is the ISO9660 path of install.wim/esd, e.g.
	// "sources/install.wim". Empty when the image is only visible through
	// UDF, which is the norm for Windows media.
	InstallImage string
	// UDFOnly is true when the ISO9660 tree has no sources directory.
	UDFOnly bool
}

// Inspect reads the ISO9660 volume descriptor and root directory of path.
func Inspect(path string) (*Info, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	img, err := iso9660.OpenImage(f)
	if err != nil {
		// Pure UDF media has no ISO9660 tree; mount still reads it.
		if errors.Is(err, iso9660.ErrUDFNotSupported) {
			return &Info{UDFOnly: true}, nil
		}
		return nil, fmt.Errorf("%s is not an ISO image: %w", path, err)
	}
	info := &Info{}
	if label, err := img.Label(); err == nil {
		info.Label = strings.TrimSpace(label)
	}

	root, err := img.RootDir()
	if err != nil {
		return nil, fmt.Errorf("read ISO root of %s: %w", path, err)
	}
	sources, err := child(root, "sources")
	if err != nil {
		return nil, fmt.Errorf("read ISO root of %s: %w", path, err)
	}
	if sources == nil || !sources.IsDir() {
		info.UDFOnly = true
		return info, nil
	}
	for _, name := range []string{"install.wim", "install.esd"} {
		f, err := child(sources, name)
		if err != nil {
			return nil, fmt.Errorf("read ISO sources of %s: %w", path, err)
		}
		if f != nil && !f.IsDir() {
			info.InstallImage = "sources/" + name
			break
		}
	}
	return info, nil
}

// child finds name (case-insensitive) among dir's entries.
func child(dir *iso9660.File, name string) (*iso9660.File, error) {
	children, err := dir.GetChildren()
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if strings.EqualFold(strings.TrimSuffix(c.Name(), ";1"), name) {
			return c, nil
		}
	}
	return nil, nil
}
