package types

// ImageFormat is the container format of the Windows install image.
type ImageFormat string

const (
	ImageFormatWIM ImageFormat = "wim"
	ImageFormatESD ImageFormat = "esd"
)

// SourceImage is the Windows installation ISO a run works from.
type SourceImage struct {
	Path string `json:"path"`
	// Downloaded is true when the ISO was fetched during this run and is
	// therefore a candidate for deletion on cleanup.
	Downloaded bool   `json:"downloaded"`
	Label      string `json:"label,omitempty"`
}

// InstallImage is sources/install.wim or sources/install.esd inside the ISO.
type InstallImage struct {
	Path   string      `json:"path"`
	Format ImageFormat `json:"format"`
}

// Edition is one image inside a WIM/ESD container.
type Edition struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	EditionID   string `json:"edition_id,omitempty"`
}
