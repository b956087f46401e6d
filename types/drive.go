package types

// Drive is a block device as reported by lsblk.
type Drive struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type"` // disk, part, loop, rom, ...
	Size      int64  `json:"size"` // bytes
	Model     string `json:"model,omitempty"`
	Vendor    string `json:"vendor,omitempty"`
	Serial    string `json:"serial,omitempty"`
	Transport string `json:"transport,omitempty"` // usb, sata, nvme, ...
	Removable bool   `json:"removable"`
	ReadOnly  bool   `json:"read_only"`

	Mountpoints []string `json:"mountpoints,omitempty"`
	Children    []Drive  `json:"children,omitempty"`
}

// Describe returns a short human label, e.g. "SanDisk Extreme (usb)".
func (d Drive) Describe() string {
	label := d.Model
	if d.Vendor != "" && label != "" {
		label = d.Vendor + " " + label
	}
	if label == "" {
		label = d.Name
	}
	if d.Transport != "" {
		label += " (" + d.Transport + ")"
	}
	return label
}

// MountedPaths returns every mountpoint of the drive and its partitions.
func (d Drive) MountedPaths() []string {
	var out []string
	out = append(out, d.Mountpoints...)
	for _, c := range d.Children {
		out = append(out, c.MountedPaths()...)
	}
	return out
}
