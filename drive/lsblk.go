package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/types"
)

// PATH is left out: util-linux < 2.33 has no such column.
const lsblkColumns = "NAME,TYPE,SIZE,MODEL,VENDOR,SERIAL,TRAN,RM,RO,MOUNTPOINT"

// List returns every top-level block device with its partitions.
func List(ctx context.Context, r runner.Runner) ([]types.Drive, error) {
	out, err := r.Output(ctx, runner.Command("lsblk", "--json", "--bytes", "--output", lsblkColumns))
	if err != nil {
		return nil, fmt.Errorf("list block devices: %w", err)
	}
	drives, err := ParseLsblk(out)
	if err != nil {
		return nil, err
	}
	log.WithFunc("drive.List").Debugf(ctx, "lsblk reported %d devices", len(drives))
	return drives, nil
}

// Get returns a single device by path or name.
func Get(ctx context.Context, r runner.Runner, arg string) (types.Drive, error) {
	drives, err := List(ctx, r)
	if err != nil {
		return types.Drive{}, err
	}
	return Lookup(drives, arg)
}

type lsblkOutput struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

// lsblkDevice accepts both the string-typed output of util-linux < 2.33 and
// the native JSON types of later versions.
type lsblkDevice struct {
	Name        string        `json:"name"`
	Path        string        `json:"path"`
	Type        string        `json:"type"`
	Size        flexInt       `json:"size"`
	Model       *string       `json:"model"`
	Vendor      *string       `json:"vendor"`
	Serial      *string       `json:"serial"`
	Tran        *string       `json:"tran"`
	RM          flexBool      `json:"rm"`
	RO          flexBool      `json:"ro"`
	Mountpoint  *string       `json:"mountpoint"`
	Mountpoints []*string     `json:"mountpoints"`
	Children    []lsblkDevice `json:"children"`
}

// ParseLsblk decodes `lsblk --json --bytes` output.
func ParseLsblk(data []byte) ([]types.Drive, error) {
	var out lsblkOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse lsblk output: %w", err)
	}
	drives := make([]types.Drive, 0, len(out.BlockDevices))
	for _, d := range out.BlockDevices {
		drives = append(drives, d.toDrive())
	}
	return drives, nil
}

func (d lsblkDevice) toDrive() types.Drive {
	drv := types.Drive{
		Name:      d.Name,
		Path:      d.Path,
		Type:      d.Type,
		Size:      int64(d.Size),
		Model:     str(d.Model),
		Vendor:    str(d.Vendor),
		Serial:    str(d.Serial),
		Transport: str(d.Tran),
		Removable: bool(d.RM),
		ReadOnly:  bool(d.RO),
	}
	if drv.Path == "" {
		drv.Path = "/dev/" + d.Name
	}
	if mp := str(d.Mountpoint); mp != "" {
		drv.Mountpoints = append(drv.Mountpoints, mp)
	}
	for _, mp := range d.Mountpoints {
		if m := str(mp); m != "" && !contains(drv.Mountpoints, m) {
			drv.Mountpoints = append(drv.Mountpoints, m)
		}
	}
	for _, c := range d.Children {
		drv.Children = append(drv.Children, c.toDrive())
	}
	return drv
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// flexInt decodes 123, "123" or null.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("size %q: %w", b, err)
	}
	*f = flexInt(n)
	return nil
}

// flexBool decodes true, "1", "0", 1, 0 or null.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "true", "1":
		*f = true
	case "false", "0", "", "null":
		*f = false
	default:
		return fmt.Errorf("unexpected boolean %s", b)
	}
	return nil
}
