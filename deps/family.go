package deps

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Family is a Linux distribution family with a common package manager.
type Family string

const (
	Debian  Family = "debian"
	Fedora  Family = "fedora"
	Arch    Family = "arch"
	Suse    Family = "suse"
	Unknown Family = "unknown"
)

const osReleasePath = "/etc/os-release"

var knownFamilies = []Family{Debian, Fedora, Arch, Suse}

var installers = map[Family]string{
	Debian: "sudo apt install",
	Fedora: "sudo dnf install",
	Arch:   "sudo pacman -S",
	Suse:   "sudo zypper install",
}

// aliases maps os-release IDs to families.
var aliases = map[string]Family{
	"debian":      Debian,
	"ubuntu":      Debian,
	"linuxmint":   Debian,
	"pop":         Debian,
	"fedora":      Fedora,
	"rhel":        Fedora,
	"centos":      Fedora,
	"rocky":       Fedora,
	"almalinux":   Fedora,
	"arch":        Arch,
	"manjaro":     Arch,
	"endeavouros": Arch,
	"suse":        Suse,
	"opensuse":    Suse,
	"sles":        Suse,
}

// DetectFamily reads an os-release file. Missing or unreadable files yield
// Unknown.
func DetectFamily(path string) Family {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return Unknown
	}
	defer f.Close() //nolint:errcheck
	return ParseOSRelease(f)
}

// ParseOSRelease maps ID, then each ID_LIKE entry, to a Family.
func ParseOSRelease(r io.Reader) Family {
	var id string
	var like []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		val = strings.ToLower(strings.Trim(val, `"'`))
		switch key {
		case "ID":
			id = val
		case "ID_LIKE":
			like = strings.Fields(val)
		}
	}
	for _, cand := range append([]string{id}, like...) {
		if fam, ok := aliases[cand]; ok {
			return fam
		}
		if strings.HasPrefix(cand, "opensuse") {
			return Suse
		}
	}
	return Unknown
}
