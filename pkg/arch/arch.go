// Package arch describes the two native Windows targets of an MSYS2
// installation.
package arch

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tc-hib/winres"
)

// Arch is a native Windows build target, named after its MSYSTEM value.
type Arch int

const (
	MINGW64 Arch = iota
	MINGW32
)

type properties struct {
	name    string
	subdir  string
	bits    int
	cpu     string
	objArch winres.Arch
}

var table = [...]properties{
	MINGW64: {name: "MINGW64", subdir: "mingw64", bits: 64, cpu: "x86_64", objArch: winres.ArchAMD64},
	MINGW32: {name: "MINGW32", subdir: "mingw32", bits: 32, cpu: "i686", objArch: winres.ArchI386},
}

// All lists every supported target.
func All() []Arch {
	return []Arch{MINGW64, MINGW32}
}

// Parse returns the target named s, ignoring case.
func Parse(s string) (Arch, error) {
	for _, a := range All() {
		if strings.EqualFold(table[a].name, strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown MSYSTEM value %q (valid: MINGW64, MINGW32)", s)
}

// FromEnv returns the target named by the MSYSTEM environment variable.
func FromEnv() (Arch, error) {
	msystem, ok := os.LookupEnv("MSYSTEM")
	if !ok {
		return 0, fmt.Errorf("MSYSTEM is not set; run from a MINGW64 or MINGW32 shell")
	}
	return Parse(msystem)
}

// String returns the MSYSTEM value.
func (a Arch) String() string { return table[a].name }

// Subdir is the directory at the root of the installation holding this
// target's native files.
func (a Arch) Subdir() string { return table[a].subdir }

// Bits is 64 or 32.
func (a Arch) Bits() int { return table[a].bits }

// CPU is the architecture code used in package names.
func (a Arch) CPU() string { return table[a].cpu }

// PackagePrefix is the pacman package-name prefix, e.g. "mingw-w64-x86_64-".
func (a Arch) PackagePrefix() string {
	return "mingw-w64-" + a.CPU() + "-"
}

// BundleSuffix is appended to generated bundle names, e.g. "-w64".
func (a Arch) BundleSuffix() string {
	return fmt.Sprintf("-w%02d", a.Bits())
}

// ObjectArch is the COFF machine type for resource objects.
func (a Arch) ObjectArch() winres.Arch { return table[a].objArch }

// Substs returns the placeholder values available to bundle specs.
func (a Arch) Substs() map[string]string {
	return map[string]string{
		"msystem_subdir": a.Subdir(),
		"bits":           strconv.Itoa(a.Bits()),
		"pkg_prefix":     a.PackagePrefix(),
	}
}
