package apilevel

import (
	"fmt"
	"strconv"

	goversion "github.com/hashicorp/go-version"
)

// fullScale is the multiplier used by minor-aware version codes,
// where 36.1 is encoded as 3600001.
const fullScale = 100000

// Version is a platform version. An unspecified minor is 0.
type Version struct {
	Major int
	Minor int
}

// Level returns the version for a major level with no minor.
func Level(major int) Version {
	return Version{Major: major}
}

// FromFull decodes a minor-aware version code.
func FromFull(code int64) Version {
	if code < fullScale {
		return Version{Major: int(code)}
	}
	return Version{Major: int(code / fullScale), Minor: int(code % fullScale)}
}

// ParseVersion parses "34" or "34.1".
func ParseVersion(s string) (Version, error) {
	v, err := goversion.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("invalid version %q: pre-release and metadata are not supported", s)
	}
	segs := v.Segments()
	for i := 2; i < len(segs); i++ {
		if segs[i] != 0 {
			return Version{}, fmt.Errorf("invalid version %q: at most major.minor is allowed", s)
		}
	}
	out := Version{Major: segs[0]}
	if len(segs) > 1 {
		out.Minor = segs[1]
	}
	return out, nil
}

// Compare returns -1, 0 or +1.
func Compare(a, b Version) int {
	switch {
	case a.Major < b.Major:
		return -1
	case a.Major > b.Major:
		return 1
	case a.Minor < b.Minor:
		return -1
	case a.Minor > b.Minor:
		return 1
	}
	return 0
}

func (v Version) Less(o Version) bool { return Compare(v, o) < 0 }

func (v Version) IsZero() bool { return v == Version{} }

// NextMajor is the smallest version strictly above every minor of v.Major.
func (v Version) NextMajor() Version { return Version{Major: v.Major + 1} }

func (v Version) NextMinor() Version { return Version{Major: v.Major, Minor: v.Minor + 1} }

func (v Version) String() string {
	if v.Minor == 0 {
		return strconv.Itoa(v.Major)
	}
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

func maxVersion(a, b Version) Version {
	if a.Less(b) {
		return b
	}
	return a
}

func minVersion(a, b Version) Version {
	if a.Less(b) {
		return a
	}
	return b
}
