package apilevel

import (
	"strconv"
	"strings"
	"unicode"
)

// HighestKnown is the newest level with a published codename.
const HighestKnown = 36

var buildCodes = map[string]int{
	"BASE":                   1,
	"BASE_1_1":               2,
	"CUPCAKE":                3,
	"DONUT":                  4,
	"ECLAIR":                 5,
	"ECLAIR_0_1":             6,
	"ECLAIR_MR1":             7,
	"FROYO":                  8,
	"GINGERBREAD":            9,
	"GINGERBREAD_MR1":        10,
	"HONEYCOMB":              11,
	"HONEYCOMB_MR1":          12,
	"HONEYCOMB_MR2":          13,
	"ICE_CREAM_SANDWICH":     14,
	"ICE_CREAM_SANDWICH_MR1": 15,
	"JELLY_BEAN":             16,
	"JELLY_BEAN_MR1":         17,
	"JELLY_BEAN_MR2":         18,
	"KITKAT":                 19,
	"KITKAT_WATCH":           20,
	"LOLLIPOP":               21,
	"LOLLIPOP_MR1":           22,
	"M":                      23,
	"N":                      24,
	"N_MR1":                  25,
	"O":                      26,
	"O_MR1":                  27,
	"P":                      28,
	"Q":                      29,
	"R":                      30,
	"S":                      31,
	"S_V2":                   32,
	"TIRAMISU":               33,
	"UPSIDE_DOWN_CAKE":       34,
	"VANILLA_ICE_CREAM":      35,
	"BAKLAVA":                36,
	"CUR_DEVELOPMENT":        10000,
}

// previewNames are the short names used by helpers such as isAtLeastSv2.
var previewNames = map[string]int{
	"L":        21,
	"M":        23,
	"N":        24,
	"NMR1":     25,
	"O":        26,
	"OMR1":     27,
	"P":        28,
	"Q":        29,
	"R":        30,
	"S":        31,
	"SV2":      32,
	"T":        33,
	"TIRAMISU": 33,
	"U":        34,
	"V":        35,
	"BAKLAVA":  36,
}

// Codename resolves a VERSION_CODES style name such as "LOLLIPOP" or "N_MR1".
func Codename(name string) (Version, bool) {
	if level, ok := buildCodes[name]; ok {
		return Level(level), true
	}
	return Version{}, false
}

var (
	nameHeuristicPrefixes = []string{"isAtLeast", "isRunning", "runningOn", "running", "has", "is"}
	nameHeuristicSuffixes = []string{"OrLater", "OrAbove", "OrHigher", "OrNewer", "Sdk"}
)

// FromMethodName infers the minimum level checked by a helper from its
// name alone: IsAtLeastS, isRunningTOrLater, hasApi28. Both lower and
// upper case first letters are accepted.
func FromMethodName(name string) (Version, bool) {
	if name == "" {
		return Version{}, false
	}
	lowered := string(unicode.ToLower(rune(name[0]))) + name[1:]

	prefix := ""
	for _, p := range nameHeuristicPrefixes {
		if strings.HasPrefix(lowered, p) {
			prefix = p
			break
		}
	}
	if prefix == "" {
		return Version{}, false
	}

	suffix := ""
	for _, s := range nameHeuristicSuffixes {
		if len(lowered) >= len(s) && strings.EqualFold(lowered[len(lowered)-len(s):], s) {
			suffix = s
			break
		}
	}
	if suffix == "" && prefix == "is" {
		return Version{}, false
	}
	if len(prefix)+len(suffix) >= len(lowered) {
		return Version{}, false
	}
	code := lowered[len(prefix) : len(lowered)-len(suffix)]

	if level, ok := previewNames[strings.ToUpper(code)]; ok {
		return Level(level), true
	}
	if level, ok := buildCodes[strings.ToUpper(code)]; ok {
		return Level(level), true
	}
	if len(code) == 1 && unicode.IsUpper(rune(code[0])) {
		return Level(HighestKnown + 1), true
	}
	if len(code) > 3 && strings.EqualFold(code[:3], "api") {
		digits := strings.TrimPrefix(code[3:], "_")
		end := 0
		for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
			end++
		}
		if end > 0 {
			if level, err := strconv.Atoi(digits[:end]); err == nil {
				return Level(level), true
			}
		}
	}
	return Version{}, false
}

// FromBuildCompat handles the fixed BuildCompat.isAtLeastX helpers.
func FromBuildCompat(name string) (Version, bool) {
	switch {
	case name == "isAtLeastN" || name == "IsAtLeastN":
		return Level(24), true
	case name == "isAtLeastNMR1" || name == "IsAtLeastNMR1":
		return Level(25), true
	case name == "isAtLeastO" || name == "IsAtLeastO":
		return Level(26), true
	case name == "isAtLeastOMR1" || name == "IsAtLeastOMR1":
		return Level(27), true
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(name, "isAtLeast"), "IsAtLeast")
	if rest == name || rest == "" {
		return Version{}, false
	}
	switch rest[0] {
	case 'P':
		return Level(28), true
	case 'Q':
		return Level(29), true
	}
	if len(rest) == 1 && unicode.IsUpper(rune(rest[0])) && rest[0] > 'Q' {
		return Level(HighestKnown + 1), true
	}
	return Version{}, false
}
