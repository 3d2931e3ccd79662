package apilevel

import (
	"sort"
	"strconv"
	"strings"
)

// Namespace identifies an independently versioned counter.
// Platform is the primary version; positive values are extension SDK ids.
type Namespace int

const Platform Namespace = 0

// AdServices is the id of the ad services extension SDK.
const AdServices Namespace = 1000000

var extensionNames = map[string]Namespace{
	"R":           30,
	"S":           31,
	"T":           33,
	"U":           34,
	"V":           35,
	"B":           36,
	"AD_SERVICES": AdServices,
}

var extensionIDs = func() map[Namespace]string {
	m := make(map[Namespace]string, len(extensionNames))
	for name, id := range extensionNames {
		m[id] = name
	}
	return m
}()

// LookupNamespace resolves a symbolic extension name ("R", "AD_SERVICES")
// or the primary names "api" and "sdk".
func LookupNamespace(name string) (Namespace, bool) {
	switch strings.ToLower(name) {
	case "api", "sdk":
		return Platform, true
	}
	ns, ok := extensionNames[strings.ToUpper(name)]
	return ns, ok
}

// ExtensionNames returns the registered extension names in id order.
func ExtensionNames() []string {
	names := make([]string, 0, len(extensionNames))
	for name := range extensionNames {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return extensionNames[names[i]] < extensionNames[names[j]]
	})
	return names
}

func (n Namespace) IsPlatform() bool { return n == Platform }

// String returns the form accepted by the requirement grammar.
func (n Namespace) String() string {
	if n == Platform {
		return "api"
	}
	if name, ok := extensionIDs[n]; ok {
		return "ext(" + name + ")"
	}
	return "ext(" + strconv.Itoa(int(n)) + ")"
}

// Describe returns a human readable label used in messages.
func (n Namespace) Describe() string {
	if n == Platform {
		return "API level"
	}
	if name, ok := extensionIDs[n]; ok {
		return name + " extension level"
	}
	return "extension " + strconv.Itoa(int(n)) + " level"
}
