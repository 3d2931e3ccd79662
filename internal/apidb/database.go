// Package apidb holds the API level database: the version requirement of
// platform symbols and the metadata of library version-check helpers.
package apidb

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
	"github.com/gnoswap-labs/apigate/internal/apilevel/expr"
	"github.com/gnoswap-labs/apigate/internal/tree"
)

// File is the on-disk layout of a database.
type File struct {
	Symbols map[string]string    `yaml:"symbols"`
	Checks  map[string]CheckSpec `yaml:"checks,omitempty"`
}

// CheckSpec describes a version-check helper. Exactly one of API,
// Codename or Parameter names the compared version.
type CheckSpec struct {
	API       string `yaml:"api,omitempty"`
	Codename  string `yaml:"codename,omitempty"`
	Parameter *int   `yaml:"parameter,omitempty"`
	Lambda    *int   `yaml:"lambda,omitempty"`
	Extension string `yaml:"extension,omitempty"`
}

// Resolve validates the spec and converts it to check metadata.
func (s CheckSpec) Resolve() (*tree.CheckMetadata, error) {
	ns := apilevel.Platform
	if s.Extension != "" {
		if id, err := strconv.Atoi(s.Extension); err == nil {
			ns = apilevel.Namespace(id)
		} else if named, ok := apilevel.LookupNamespace(s.Extension); ok {
			ns = named
		} else {
			return nil, fmt.Errorf("unknown extension %q", s.Extension)
		}
	}

	meta := tree.NewCheckMetadata(ns)
	sources := 0
	if s.API != "" {
		v, err := apilevel.ParseVersion(s.API)
		if err != nil {
			return nil, err
		}
		meta.Version = &v
		sources++
	}
	if s.Codename != "" {
		v, ok := apilevel.Codename(s.Codename)
		if !ok {
			return nil, fmt.Errorf("unknown codename %q", s.Codename)
		}
		meta.Version = &v
		sources++
	}
	if s.Parameter != nil {
		if *s.Parameter < 0 {
			return nil, fmt.Errorf("negative parameter index %d", *s.Parameter)
		}
		meta.Param = *s.Parameter
		sources++
	}
	if sources != 1 {
		return nil, fmt.Errorf("exactly one of api, codename or parameter is required")
	}
	if s.Lambda != nil {
		if *s.Lambda < 0 {
			return nil, fmt.Errorf("negative lambda index %d", *s.Lambda)
		}
		meta.Lambda = *s.Lambda
	}
	return meta, nil
}

// ParseCheckFields parses the "api=24 lambda=1" form used in source
// directives.
func ParseCheckFields(text string) (CheckSpec, error) {
	var spec CheckSpec
	for _, field := range strings.Fields(text) {
		key, value, ok := strings.Cut(field, "=")
		if !ok || value == "" {
			return spec, fmt.Errorf("malformed field %q, want key=value", field)
		}
		switch key {
		case "api":
			spec.API = value
		case "codename":
			spec.Codename = value
		case "extension":
			spec.Extension = value
		case "parameter", "lambda":
			n, err := strconv.Atoi(value)
			if err != nil {
				return spec, fmt.Errorf("invalid %s index %q: %w", key, value, err)
			}
			if key == "parameter" {
				spec.Parameter = &n
			} else {
				spec.Lambda = &n
			}
		default:
			return spec, fmt.Errorf("unknown field %q", key)
		}
	}
	return spec, nil
}

// Database maps symbol ids to requirements and check metadata. A nil
// *Database is empty.
type Database struct {
	requirements map[string]apilevel.Set
	checks       map[string]*tree.CheckMetadata
}

func New() *Database {
	return &Database{
		requirements: make(map[string]apilevel.Set),
		checks:       make(map[string]*tree.CheckMetadata),
	}
}

// Load reads a database file.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read api database: %w", err)
	}
	db, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// Parse decodes a database from YAML.
func Parse(data []byte) (*Database, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode api database: %w", err)
	}

	db := New()
	for _, id := range sortedKeys(f.Symbols) {
		req, err := expr.Parse(f.Symbols[id])
		if err != nil {
			return nil, fmt.Errorf("symbol %s: %w", id, err)
		}
		db.AddRequirement(id, req)
	}
	for id, spec := range f.Checks {
		meta, err := spec.Resolve()
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", id, err)
		}
		db.AddCheck(id, meta)
	}
	return db, nil
}

// AddRequirement ANDs req into the requirement of id.
func (d *Database) AddRequirement(id string, req apilevel.Set) {
	if prev, ok := d.requirements[id]; ok {
		req = prev.AndExact(req)
	}
	d.requirements[id] = req
}

func (d *Database) AddCheck(id string, meta *tree.CheckMetadata) {
	d.checks[id] = meta
}

// Requirement returns the requirement of a symbol.
func (d *Database) Requirement(id string) (apilevel.Set, bool) {
	if d == nil {
		return apilevel.True(), false
	}
	req, ok := d.requirements[id]
	return req, ok
}

// CheckMetadata returns the helper metadata of a symbol.
func (d *Database) CheckMetadata(id string) (*tree.CheckMetadata, bool) {
	if d == nil {
		return nil, false
	}
	meta, ok := d.checks[id]
	return meta, ok
}

// Len returns the number of symbols with a requirement.
func (d *Database) Len() int {
	if d == nil {
		return 0
	}
	return len(d.requirements)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
