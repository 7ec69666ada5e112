package idtype

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Flag describes per-type capabilities.
type Flag uint8

const (
	FlagNoCopy Flag = 1 << iota
	// FlagNoLibraries marks types that cannot be linked from other files.
	FlagNoLibraries
	// FlagAppendIsReusable lets appended Ids be reused through weak references.
	FlagAppendIsReusable
	FlagNoAnimData
)

var flagNames = map[string]Flag{
	"no_copy":            FlagNoCopy,
	"no_libraries":       FlagNoLibraries,
	"append_is_reusable": FlagAppendIsReusable,
	"no_animdata":        FlagNoAnimData,
}

// Info is the metadata of one type.
type Info struct {
	Code        Code
	Name        string
	Plural      string
	DefaultName string
	Flags       Flag
}

func (i *Info) Linkable() bool { return i.Flags&FlagNoLibraries == 0 }

// ReusableLink reports whether Ids of this type may carry weak references.
func (i *Info) ReusableLink() bool {
	return i.Linkable() && i.Flags&FlagAppendIsReusable != 0
}

type typeEntry struct {
	Code        string   `yaml:"code"`
	Name        string   `yaml:"name"`
	Plural      string   `yaml:"plural"`
	DefaultName string   `yaml:"default_name"`
	Flags       []string `yaml:"flags"`
}

type typeListFile struct {
	Types []typeEntry `yaml:"types"`
}

// Table holds Info for every code, indexed by Index.
type Table struct {
	infos [IndexMax]Info
}

// Info returns the metadata for c. Unknown codes panic.
func (t *Table) Info(c Code) *Info {
	return &t.infos[c.Index()]
}

//go:embed types.yaml
var defaultTypes []byte

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the table parsed from the embedded types.yaml.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := ParseTable(defaultTypes)
		if err != nil {
			panic(fmt.Sprintf("idtype: embedded types.yaml: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// LoadTable loads type metadata from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read type table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a type table. Every code must appear
// exactly once.
func ParseTable(data []byte) (*Table, error) {
	var f typeListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse type table: %w", err)
	}
	t := &Table{}
	var seen [IndexMax]bool
	for _, e := range f.Types {
		c, err := ParseCode(e.Code)
		if err != nil {
			return nil, fmt.Errorf("type table: %w", err)
		}
		idx := c.Index()
		if seen[idx] {
			return nil, fmt.Errorf("type table: code %s listed twice", c)
		}
		seen[idx] = true
		info := Info{Code: c, Name: e.Name, Plural: e.Plural, DefaultName: e.DefaultName}
		if info.DefaultName == "" {
			info.DefaultName = e.Name
		}
		for _, fl := range e.Flags {
			v, ok := flagNames[fl]
			if !ok {
				return nil, fmt.Errorf("type table: %s: unknown flag %q", c, fl)
			}
			info.Flags |= v
		}
		t.infos[idx] = info
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("type table: missing code %s", At(Index(i)))
		}
	}
	return t, nil
}
