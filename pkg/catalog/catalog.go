// Package catalog describes the ICL commands known to the SDK.
//
// The catalog is embedded YAML. The simulator uses it to reject unknown
// commands and to check parameters; icl-ctl uses it to list and describe
// commands.
package catalog

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/icl-sdk/icl-go/pkg/wire"
)

//go:embed commands/*.yaml
var commandFS embed.FS

const catalogFile = "commands/icl.yaml"

// Catalog is the set of known ICL commands.
type Catalog struct {
	Version     string       `yaml:"version"`
	Description string       `yaml:"description"`
	Commands    []CommandDef `yaml:"commands"`

	byName map[string]*CommandDef
}

// CommandDef describes one ICL command.
type CommandDef struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Awaited     bool     `yaml:"awaited"`
	Parameters  []string `yaml:"parameters"`
	Results     []string `yaml:"results"`

	// Device is false for commands that do not address a device index.
	// Absent means true.
	Device *bool `yaml:"device"`
}

// AddressesDevice reports whether the command carries a device index.
func (c *CommandDef) AddressesDevice() bool {
	return c.Device == nil || *c.Device
}

// Family returns the command family.
func (c *CommandDef) Family() wire.Family {
	return wire.FamilyOf(c.Name)
}

// RequiredParameters returns all parameter names the command must carry,
// including the device index.
func (c *CommandDef) RequiredParameters() []string {
	if !c.AddressesDevice() {
		return c.Parameters
	}
	return append([]string{wire.KeyIndex}, c.Parameters...)
}

// MissingParameters returns the required parameters absent from cmd.
func (c *CommandDef) MissingParameters(cmd *wire.Command) []string {
	var missing []string
	for _, p := range c.RequiredParameters() {
		if _, ok := cmd.Parameters[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Load returns the embedded catalog. It is parsed once.
func Load() (*Catalog, error) {
	loadOnce.Do(func() {
		data, err := commandFS.ReadFile(catalogFile)
		if err != nil {
			loadErr = fmt.Errorf("reading catalog: %w", err)
			return
		}
		loaded, loadErr = Parse(data)
	})
	return loaded, loadErr
}

// MustLoad is like Load but panics if the embedded catalog is invalid.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse parses a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c.byName = make(map[string]*CommandDef, len(c.Commands))
	for i := range c.Commands {
		def := &c.Commands[i]
		if def.Name == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		if def.Family() == wire.FamilyUnknown {
			return nil, fmt.Errorf("command %s has no known family prefix", def.Name)
		}
		if _, dup := c.byName[def.Name]; dup {
			return nil, fmt.Errorf("command %s listed twice", def.Name)
		}
		c.byName[def.Name] = def
	}
	return &c, nil
}

// Lookup returns the definition of a command.
func (c *Catalog) Lookup(name string) (*CommandDef, bool) {
	def, ok := c.byName[name]
	return def, ok
}

// Names returns all command names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Commands))
	for _, def := range c.Commands {
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}

// ByFamily returns the commands of one family in catalog order.
func (c *Catalog) ByFamily(f wire.Family) []*CommandDef {
	var out []*CommandDef
	for i := range c.Commands {
		if c.Commands[i].Family() == f {
			out = append(out, &c.Commands[i])
		}
	}
	return out
}

// Lookup finds a command in the embedded catalog.
func Lookup(name string) (*CommandDef, bool) {
	c, err := Load()
	if err != nil {
		return nil, false
	}
	return c.Lookup(name)
}

// Family returns the family of a command name.
func Family(name string) wire.Family {
	return wire.FamilyOf(name)
}
