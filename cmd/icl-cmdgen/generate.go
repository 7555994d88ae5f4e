package main

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/icl-sdk/icl-go/pkg/catalog"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

var familyPrefixes = map[wire.Family]string{
	wire.FamilyICL:  "ICL",
	wire.FamilyCCD:  "CCD",
	wire.FamilyMono: "Mono",
}

var familyTitles = map[wire.Family]string{
	wire.FamilyICL:  "ICL session commands.",
	wire.FamilyCCD:  "CCD commands.",
	wire.FamilyMono: "Monochromator commands.",
}

type constDef struct {
	Name    string
	Value   string
	Comment string
}

type blockDef struct {
	Title  string
	Consts []constDef
}

type fileDef struct {
	Package string
	Source  string
	Blocks  []blockDef
}

var fileTemplate = template.Must(template.New("commands").Parse(`// Code generated by icl-cmdgen from {{.Source}}. DO NOT EDIT.

package {{.Package}}
{{range .Blocks}}
// {{.Title}}
const (
{{- range .Consts}}
	// {{.Comment}}
	{{.Name}} = "{{.Value}}"
{{- end}}
)
{{end}}`))

// Generate renders the command constants for every catalog entry, grouped
// by family in catalog order.
func Generate(cat *catalog.Catalog, pkg, source string) (string, error) {
	file := fileDef{Package: pkg, Source: source}
	for _, family := range []wire.Family{wire.FamilyICL, wire.FamilyCCD, wire.FamilyMono} {
		block := blockDef{Title: familyTitles[family]}
		for i := range cat.Commands {
			def := &cat.Commands[i]
			if def.Family() != family {
				continue
			}
			name, err := ConstName(def.Name)
			if err != nil {
				return "", err
			}
			block.Consts = append(block.Consts, constDef{
				Name:    name,
				Value:   def.Name,
				Comment: constComment(name, def.Description),
			})
		}
		if len(block.Consts) > 0 {
			file.Blocks = append(file.Blocks, block)
		}
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, file); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// ConstName converts "ccd_getGain" to "CmdCCDGetGain".
func ConstName(command string) (string, error) {
	prefix, ok := familyPrefixes[wire.FamilyOf(command)]
	if !ok {
		return "", fmt.Errorf("command %q has no known family prefix", command)
	}
	_, rest, _ := strings.Cut(command, "_")
	if rest == "" {
		return "", fmt.Errorf("command %q has no name after the prefix", command)
	}
	r := []rune(rest)
	r[0] = unicode.ToUpper(r[0])
	return "Cmd" + prefix + string(r), nil
}

// constComment turns "Returns the gain." into "CmdX returns the gain.".
func constComment(name, description string) string {
	if description == "" {
		return name + " is the " + name[len("Cmd"):] + " command."
	}
	r := []rune(description)
	if len(r) > 1 && unicode.IsUpper(r[0]) && unicode.IsLower(r[1]) {
		r[0] = unicode.ToLower(r[0])
	}
	return name + " " + string(r)
}
