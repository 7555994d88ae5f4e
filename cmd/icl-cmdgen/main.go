// Command icl-cmdgen generates the wire command name constants from the
// command catalog.
//
// Usage (from pkg/wire, via go generate):
//
//	icl-cmdgen -catalog ../catalog/commands/icl.yaml -output commands_gen.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"

	"github.com/icl-sdk/icl-go/pkg/catalog"
)

func main() {
	catalogPath := flag.String("catalog", "", "Path to the command catalog YAML")
	output := flag.String("output", "", "Output Go file")
	pkg := flag.String("package", "wire", "Package name of the generated file")
	flag.Parse()

	if *catalogPath == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: icl-cmdgen -catalog <path> -output <file> [-package <name>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*catalogPath, *output, *pkg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(catalogPath, output, pkg string) error {
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return err
	}
	cat, err := catalog.Parse(data)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	code, err := Generate(cat, pkg, filepath.Base(catalogPath))
	if err != nil {
		return err
	}
	if err := writeFormatted(output, code); err != nil {
		return err
	}
	fmt.Printf("  generated %s (%d commands)\n", output, len(cat.Commands))
	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Keep the raw output around for debugging the templates.
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
