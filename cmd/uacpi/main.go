// Command uacpi loads one or more ACPI table images and evaluates a method
// path against the resulting namespace, following the same flag-based CLI
// shape as the teacher's cmd/m2sim.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/CascadeOS/uACPI/config"
	"github.com/CascadeOS/uACPI/hostapi/testhost"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/uacpi"
)

var (
	configPath = flag.String("config", "", "path to a YAML InitOptions file")
	evalPath   = flag.String("eval", "", "namespace path to evaluate after loading all tables")
	verbose    = flag.Bool("v", false, "verbose output")
)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: uacpi [options] <table.dat> [table2.dat ...]\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	opts := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		opts = loaded
	}

	host := testhost.New(0)
	ctx := uacpi.New(host, opts)

	for _, path := range flag.Args() {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
			os.Exit(1)
		}
		handle, err := ctx.InstallTable(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error installing %s: %v\n", path, err)
			os.Exit(1)
		}
		if err := ctx.Load(handle, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Printf("Loaded: %s\n", path)
		}
	}

	if *evalPath == "" {
		return
	}

	result, err := ctx.Evaluate(nil, *evalPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error evaluating %s: %v\n", *evalPath, err)
		os.Exit(1)
	}
	fmt.Println(formatResult(result))
}

func formatResult(obj *object.Object) string {
	if n, ok := obj.Integer(); ok {
		return fmt.Sprintf("Integer: 0x%X", n)
	}
	if s, ok := obj.String(); ok {
		return fmt.Sprintf("String: %q", s)
	}
	if b, ok := obj.Bytes(); ok {
		return fmt.Sprintf("Buffer: %x", b)
	}
	if pkg, ok := obj.Package(); ok {
		parts := make([]string, len(pkg))
		for i, elem := range pkg {
			parts[i] = formatResult(elem)
		}
		return "Package: {" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("Kind: %d", obj.Kind())
}
