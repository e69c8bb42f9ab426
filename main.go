// Package main provides the entry point for uACPI.
// uACPI is an embeddable ACPI/AML bytecode interpreter core.
//
// For the full CLI, use: go run ./cmd/uacpi
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("uACPI - ACPI/AML interpreter core")
	fmt.Println("")
	fmt.Println("Usage: uacpi [options] <table.dat> [table2.dat ...]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to a YAML InitOptions file")
	fmt.Println("  -eval      Namespace path to evaluate after loading")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/uacpi' for the full CLI, or")
	fmt.Println("'go run ./cmd/amldump' to decode a raw AML opcode stream.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/uacpi' instead.")
	}
}
