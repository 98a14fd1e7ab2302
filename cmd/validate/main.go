package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gnemet/jqgrid"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: grid-validator <catalog_path1> [catalog_path2] ...")
		os.Exit(1)
	}

	allValid := true
	for _, arg := range os.Args[1:] {
		catalogPath, err := filepath.Abs(arg)
		if err != nil {
			fmt.Printf("❌ Invalid catalog path: %s\n", arg)
			allValid = false
			continue
		}

		catalog, err := jqgrid.LoadCatalog(catalogPath)
		if err != nil {
			fmt.Printf("❌ %s is invalid!\n", filepath.Base(catalogPath))
			fmt.Printf("   - %v\n", err)
			allValid = false
			continue
		}

		fmt.Printf("✅ %s is valid (%d grids).\n", filepath.Base(catalogPath), len(catalog.Grids))
	}

	if !allValid {
		os.Exit(1)
	}
}
