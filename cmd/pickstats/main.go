// Command pickstats summarizes cryo-EM particle picking results from RELION
// STAR, CSV/TSV and EMAN2 box files, and serves the same analyses as a JSON
// API for the dashboard.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
