package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "graphdump",
	Short: "Build, propagate and round-trip an asset graph described by a fixture",
	Long: `graphdump loads a YAML fixture describing an asset/dependency graph,
builds it in memory, and drives it through the operations that a real build
coordinator would: symbol propagation, and serialize/deserialize for worker
transfer or disk caching.

It is a debug tool, not the bundler's CLI: asset resolution, loading and
packaging happen elsewhere.`,
}
