package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildSynthesize int

var buildCmd = &cobra.Command{
	Use:   "build FIXTURE",
	Short: "Load a fixture and print a summary of the graph it builds",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().IntVar(&buildSynthesize, "synthesize", 0,
		"append N extra UUID-keyed leaf assets under the root")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	built, err := loadAndBuild(args[0], buildSynthesize, newMetricsRegistry())
	if err != nil {
		return err
	}

	nodes, edges := graphStats(built.Graph)
	fmt.Printf("nodes: %d\n", nodes)
	fmt.Printf("edges: %d\n", edges)
	if built.HasRoot {
		fmt.Printf("root:  node %d\n", built.RootId)
	} else {
		fmt.Println("root:  (none)")
	}
	return nil
}
