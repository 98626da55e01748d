package main

import (
	"github.com/spf13/cobra"

	"github.com/surrealcrud/surrealcrud/internal/finance"
	"github.com/surrealcrud/surrealcrud/pkg/schema"
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "surrealcrud",
		Short: "Ownership aware CRUD over SurrealDB",
		Long: `surrealcrud serves create, read, update and delete endpoints for the
entities of a schema file. Every query is restricted to the rows the
requesting user owns through the ownership paths declared in the schema.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./surrealcrud.yaml)")

	root.AddCommand(newServeCmd(&configFile))
	root.AddCommand(newSchemaCmd())
	return root
}

// loadRegistry reads the schema file at path; an empty path selects the
// built-in finance schema.
func loadRegistry(path string) (*schema.Registry, error) {
	if path == "" {
		return finance.Registry()
	}
	return schema.LoadFile(path)
}
