package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/surrealcrud/surrealcrud"
	"github.com/surrealcrud/surrealcrud/pkg/store/memstore"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect a schema file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [file]",
		Short: "Validate a schema and synthesize its queries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := schemaEngine(args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d tables\n", len(engine.Registry().Tables()))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "queries [file]",
		Short: "Print the queries synthesized for every table as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := schemaEngine(args)
			if err != nil {
				return err
			}
			out, err := describe(engine)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return cmd
}

func schemaEngine(args []string) (*surrealcrud.Engine, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	reg, err := loadRegistry(path)
	if err != nil {
		return nil, err
	}
	return surrealcrud.New(reg, memstore.New())
}

type tableQueries struct {
	Table   string   `yaml:"table"`
	Paths   []string `yaml:"paths,omitempty"`
	Queries []query  `yaml:"queries"`
}

type query struct {
	Op  string `yaml:"op"`
	SQL string `yaml:"sql"`
}

func describe(engine *surrealcrud.Engine) ([]tableQueries, error) {
	reg := engine.Registry()
	var out []tableQueries
	for _, table := range reg.Tables() {
		tpls, err := engine.Templates(table)
		if err != nil {
			return nil, err
		}
		paths, _ := reg.Paths(table)
		tq := tableQueries{Table: table, Paths: paths}
		for _, t := range tpls {
			tq.Queries = append(tq.Queries, query{Op: t.Op.String(), SQL: t.SQL})
		}
		out = append(out, tq)
	}
	return out, nil
}
