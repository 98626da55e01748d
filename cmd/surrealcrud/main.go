// Command surrealcrud serves the ownership aware CRUD API for a schema and
// inspects the queries synthesized for it.
//
//	surrealcrud serve --schema finance.crud --store surrealdb
//	surrealcrud schema check finance.crud
//	surrealcrud schema queries finance.crud
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
