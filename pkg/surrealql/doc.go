// Package surrealql renders the SurrealQL statements the engine runs.
//
// It has two layers. The statement builder (Select, Create, Update, Delete,
// If) renders single statements with named placeholders. The QueryBuilder
// turns a table and its ownership paths into Templates: one per engine
// operation, each constrained so that a row is only visible to, or writable
// by, the user that at least one ownership path resolves to.
//
//	qb, err := surrealql.NewQueryBuilder(surrealql.Spec{
//		Table: "tags",
//		Paths: []string{"user_id", "metadata_id.user_id"},
//	})
//	tpl, _ := qb.SelectAll()
//	fmt.Println(tpl.SQL)
//	// SELECT * FROM tags WHERE (user_id = $user_id OR metadata_id.user_id = $user_id)
//
// Templates carry their ownership data in structured form too, so stores
// that do not speak SurrealQL can evaluate them.
package surrealql
