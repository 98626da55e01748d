// Package surrealcrud is an ownership-aware CRUD engine for SurrealDB.
//
// Entities are described by a [schema.Registry]: a table, its fields and
// its ownership paths. An ownership path such as "metadata_id.user_id"
// means "follow metadata_id to its row and compare that row's user_id with
// the requesting user". A user may read or write a row when at least one of
// the entity's paths resolves to them.
//
// The [Engine] synthesizes one set of SurrealQL templates per table at
// construction and runs them through a [store.Store]:
//
//	reg, err := schema.LoadFile("finance.crud")
//	if err != nil {
//		return err
//	}
//	st, err := surrealstore.New(ctx, surrealstore.Config{URL: "ws://localhost:8000", ...})
//	if err != nil {
//		return err
//	}
//	engine, err := surrealcrud.New(reg, st, surrealcrud.WithLogger(log))
//
// # Nested records
//
// Ref fields hold a [models.Of] value: either the id of a stored row or an
// inline record wrapped as {"Record": {...}}. [Engine.Insert] validates the
// whole graph first, then stores inline records depth-first, one round trip
// per record, replacing each with its generated id. The returned [Node]
// mirrors the graph with ids filled in.
//
// Children created before a later failure are not removed.
//
// # Relationship changes
//
// [Engine.ApplyManyToMany] binds and unbinds rows of a junction table;
// [Engine.ApplyOneToMany] creates and removes children pointing at a
// parent. Both return one outcome per change, in order.
//
// # Errors
//
// [MissingRecordError], [ValidationError], [DocumentError] and [ErrReadOnly]
// describe requests the caller can fix; [IsClientError] reports them.
// Everything else ([DatabaseError], [SerdeError], [ErrMissingID]) is a
// server fault.
package surrealcrud
