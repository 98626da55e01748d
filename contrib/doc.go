// Package contrib holds the outer surfaces of the engine.
//
// [github.com/surrealcrud/surrealcrud/contrib/crudhttp] serves an engine over
// HTTP with the requesting user taken from a request header, and
// [github.com/surrealcrud/surrealcrud/contrib/crudclient] is the matching
// client, usable as a [github.com/surrealcrud/surrealcrud/pkg/cache.Fetcher].
// [github.com/surrealcrud/surrealcrud/contrib/testenv] connects tests to a
// local SurrealDB and captures engine log lines.
package contrib
