// Package models holds the value types shared by the engine, the stores and
// the client cache: record ids, record references, entities paired with their
// id, and schema-driven documents.
package models
