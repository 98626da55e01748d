package surrealstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealcrud/surrealcrud/pkg/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestDocuments(t *testing.T) {
	rows, err := Documents(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = Documents([]any{
		map[string]any{
			"id":      surrealmodels.NewRecordID("tags", "a"),
			"user_id": &surrealmodels.RecordID{Table: "user", ID: "alice"},
			"nested":  map[any]any{"link": surrealmodels.NewRecordID("metadata", int64(7))},
			"list":    []any{surrealmodels.NewRecordID("tags", "b"), "x"},
		},
		nil,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, models.NewID("tags", "a"), row["id"])
	assert.Equal(t, models.NewID("user", "alice"), row["user_id"])
	assert.Equal(t, map[string]any{"link": models.NewID("metadata", "7")}, row["nested"])
	assert.Equal(t, []any{models.NewID("tags", "b"), "x"}, row["list"])

	rows, err = Documents(map[string]any{"id": surrealmodels.NewRecordID("tags", "a")})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = Documents([]any{"not a row"})
	assert.Error(t, err)

	_, err = Documents("scalar")
	assert.Error(t, err)
}
