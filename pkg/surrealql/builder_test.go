package surrealql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuilder(t *testing.T, spec Spec) *QueryBuilder {
	t.Helper()
	qb, err := NewQueryBuilder(spec)
	require.NoError(t, err)
	return qb
}

func TestQueryBuilderSQL(t *testing.T) {
	tags := mustBuilder(t, Spec{Table: "tags", Paths: []string{"user_id", "metadata_id.user_id"}})
	transactions := mustBuilder(t, Spec{Table: "transactions", Paths: []string{"account_id.user_id", "metadata_id.user_id"}})
	metadataTags := mustBuilder(t, Spec{Table: "metadata_tags", Paths: []string{"metadata_id.user_id"}})
	currencies := mustBuilder(t, Spec{Table: "currencies"})

	tests := []struct {
		name   string
		build  func() (Template, error)
		wantQL string
	}{
		{
			name:   "select by id",
			build:  tags.Select,
			wantQL: "SELECT * FROM $id WHERE (user_id = $user_id OR metadata_id.user_id = $user_id)",
		},
		{
			name:   "select all",
			build:  tags.SelectAll,
			wantQL: "SELECT * FROM tags WHERE (user_id = $user_id OR metadata_id.user_id = $user_id)",
		},
		{
			name:   "select all by fkey",
			build:  func() (Template, error) { return tags.SelectAllByFkey("metadata_id") },
			wantQL: "SELECT * FROM tags WHERE metadata_id = $fkey AND metadata_id.user_id = $user_id",
		},
		{
			name:   "insert directly owned",
			build:  tags.Insert,
			wantQL: "CREATE tags CONTENT $value RETURN id",
		},
		{
			name:   "insert owned through links",
			build:  transactions.Insert,
			wantQL: "IF ($value.account_id.user_id = $user_id OR $value.metadata_id.user_id = $user_id) { CREATE transactions CONTENT $value RETURN id }",
		},
		{
			name:   "insert with a single deep path",
			build:  metadataTags.Insert,
			wantQL: "IF ($value.metadata_id.user_id = $user_id) { CREATE metadata_tags CONTENT $value RETURN id }",
		},
		{
			name:   "update",
			build:  transactions.Update,
			wantQL: "UPDATE $id MERGE $value WHERE (account_id.user_id = $user_id OR metadata_id.user_id = $user_id) AND (!$value.account_id OR $value.account_id.user_id = $user_id) AND (!$value.metadata_id OR $value.metadata_id.user_id = $user_id) RETURN id",
		},
		{
			name:   "update directly owned",
			build:  tags.Update,
			wantQL: "UPDATE $id MERGE $value WHERE (user_id = $user_id OR metadata_id.user_id = $user_id) AND (!$value.metadata_id OR $value.metadata_id.user_id = $user_id) RETURN id",
		},
		{
			name:   "delete",
			build:  metadataTags.Delete,
			wantQL: "DELETE $id WHERE metadata_id.user_id = $user_id RETURN BEFORE",
		},
		{
			name:   "unbind",
			build:  func() (Template, error) { return metadataTags.Unbind("metadata_id", "tag_id") },
			wantQL: "DELETE metadata_tags WHERE metadata_id = $id_a AND tag_id = $id_b AND metadata_id.user_id = $user_id RETURN BEFORE",
		},
		{
			name:   "unowned select",
			build:  currencies.Select,
			wantQL: "SELECT * FROM $id",
		},
		{
			name:   "unowned select all",
			build:  currencies.SelectAll,
			wantQL: "SELECT * FROM currencies",
		},
		{
			name:   "unowned select by field",
			build:  func() (Template, error) { return currencies.SelectAllByFkey("code") },
			wantQL: "SELECT * FROM currencies WHERE code = $fkey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := tt.build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tpl.SQL != tt.wantQL {
				t.Errorf("SurrealQL mismatch\ngot:  %q\nwant: %q", tpl.SQL, tt.wantQL)
			}
		})
	}
}

func TestQueryBuilderStructure(t *testing.T) {
	tags := mustBuilder(t, Spec{Table: "tags", Paths: []string{"user_id", "metadata_id.user_id"}})

	ins, err := tags.Insert()
	require.NoError(t, err)
	assert.True(t, ins.Inject)
	assert.Empty(t, ins.Guard)
	assert.Equal(t, OpInsert, ins.Op)

	upd, err := tags.Update()
	require.NoError(t, err)
	assert.False(t, upd.Inject)
	assert.Equal(t, []string{"user_id", "metadata_id.user_id"}, upd.Owner)
	assert.Equal(t, []string{"metadata_id.user_id"}, upd.Guard)

	byFkey, err := tags.SelectAllByFkey("metadata_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"metadata_id.user_id"}, byFkey.Owner)
	assert.Equal(t, []Match{{Field: "metadata_id", Var: VarFkey}}, byFkey.Match)

	tx := mustBuilder(t, Spec{Table: "transactions", Paths: []string{"account_id.user_id"}})
	ins, err = tx.Insert()
	require.NoError(t, err)
	assert.False(t, ins.Inject)
	assert.Equal(t, []string{"account_id.user_id"}, ins.Guard)

	assert.Equal(t, []string{"metadata_id", "user_id"}, tags.Fkeys())
	assert.Len(t, tags.Templates(), 7)
}

func TestQueryBuilderErrors(t *testing.T) {
	_, err := NewQueryBuilder(Spec{Table: "tags", Paths: []string{"metadata_id..user_id"}})
	assertBuilderError(t, err, "malformed path")

	_, err = NewQueryBuilder(Spec{Table: "tags", Paths: []string{"meta.user_id"}, Fields: []string{"metadata_id", "user_id"}})
	assertBuilderError(t, err, "unknown field meta")

	_, err = NewQueryBuilder(Spec{Table: "tags", Paths: []string{"user_id"}, FkeyPaths: map[string]string{"metadata_id": "user_id"}})
	assertBuilderError(t, err, "does not start at metadata_id")

	_, err = NewQueryBuilder(Spec{})
	assertBuilderError(t, err, "empty table name")

	tags := mustBuilder(t, Spec{Table: "tags", Paths: []string{"user_id"}})
	_, err = tags.SelectAllByFkey("metadata_id")
	assertBuilderError(t, err, `no fkey path for "metadata_id"`)

	_, err = tags.Unbind("a", "a")
	assertBuilderError(t, err, "invalid junction sides")

	currencies := mustBuilder(t, Spec{Table: "currencies", Fields: []string{"code"}})
	for _, build := range []func() (Template, error){currencies.Insert, currencies.Update, currencies.Delete} {
		_, err := build()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnowned))
	}
	_, err = currencies.SelectAllByFkey("name")
	assertBuilderError(t, err, `unknown field "name"`)
	assert.Len(t, currencies.Templates(), 2)
}

func assertBuilderError(t *testing.T, err error, contains string) {
	t.Helper()
	var be *BuilderError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Error(), contains)
}

func TestTemplateBind(t *testing.T) {
	tags := mustBuilder(t, Spec{Table: "tags", Paths: []string{"user_id"}})
	tpl, err := tags.Select()
	require.NoError(t, err)

	vars := map[string]any{VarID: "tags:1", VarUser: "user:1"}
	stmt := tpl.Bind(vars)
	vars[VarID] = "tags:2"

	assert.Equal(t, "tags:1", stmt.Vars[VarID])
	assert.Equal(t, tpl.SQL, stmt.SQL)
}
