package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func financeEntities() []Entity {
	return []Entity{
		NewEntity("metadata").OwnedBy("user_id").
			Scalar("title", String).Optional().
			MustBuild(),
		NewEntity("tags").OwnedBy("user_id", "metadata_id.user_id").
			Ref("metadata_id", "metadata").
			MustBuild(),
		NewEntity("metadata_tags").OwnedBy("metadata_id.user_id").
			Ref("metadata_id", "metadata").
			Ref("tag_id", "tags").
			Scalar("exception", Bool).
			Junction("metadata_id", "tag_id").
			MustBuild(),
		NewEntity("currencies").Scalar("code", String, "not_empty").MustBuild(),
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(financeEntities()...)
	require.NoError(t, err)

	assert.Equal(t, []string{"metadata", "tags", "metadata_tags", "currencies"}, r.Tables())

	paths, ok := r.Paths("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"user_id", "metadata_id.user_id"}, paths)

	p, ok := r.FkeyPath("tags", "metadata_id")
	require.True(t, ok)
	assert.Equal(t, "metadata_id.user_id", p)

	p, ok = r.FkeyPath("tags", "user_id")
	require.True(t, ok)
	assert.Equal(t, "user_id", p)

	_, ok = r.FkeyPath("metadata_tags", "tag_id")
	assert.False(t, ok)

	meta, ok := r.Entity("metadata")
	require.True(t, ok)
	owner, ok := meta.Field(OwnerField)
	require.True(t, ok, "directly owned entities get an implicit owner field")
	assert.Equal(t, Owner, owner.Kind)
	assert.True(t, meta.DirectlyOwned())

	cur, _ := r.Entity("currencies")
	assert.False(t, cur.Owned())
	_, ok = cur.Field(OwnerField)
	assert.False(t, ok)
	code, _ := cur.Field("code")
	assert.Len(t, code.Validators(), 1)

	tx, _ := r.Entity("metadata_tags")
	assert.False(t, tx.DirectlyOwned())
	other, ok := tx.Junction.Other("metadata_id")
	require.True(t, ok)
	assert.Equal(t, "tag_id", other)
}

func TestNewRegistry_errors(t *testing.T) {
	meta := NewEntity("metadata").OwnedBy("user_id").MustBuild()

	tests := []struct {
		name   string
		entity Entity
		want   string
	}{
		{
			name:   "unknown path field",
			entity: NewEntity("tags").OwnedBy("metadata_id.user_id").MustBuild(),
			want:   "tags has no field metadata_id",
		},
		{
			name:   "hop through a scalar",
			entity: NewEntity("tags").OwnedBy("title.user_id").Scalar("title", String).MustBuild(),
			want:   "is not a link",
		},
		{
			name:   "last segment missing on target",
			entity: NewEntity("tags").OwnedBy("metadata_id.owner").Ref("metadata_id", "metadata").MustBuild(),
			want:   "metadata has no field owner",
		},
		{
			name:   "unknown ref target",
			entity: NewEntity("tags").OwnedBy("user_id").Ref("x_id", "nope").MustBuild(),
			want:   "not a registered entity",
		},
		{
			name:   "malformed path",
			entity: NewEntity("tags").OwnedBy("metadata_id..user_id").Ref("metadata_id", "metadata").MustBuild(),
			want:   "malformed segment",
		},
		{
			name:   "fkey override not starting at its field",
			entity: NewEntity("tags").OwnedBy("user_id").Ref("metadata_id", "metadata").Fkey("metadata_id", "user_id").MustBuild(),
			want:   "fkey path must start with metadata_id.",
		},
		{
			name:   "unknown validator",
			entity: NewEntity("tags").OwnedBy("user_id").Scalar("title", String, "shiny").MustBuild(),
			want:   `unknown validator "shiny"`,
		},
		{
			name:   "reserved id field",
			entity: NewEntity("tags").Scalar("id", String).MustBuild(),
			want:   "id is reserved",
		},
		{
			name:   "junction side missing",
			entity: NewEntity("tags").OwnedBy("user_id").Ref("metadata_id", "metadata").Junction("metadata_id", "tag_id").MustBuild(),
			want:   "junction side is not declared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(meta, tt.entity)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := NewRegistry(meta, meta)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
}

func TestFkeyOverride(t *testing.T) {
	r, err := NewRegistry(
		NewEntity("metadata").OwnedBy("user_id").MustBuild(),
		NewEntity("accounts").OwnedBy("user_id").MustBuild(),
		NewEntity("transactions").OwnedBy("account_id.user_id").
			Ref("account_id", "accounts").
			Ref("record_metadata_id", "metadata").
			Fkey("record_metadata_id", "record_metadata_id.user_id").
			MustBuild(),
	)
	require.NoError(t, err)

	p, ok := r.FkeyPath("transactions", "record_metadata_id")
	require.True(t, ok)
	assert.Equal(t, "record_metadata_id.user_id", p)
}

func TestRegistryIsolatedFromInput(t *testing.T) {
	e := NewEntity("metadata").OwnedBy("user_id").MustBuild()
	r, err := NewRegistry(e)
	require.NoError(t, err)

	e.Paths[0] = "changed"
	paths, _ := r.Paths("metadata")
	assert.Equal(t, []string{"user_id"}, paths)
}

func TestBuilderErrors(t *testing.T) {
	_, err := NewEntity("x").Optional().Build()
	assert.Error(t, err)

	_, err = NewEntity("x").Scalar("a", String, "length_at_least(3").Build()
	assert.Error(t, err)
}

func TestScalarTypeAccepts(t *testing.T) {
	assert.True(t, String.Accepts("x"))
	assert.False(t, String.Accepts(int64(1)))
	assert.True(t, Number.Accepts(int64(1)))
	assert.True(t, Number.Accepts(1.5))
	assert.False(t, Number.Accepts("1"))
	assert.True(t, Bool.Accepts(false))
	assert.True(t, Datetime.Accepts("2024-01-01T00:00:00Z"))
	assert.False(t, Datetime.Accepts("yesterday"))
	assert.True(t, Any.Accepts([]any{1}))
}
