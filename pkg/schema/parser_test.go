package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

func TestParseFile(t *testing.T) {
	r, err := LoadFile("testdata/finance.crud")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"currencies", "metadata", "tags", "metadata_tags",
		"accounts", "transactions", "financial_goals",
	}, r.Tables())

	tags, ok := r.Entity("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"user_id", "metadata_id.user_id"}, tags.Paths)
	ref, ok := tags.Field("metadata_id")
	require.True(t, ok)
	assert.Equal(t, Ref, ref.Kind)
	assert.Equal(t, "metadata", ref.Target)

	mt, _ := r.Entity("metadata_tags")
	require.NotNil(t, mt.Junction)
	assert.Equal(t, Junction{A: "metadata_id", B: "tag_id"}, *mt.Junction)

	acc, _ := r.Entity("accounts")
	cur, _ := acc.Field("currency_id")
	assert.Equal(t, Link, cur.Kind)
	assert.Equal(t, "currencies", cur.Target)
	title, _ := acc.Field("title")
	assert.Equal(t, []validation.Spec{{Name: "not_empty"}}, title.Rules)

	meta, _ := r.Entity("metadata")
	mtitle, _ := meta.Field("title")
	assert.True(t, mtitle.Optional)
	assert.Equal(t, []validation.Spec{{Name: "length_at_most", Args: []string{"120"}}}, mtitle.Rules)

	goals, _ := r.Entity("financial_goals")
	start, _ := goals.Field("start_date")
	assert.Equal(t, Datetime, start.Type)
	assert.Equal(t, "v1_lt_v2(end_date)", start.Rules[0].String())
}

func TestParse_fkeyAndUntypedLink(t *testing.T) {
	entities, err := Parse("inline.crud", `
		// comment styles both work
		entity metadata owned by user_id { }
		entity notes owned by metadata_id.user_id {
			metadata_id: ref<metadata>
			source: link
			label: string [length_in_range(1, 10), email_format]
			fkey metadata_id = metadata_id.user_id
		}
	`)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	notes := entities[1]
	src, ok := notes.Field("source")
	require.True(t, ok)
	assert.Equal(t, Link, src.Kind)
	assert.Empty(t, src.Target)
	assert.Equal(t, map[string]string{"metadata_id": "metadata_id.user_id"}, notes.Fkeys)

	label, _ := notes.Field("label")
	require.Len(t, label.Rules, 2)
	assert.Equal(t, []string{"1", "10"}, label.Rules[0].Args)
}

func TestParse_errors(t *testing.T) {
	_, err := Parse("bad.crud", `entity tags owned by { }`)
	assert.Error(t, err)

	_, err = Parse("bad.crud", `entity tags { title: text }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "text"`)

	_, err = ParseFile("testdata/missing.crud")
	assert.Error(t, err)
}
