package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

type testMetadata struct {
	Title string `json:"title,omitempty" crud:"length_at_most(120)"`
}

func (testMetadata) TableName() string { return "metadata" }

type testBase struct {
	Note string `json:"note" crud:"optional"`
}

type testTransaction struct {
	testBase
	ID         models.ID                `json:"id"`
	AccountID  models.ID                `json:"account_id" crud:"link=accounts"`
	Amount     float64                  `json:"amount" crud:"ne_zero"`
	Date       time.Time                `json:"date"`
	MetadataID *models.Of[testMetadata] `json:"metadata_id"`
	Ignored    string                   `json:"-"`
	Labels     []string                 `json:"labels"`
	hidden     int
}

func (testTransaction) TableName() string { return "transactions" }

type testBadLink struct {
	Title string `json:"title" crud:"link=accounts"`
}

func (testBadLink) TableName() string { return "bad" }

func TestFromStruct(t *testing.T) {
	e, err := FromStruct[testTransaction]("account_id.user_id", "metadata_id.user_id")
	require.NoError(t, err)

	assert.Equal(t, "transactions", e.Table)
	assert.Equal(t, []string{"account_id.user_id", "metadata_id.user_id"}, e.Paths)
	assert.Equal(t, []string{"note", "account_id", "amount", "date", "metadata_id", "labels"}, e.FieldNames())

	note, _ := e.Field("note")
	assert.True(t, note.Optional)
	assert.Empty(t, note.Rules)

	acc, _ := e.Field("account_id")
	assert.Equal(t, Link, acc.Kind)
	assert.Equal(t, "accounts", acc.Target)
	assert.False(t, acc.Optional)

	amount, _ := e.Field("amount")
	assert.Equal(t, Number, amount.Type)
	assert.Equal(t, []validation.Spec{{Name: "ne_zero"}}, amount.Rules)

	date, _ := e.Field("date")
	assert.Equal(t, Datetime, date.Type)

	meta, _ := e.Field("metadata_id")
	assert.Equal(t, Ref, meta.Kind)
	assert.Equal(t, "metadata", meta.Target)
	assert.True(t, meta.Optional)

	labels, _ := e.Field("labels")
	assert.Equal(t, Any, labels.Type)

	m, err := FromStruct[testMetadata]("user_id")
	require.NoError(t, err)
	title, _ := m.Field("title")
	assert.True(t, title.Optional)

	_, err = NewRegistry(m,
		NewEntity("accounts").OwnedBy("user_id").MustBuild(),
		e,
	)
	require.NoError(t, err)
}

func TestFromStruct_badLinkOption(t *testing.T) {
	_, err := FromStruct[testBadLink]()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link= applies to models.ID fields")
}
