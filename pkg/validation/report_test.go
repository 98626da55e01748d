package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_erroneousPropagates(t *testing.T) {
	leaf := NewReport()
	leaf.Add("title", Error{Code: StringIsEmpty})

	mid := NewReport()
	mid.Nest("metadata_id", leaf)

	root := NewReport()
	root.Add("amount")
	root.Nest("account_id", NewReport())
	root.Nest("transaction_id", mid)

	assert.True(t, leaf.Erroneous())
	assert.True(t, mid.Erroneous())
	assert.True(t, root.Erroneous())
	assert.False(t, root.Child("account_id").Erroneous())
	assert.Empty(t, root.Field("amount"))
	assert.Equal(t, "transaction_id.metadata_id.title: StringIsEmpty", root.String())
}

func TestReport_laterFieldDoesNotClearEarlierFailure(t *testing.T) {
	r := NewReport()
	r.Add("a", Error{Code: StringIsEmpty})
	r.Nest("b", NewReport())
	r.Add("c")
	assert.True(t, r.Erroneous())
}

func TestReport_json(t *testing.T) {
	child := NewReport()
	child.Add("title", Error{Code: StringTooShort, Arg: 3})
	r := NewReport()
	r.Add("balance", Error{Code: LTZero})
	r.Nest("metadata_id", child)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"erroneous": true,
		"fields": {"balance": ["LTZero"]},
		"nested": {"metadata_id": {"erroneous": true, "fields": {"title": [{"StringTooShort": 3}]}}}
	}`, string(data))

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Erroneous())
	assert.Equal(t, LTZero, decoded.Field("balance")[0].Code)
	assert.Equal(t, StringTooShort, decoded.Child("metadata_id").Field("title")[0].Code)

	data, err = json.Marshal(NewReport())
	require.NoError(t, err)
	assert.JSONEq(t, `{"erroneous": false}`, string(data))
}
