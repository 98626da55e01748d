package cache

import (
	htmltemplate "html/template"
	"reflect"
	"testing"
	texttemplate "text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlightKey(t *testing.T) {
	c := New(nil, nil)
	text := reflect.TypeFor[texttemplate.Template]()
	html := reflect.TypeFor[htmltemplate.Template]()
	require.Equal(t, text.String(), html.String())

	k := c.flightKey(text)
	assert.Equal(t, k, c.flightKey(text))
	assert.NotEqual(t, k, c.flightKey(html))
}
