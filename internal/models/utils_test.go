package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapScan(t *testing.T) {
	var fromBytes JSONMap
	require.NoError(t, fromBytes.Scan([]byte(`{"Campaign Title":"Q1"}`)))
	assert.Equal(t, "Q1", fromBytes["Campaign Title"])

	var fromString JSONMap
	require.NoError(t, fromString.Scan(`{"Clicked IP":"10.1.2.3"}`))
	assert.Equal(t, "10.1.2.3", fromString["Clicked IP"])

	var fromNil JSONMap
	require.NoError(t, fromNil.Scan(nil))
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)

	var fromInt JSONMap
	assert.Error(t, fromInt.Scan(42))
}

func TestJSONMapValue(t *testing.T) {
	var nilMap JSONMap
	v, err := nilMap.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = JSONMap{"k": "v"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, string(v.([]byte)))
}
