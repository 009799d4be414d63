package mediatool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, err := parseDuration([]byte(`{"format":{"duration":"12.345678","size":"1024"}}`))
	require.NoError(t, err)
	assert.Equal(t, 12.35, d)

	_, err = parseDuration([]byte(`{"format":{}}`))
	assert.Error(t, err)

	_, err = parseDuration([]byte(`{"format":{"duration":"abc"}}`))
	assert.Error(t, err)

	_, err = parseDuration([]byte(`oops`))
	assert.Error(t, err)
}
