package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReindexMessage(t *testing.T) {
	msg, err := DecodeReindexMessage([]byte(`{"document_id":42}`))
	require.NoError(t, err)
	assert.Equal(t, uint(42), msg.DocumentID)

	_, err = DecodeReindexMessage([]byte(`{"document_id":0}`))
	assert.Error(t, err)

	_, err = DecodeReindexMessage([]byte(`not json`))
	assert.Error(t, err)
}
