package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialURL(t *testing.T) {
	got, err := dialURL("ws://localhost:8088/ws", "abc.def")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8088/ws?token=abc.def", got)

	_, err = dialURL("http://localhost:8088/ws", "abc")
	assert.Error(t, err)
}
