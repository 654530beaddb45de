package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealMain(t *testing.T) {
	out := bytes.NewBuffer([]byte{})
	errout := bytes.NewBuffer([]byte{})
	rc := 0
	exit := func(c int) {
		rc = c
	}

	realMain([]string{"tokenctl", "bogus"}, out, errout, exit)
	assert.Equal(t, 1, rc)
	assert.Equal(t, "tokenctl: error: unexpected argument bogus\n", errout.String())
	assert.Empty(t, out.String())
}

func TestMain_Secret(t *testing.T) {
	out := bytes.NewBuffer([]byte{})
	errout := bytes.NewBuffer([]byte{})
	rc := 0
	exit := func(c int) {
		rc = c
	}

	realMain([]string{"tokenctl", "secret", "--size", "16"}, out, errout, exit)
	assert.Equal(t, 0, rc)
	assert.NotEmpty(t, out.String())
	assert.Empty(t, errout.String())
}
