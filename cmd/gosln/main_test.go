package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/willibrandon/gosln/cmd/gosln/version"
)

func TestVersionDefaults(t *testing.T) {
	assert.NotEmpty(t, version.Version)
	assert.NotEmpty(t, buildVersion)
}
