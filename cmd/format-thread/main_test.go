package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunRejectsTokens(t *testing.T) {
	assert.Equal(t, 1, run([]string{"--tokens=BTC"}))
}
