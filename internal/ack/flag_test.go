package ack

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rest-tracker/internal/logging"
)

func TestFlagConsumeClears(t *testing.T) {
	var f Flag
	assert.False(t, f.Consume())

	f.Set()
	assert.True(t, f.Pending())
	assert.True(t, f.Consume())
	assert.False(t, f.Pending())
	assert.False(t, f.Consume())
}

func TestFlagRepeatedSetCountsOnce(t *testing.T) {
	var f Flag
	f.Set()
	f.Set()

	assert.True(t, f.Consume())
	assert.False(t, f.Consume())
}

func TestFlagConcurrentSetters(t *testing.T) {
	var f Flag
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Set()
		}()
	}
	wg.Wait()

	assert.True(t, f.Consume())
	assert.False(t, f.Consume())
}

func TestConsoleSetsFlagPerLine(t *testing.T) {
	var f Flag
	c := NewConsole(strings.NewReader("done\n\nanything at all\n"), &f, logging.NewNop())

	require.NoError(t, c.Run())
	assert.True(t, f.Consume())
	assert.False(t, f.Consume())
}

func TestConsoleEmptyInput(t *testing.T) {
	var f Flag
	c := NewConsole(strings.NewReader(""), &f, logging.NewNop())

	require.NoError(t, c.Run())
	assert.False(t, f.Pending())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestConsoleReadError(t *testing.T) {
	var f Flag
	err := NewConsole(failingReader{}, &f, logging.NewNop()).Run()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
