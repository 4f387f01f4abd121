package printer

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferred(t *testing.T) {
	d := &Deferred{}
	assert.False(t, d.Pending())

	p := New(d, d)
	p.Successf("phase %q complete", "Research")
	p.Warnf("journey progress reset")
	assert.True(t, d.Pending())

	var out bytes.Buffer
	require.NoError(t, d.Flush(&out))
	assert.Contains(t, out.String(), `phase "Research" complete`)
	assert.Contains(t, out.String(), "journey progress reset")
	assert.False(t, d.Pending())

	out.Reset()
	require.NoError(t, d.Flush(&out))
	assert.Empty(t, out.String())
}

func TestDeferred_ConcurrentWrites(t *testing.T) {
	d := &Deferred{}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Write([]byte("x"))
		}()
	}
	wg.Wait()

	var out bytes.Buffer
	require.NoError(t, d.Flush(&out))
	assert.Len(t, out.String(), 100)
}
