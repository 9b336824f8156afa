package config

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSwapVisibleToReaders(t *testing.T) {
	first := &Config{}
	first.Server.Port = "8477"
	first.Shim.APIKey = "old"

	store := NewStore(first)
	assert.Equal(t, "8477", store.Load().Server.Port)
	assert.Equal(t, "old", store.Load().Shim.APIKey)

	second := &Config{}
	second.Server.Port = "9000"
	second.Shim.APIKey = "new"
	store.Swap(second)

	assert.Equal(t, "9000", store.Load().Server.Port)
	assert.Equal(t, "new", store.Load().Shim.APIKey)
}

func TestStoreLoadReturnsWholeSnapshots(t *testing.T) {
	a := &Config{}
	a.Upstream.BaseURL = "https://a.example"
	a.Shim.APIKey = "a"
	b := &Config{}
	b.Upstream.BaseURL = "https://b.example"
	b.Shim.APIKey = "b"

	store := NewStore(a)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				store.Swap(b)
			} else {
				store.Swap(a)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			cfg := store.Load()
			// A reader sees one published snapshot, never a mix.
			require.True(t, cfg == a || cfg == b)
		}
	}()
	wg.Wait()
}
