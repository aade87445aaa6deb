package clients

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handle struct {
	key string
}

func TestRegistryReusesHandlePerCredential(t *testing.T) {
	builds := 0
	reg := NewRegistry(func(key string) (*handle, error) {
		builds++
		return &handle{key: key}, nil
	})

	first, err := reg.Get("key-a")
	require.NoError(t, err)
	second, err := reg.Get("key-a")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := reg.Get("key-b")
	require.NoError(t, err)
	assert.Equal(t, "key-b", other.key)

	assert.Equal(t, 2, builds)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryDoesNotCacheFailures(t *testing.T) {
	fail := true
	reg := NewRegistry(func(key string) (*handle, error) {
		if fail {
			return nil, errors.New("transient")
		}
		return &handle{key: key}, nil
	})

	_, err := reg.Get("key")
	require.Error(t, err)
	assert.Equal(t, 0, reg.Len())

	fail = false
	h, err := reg.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "key", h.key)
}

func TestRegistryRejectsEmptyCredential(t *testing.T) {
	reg := NewRegistry(func(key string) (*handle, error) {
		t.Fatal("build must not run for an empty credential")
		return nil, nil
	})

	_, err := reg.Get("")
	assert.Error(t, err)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	var mu sync.Mutex
	builds := 0
	reg := NewRegistry(func(key string) (*handle, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		return &handle{key: key}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.Get("shared")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, builds)
}
