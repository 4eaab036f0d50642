package azure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewContainerStore(t *testing.T) {
	tests := []struct {
		name        string
		accountName string
		accountKey  string
		container   string
		wantErr     bool
	}{
		{"valid", "testaccount", "dGVzdGtleQ==", "wearable-snapshots", false},
		{"missing account name", "", "dGVzdGtleQ==", "wearable-snapshots", true},
		{"missing account key", "testaccount", "", "wearable-snapshots", true},
		{"missing container", "testaccount", "dGVzdGtleQ==", "", true},
		{"key is not base64", "testaccount", "invalid-key-format", "wearable-snapshots", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewContainerStore(tt.accountName, tt.accountKey, tt.container, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.container, store.container)
		})
	}
}

func TestContainerStore_RejectsBadInput(t *testing.T) {
	store, err := NewContainerStore("testaccount", "dGVzdGtleQ==", "wearable-snapshots", zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, "", []byte("{}"), "application/json"))
	_, err = store.Get(ctx, "")
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, store.Put(cancelled, "snapshots/a.json", []byte("{}"), "application/json"))
	_, err = store.Get(cancelled, "snapshots/a.json")
	assert.Error(t, err)
	_, err = store.List(cancelled, "snapshots/")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte(`{"steps":1}`)
	require.NoError(t, store.Put(ctx, "snapshots/u1/a.json", data, "application/json"))
	require.NoError(t, store.Put(ctx, "snapshots/u2/b.json", []byte("{}"), "application/json"))
	data[0] = 'X'

	got, err := store.Get(ctx, "snapshots/u1/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"steps":1}`, string(got), "stored data must not alias the caller's slice")

	_, err = store.Get(ctx, "missing")
	assert.Error(t, err)
	assert.Error(t, store.Put(ctx, "", nil, ""))

	names, err := store.List(ctx, "snapshots/u1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/u1/a.json"}, names)
}
