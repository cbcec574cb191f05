package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type payload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newTestCodec(t *testing.T, store Store) *Codec {
	t.Helper()
	return NewCodec(store, DefaultTTLPolicy(), zap.NewNop(), nil)
}

func TestCodec_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()
	codec := newTestCodec(t, store)

	codec.Put(ctx, "blog:1", payload{ID: "1", Title: "Hello World"}, codec.TTL().Item)

	var got payload
	require.True(t, codec.Get(ctx, "blog:1", &got))
	assert.Equal(t, payload{ID: "1", Title: "Hello World"}, got)
}

func TestCodec_MissReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()
	codec := newTestCodec(t, store)

	var got payload
	assert.False(t, codec.Get(ctx, "blog:absent", &got))
}

func TestCodec_UndecodablePayloadEvicted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()
	codec := newTestCodec(t, store)

	require.NoError(t, store.Set(ctx, "blog:1", []byte("not json"), time.Minute))

	var got payload
	assert.False(t, codec.Get(ctx, "blog:1", &got))

	// The broken entry was dropped, not left to poison later reads.
	_, err := store.Get(ctx, "blog:1")
	assert.ErrorIs(t, err, ErrNotFound)
}

// failingStore errors on every operation, standing in for an unreachable
// Redis.
type failingStore struct{}

var errBackendDown = errors.New("backend down")

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errBackendDown }
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errBackendDown
}
func (failingStore) Delete(context.Context, string) error        { return errBackendDown }
func (failingStore) DeletePattern(context.Context, string) error { return errBackendDown }
func (failingStore) Ping(context.Context) error                  { return errBackendDown }
func (failingStore) Close() error                                { return nil }

func TestCodec_BackendFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t, failingStore{})

	// Neither call panics or bubbles an error; Get simply reads as a miss.
	codec.Put(ctx, "blog:1", payload{ID: "1"}, time.Minute)
	var got payload
	assert.False(t, codec.Get(ctx, "blog:1", &got))
}

func TestDefaultTTLPolicy(t *testing.T) {
	ttl := DefaultTTLPolicy()
	assert.Equal(t, 5*time.Minute, ttl.Item)
	assert.Equal(t, 60*time.Minute, ttl.List)
	assert.Equal(t, 60*time.Minute, ttl.User)
}
