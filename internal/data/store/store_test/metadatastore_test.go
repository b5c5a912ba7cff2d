package store_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/studyfellow/internal/data/store"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metadataStores(t *testing.T) map[string]documentModel.MetadataStore {
	_, internalStore := newTestRedis(t)
	return map[string]documentModel.MetadataStore{
		"redis":    store.NewRedisMetadataStore(internalStore),
		"inMemory": store.InitInMemoryMetadataStore(),
		"cached":   store.NewCachedMetadataStore(store.InitInMemoryMetadataStore(), time.Minute, time.Minute),
	}
}

func TestMetadataStore_UpsertByPath(t *testing.T) {
	for name, metaStore := range metadataStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := traceCtx("meta-trace")
			path := "raw_documents/physics/intro.pdf"

			first, err := metaStore.UpsertByPath(ctx, documentModel.DocumentMetadata{
				Path:       path,
				FileName:   "intro.pdf",
				Subject:    "physics",
				TotalPages: 3,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, first.ID)
			assert.Equal(t, documentModel.StatusUnprocessed, first.Status)

			t.Run("redelivery reuses the live record", func(t *testing.T) {
				again, err := metaStore.UpsertByPath(ctx, documentModel.DocumentMetadata{
					Path:       path,
					FileName:   "intro.pdf",
					Subject:    "physics",
					TotalPages: 3,
				})
				require.NoError(t, err)
				assert.Equal(t, first.ID, again.ID)

				found, ok, err := metaStore.FindByPath(ctx, path)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, first.ID, found.ID)
			})

			t.Run("re-upload after delete gets a fresh record", func(t *testing.T) {
				require.NoError(t, metaStore.MarkDeleted(ctx, first.ID))

				old, ok, err := metaStore.GetByID(ctx, first.ID)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, documentModel.StatusDeleted, old.Status)

				fresh, err := metaStore.UpsertByPath(ctx, documentModel.DocumentMetadata{
					Path:     path,
					FileName: "intro.pdf",
					Subject:  "physics",
				})
				require.NoError(t, err)
				assert.NotEqual(t, first.ID, fresh.ID)
				assert.Equal(t, documentModel.StatusUnprocessed, fresh.Status)

				found, ok, err := metaStore.FindByPath(ctx, path)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, fresh.ID, found.ID)
			})
		})
	}
}

func TestMetadataStore_Missing(t *testing.T) {
	for name, metaStore := range metadataStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := metaStore.FindByPath(ctx, "raw_documents/nothing.pdf")
			require.NoError(t, err)
			assert.False(t, ok)

			_, ok, err = metaStore.GetByID(ctx, "ghost")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, metaStore.MarkDeleted(ctx, "ghost"))
		})
	}
}

type countingMetadataStore struct {
	documentModel.MetadataStore
	gets int
}

func (c *countingMetadataStore) GetByID(ctx context.Context, id string) (documentModel.DocumentMetadata, bool, error) {
	c.gets++
	return c.MetadataStore.GetByID(ctx, id)
}

func TestCachedMetadataStore_ServesRepeatLookups(t *testing.T) {
	ctx := context.Background()
	inner := &countingMetadataStore{MetadataStore: store.InitInMemoryMetadataStore()}
	cached := store.NewCachedMetadataStore(inner, time.Minute, time.Minute)

	meta, err := cached.UpsertByPath(ctx, documentModel.DocumentMetadata{Path: "raw_documents/a.pdf"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, ok, err := cached.GetByID(ctx, meta.ID)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 1, inner.gets)

	require.NoError(t, cached.MarkDeleted(ctx, meta.ID))
	got, ok, err := cached.GetByID(ctx, meta.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, documentModel.StatusDeleted, got.Status)
	assert.Equal(t, 2, inner.gets)
}

func TestRedisMetadataStore_ConcurrentDeliveriesShareOneRecord(t *testing.T) {
	mr, internalStore := newTestRedis(t)
	metaStore := store.NewRedisMetadataStore(internalStore)
	ctx := traceCtx("meta-race")
	path := "raw_documents/chemistry/bonds.pdf"

	upsertConcurrently := func(t *testing.T, n int) []string {
		t.Helper()
		ids := make([]string, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				meta, err := metaStore.UpsertByPath(ctx, documentModel.DocumentMetadata{
					Path:     path,
					FileName: "bonds.pdf",
					Subject:  "chemistry",
				})
				ids[i], errs[i] = meta.ID, err
			}(i)
		}
		close(start)
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}
		return ids
	}

	recordKeys := func() []string {
		var keys []string
		for _, k := range mr.Keys() {
			if strings.HasPrefix(k, "document_metadata:") && !strings.HasPrefix(k, "document_metadata:path:") {
				keys = append(keys, k)
			}
		}
		return keys
	}

	t.Run("first delivery", func(t *testing.T) {
		ids := upsertConcurrently(t, 16)
		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
		assert.Len(t, recordKeys(), 1)

		found, ok, err := metaStore.FindByPath(ctx, path)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ids[0], found.ID)
	})

	t.Run("re-upload after delete", func(t *testing.T) {
		deleted, ok, err := metaStore.FindByPath(ctx, path)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, metaStore.MarkDeleted(ctx, deleted.ID))

		ids := upsertConcurrently(t, 16)
		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
		assert.NotEqual(t, deleted.ID, ids[0])
		assert.Len(t, recordKeys(), 2)
	})
}
