package variants

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID     int64
	variants   map[int64]Variant
	referenced map[int64]struct{}
	listActive int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		variants:   make(map[int64]Variant),
		referenced: make(map[int64]struct{}),
	}
}

func (m *memoryRepo) List(_ context.Context, limit, offset int) ([]Variant, int, error) {
	var all []Variant
	for _, v := range m.variants {
		all = append(all, v)
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memoryRepo) ListActive(_ context.Context) ([]Option, error) {
	m.listActive++
	var options []Option
	for _, v := range m.variants {
		if v.Active {
			options = append(options, Option{ID: v.ID, Title: v.Title})
		}
	}
	return options, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Variant, error) {
	v, ok := m.variants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (m *memoryRepo) Insert(_ context.Context, variant Variant) (int64, error) {
	m.nextID++
	variant.ID = m.nextID
	m.variants[variant.ID] = variant
	return variant.ID, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, variant Variant) error {
	if _, ok := m.variants[id]; !ok {
		return ErrNotFound
	}
	variant.ID = id
	m.variants[id] = variant
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.variants[id]; !ok {
		return ErrNotFound
	}
	if _, ok := m.referenced[id]; ok {
		return ErrInUse
	}
	delete(m.variants, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryRepo()
	return NewService(repo, NewOptionCache(client, time.Minute), nil), repo
}

func TestCreateValidatesTitle(t *testing.T) {
	svc, repo := newTestService(t)

	_, fieldErrs, err := svc.Create(context.Background(), VariantForm{})
	require.NoError(t, err)
	require.Contains(t, fieldErrs, "title")
	require.Empty(t, repo.variants)
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)

	created, fieldErrs, err := svc.Create(context.Background(), VariantForm{Title: "Size", Active: true})
	require.NoError(t, err)
	require.False(t, fieldErrs.HasErrors())

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Size", got.Title)
	require.True(t, got.Active)
}

func TestActiveOptionsServedFromCache(t *testing.T) {
	svc, repo := newTestService(t)

	_, _, err := svc.Create(context.Background(), VariantForm{Title: "Color", Active: true})
	require.NoError(t, err)
	_, _, err = svc.Create(context.Background(), VariantForm{Title: "Archived", Active: false})
	require.NoError(t, err)

	first, err := svc.ActiveOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, repo.listActive)

	// Second read must come from the cache, not the repository.
	second, err := svc.ActiveOptions(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.listActive)
}

func TestWritesInvalidateOptionCache(t *testing.T) {
	svc, repo := newTestService(t)

	created, _, err := svc.Create(context.Background(), VariantForm{Title: "Size", Active: true})
	require.NoError(t, err)

	_, err = svc.ActiveOptions(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repo.listActive)

	_, err = svc.Update(context.Background(), created.ID, VariantForm{Title: "Size", Active: false})
	require.NoError(t, err)

	options, err := svc.ActiveOptions(context.Background())
	require.NoError(t, err)
	require.Empty(t, options)
	require.Equal(t, 2, repo.listActive)
}

func TestDeleteReferencedVariant(t *testing.T) {
	svc, repo := newTestService(t)

	created, _, err := svc.Create(context.Background(), VariantForm{Title: "Material", Active: true})
	require.NoError(t, err)
	repo.referenced[created.ID] = struct{}{}

	require.ErrorIs(t, svc.Delete(context.Background(), created.ID), ErrInUse)
	require.Contains(t, repo.variants, created.ID)
}
