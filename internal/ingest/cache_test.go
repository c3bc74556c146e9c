package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvDoc(name, body string) Document {
	return Document{Name: name, Data: []byte(body)}
}

func TestCache_HitReturnsClone(t *testing.T) {
	c := NewCache(NewPipeline(DefaultOptions()), time.Minute)
	doc := csvDoc("a.csv", "Folio,Monto,Estado\nA1,100,Visita\n")

	first, hit, err := c.Load(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := c.Load(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, hit)

	assert.NotSame(t, first.Ledger, second.Ledger)
	assert.Equal(t, first.Ledger.Records(), second.Ledger.Records())
	assert.Equal(t, 1, c.Len())
}

func TestCache_DifferentDocumentInvalidates(t *testing.T) {
	c := NewCache(NewPipeline(DefaultOptions()), time.Minute)
	a := csvDoc("a.csv", "Folio,Monto,Estado\nA1,100,Visita\n")
	b := csvDoc("b.csv", "Folio,Monto,Estado\nB1,200,Contrato\n")

	_, _, err := c.Load(context.Background(), a)
	require.NoError(t, err)
	_, hit, err := c.Load(context.Background(), b)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = c.Load(context.Background(), a)
	require.NoError(t, err)
	assert.False(t, hit, "switching documents must drop the earlier result")
}

func TestCache_SameContentDifferentNameHits(t *testing.T) {
	c := NewCache(NewPipeline(DefaultOptions()), time.Minute)
	body := "Folio,Monto,Estado\nA1,100,Visita\n"

	_, _, err := c.Load(context.Background(), csvDoc("a.csv", body))
	require.NoError(t, err)
	_, hit, err := c.Load(context.Background(), csvDoc("copy of a.csv", body))
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestCache_FailuresNotCached(t *testing.T) {
	c := NewCache(NewPipeline(DefaultOptions()), time.Minute)
	doc := csvDoc("bad.csv", "Reporte\n\"\"\nFolio,Nombre\nA1,Juan\n")

	for i := 0; i < 2; i++ {
		_, hit, err := c.Load(context.Background(), doc)
		assert.ErrorIs(t, err, ErrMissingRequiredColumns)
		assert.False(t, hit)
	}
	assert.Equal(t, 0, c.Len())
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(NewPipeline(DefaultOptions()), 50*time.Millisecond)
	doc := csvDoc("a.csv", "Folio,Monto,Estado\nA1,100,Visita\n")

	_, _, err := c.Load(context.Background(), doc)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.Len() == 0 }, 2*time.Second, 20*time.Millisecond)

	_, hit, err := c.Load(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_Invalidate(t *testing.T) {
	c := NewCache(NewPipeline(DefaultOptions()), time.Minute)
	doc := csvDoc("a.csv", "Folio,Monto,Estado\nA1,100,Visita\n")

	_, _, err := c.Load(context.Background(), doc)
	require.NoError(t, err)
	c.Invalidate()
	assert.Equal(t, 0, c.Len())

	_, hit, err := c.Load(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_Clock(t *testing.T) {
	doc := csvDoc("fechas.csv", "Folio,Monto,Estado,Fecha\nA1,100,Visita,01/02/2024\n")

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"same day", time.Date(2024, time.February, 1, 18, 0, 0, 0, time.UTC), 0},
		{"ten days later", time.Date(2024, time.February, 11, 8, 0, 0, 0, time.UTC), 10},
		{"before creation", time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache(NewPipeline(DefaultOptions()), time.Minute,
				WithCacheClock(func() time.Time { return tt.now }))

			res, _, err := c.Load(context.Background(), doc)
			require.NoError(t, err)

			got, ok := res.Ledger.Get("A1")
			require.True(t, ok)
			assert.Equal(t, tt.want, got.DaysOpen)
		})
	}
}
