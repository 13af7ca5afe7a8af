package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelSetCanonicalOrder(t *testing.T) {
	a := NewLabelSet(Labels{"tenant": "t1", "model": "gpt-4"})
	b := NewLabelSet(Labels{"model": "gpt-4", "tenant": "t1"})

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Equal(b))
	assert.Equal(t, []string{"model", "tenant"}, a.Names())
}

func TestLabelSetKeyDistinguishesValues(t *testing.T) {
	a := NewLabelSet(Labels{"model": "gpt-4"})
	b := NewLabelSet(Labels{"model": "gpt-3"})
	c := NewLabelSet(Labels{"tenant": "gpt-4"})

	assert.NotEqual(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.False(t, a.Equal(b))
}

func TestLabelSetEmpty(t *testing.T) {
	empty := NewLabelSet(nil)

	assert.Equal(t, "", empty.Key())
	assert.Equal(t, 0, empty.Len())
	assert.True(t, empty.Equal(NewLabelSet(Labels{})))
}

func TestLabelSetGet(t *testing.T) {
	ls := NewLabelSet(Labels{"model": "gpt-4", "tenant": "t1"})

	model, ok := ls.Get("model")
	assert.True(t, ok)
	assert.Equal(t, "gpt-4", model)

	_, ok = ls.Get("region")
	assert.False(t, ok)
}

func TestLabelSetSameNames(t *testing.T) {
	ls := NewLabelSet(Labels{"model": "gpt-4", "tenant": "t1"})

	assert.True(t, ls.sameNames([]string{"model", "tenant"}))
	assert.False(t, ls.sameNames([]string{"model"}))
	assert.False(t, ls.sameNames([]string{"model", "region"}))
}
