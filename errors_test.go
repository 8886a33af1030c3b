package colib

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeEquality(t *testing.T) {
	a := NewStatusCode(coreCategory, 1)
	b := NewStatusCode(coreCategory, 1)
	c := NewStatusCode(coreCategory, 2)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestStatusCodeEqualityByIDNotPointer(t *testing.T) {
	other := NewCategory(coreCategoryID, "renamed-but-same-id", nil)
	a := NewStatusCode(coreCategory, 1)
	b := NewStatusCode(other, 1)
	assert.True(t, a.Equal(b), "equality compares category id, not name or pointer identity")
}

func TestNewCategoryPanicsOnZeroID(t *testing.T) {
	assert.Panics(t, func() { NewCategory(0, "x", nil) })
}

func TestNewCategoryPanicsOnEmptyName(t *testing.T) {
	assert.Panics(t, func() { NewCategory(1, "", nil) })
}

func TestStatusErrorIs(t *testing.T) {
	err := NewStatusError(CodeCancel, "")
	assert.True(t, errors.Is(err, ErrCancel))
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestSentinelErrorsDistinct(t *testing.T) {
	require.NotEqual(t, ErrCancel.Code, ErrTimeout.Code)
	require.NotEqual(t, ErrEmpty.Code, ErrFull.Code)
}

func TestExampleNetCategoryLazyAndStable(t *testing.T) {
	c1 := ExampleNetCategory()
	c2 := ExampleNetCategory()
	assert.Same(t, c1, c2)
	assert.Equal(t, "co_net", c1.Name())
}
