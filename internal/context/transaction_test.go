package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestGetTransaction_Missing(t *testing.T) {
	tx, ok := GetTransaction(context.Background())
	assert.False(t, ok)
	assert.Nil(t, tx)
}

func TestWithTransaction_RoundTrip(t *testing.T) {
	db := &gorm.DB{}

	tx, ok := GetTransaction(WithTransaction(context.Background(), db))
	assert.True(t, ok)
	assert.Same(t, db, tx)
}

func TestWithTransaction_NilIsIgnored(t *testing.T) {
	_, ok := GetTransaction(WithTransaction(context.Background(), nil))
	assert.False(t, ok)
}
