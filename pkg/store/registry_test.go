package store

import (
	"context"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownStoreError_Error(t *testing.T) {
	err := &UnknownStoreError{
		Type:      "fake_db",
		Available: []string{"mysql", "sqlite"},
	}

	msg := err.Error()

	assert.Contains(t, msg, "fake_db", "error should mention the unknown type")
	assert.Contains(t, msg, "mysql", "error should list available stores")
	assert.Contains(t, msg, "leaporm.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	Register("test_store_internal", func(_ *slog.Logger) Backend { return nil })

	assert.True(t, IsRegistered("test_store_internal"))
	assert.Contains(t, ListStores(), "test_store_internal")

	factory, ok := Get("test_store_internal")
	assert.True(t, ok)
	assert.NotNil(t, factory)
}

func TestNew_EmptyType(t *testing.T) {
	_, err := New(core.StoreConfig{}, nil)
	require.Error(t, err)
	assert.Equal(t, "store type not specified", err.Error())
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(context.Background(), core.StoreConfig{Type: "nope"}, nil)
	require.Error(t, err)

	var unknown *UnknownStoreError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Type)
}
