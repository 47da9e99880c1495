package adapter

import (
	"log/slog"
	"testing"

	"github.com/forceql/forceql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{
		Type:      "fake_crm",
		Available: []string{"salesforce"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "fake_crm", "error should mention the unknown type")
	assert.Contains(t, msg, "salesforce", "error should list available adapters")
	assert.Contains(t, msg, "forceql.yaml", "error should mention the config file")
}

func TestRegister(t *testing.T) {
	Register("test_adapter_internal", func(_ *slog.Logger) Adapter { return nil })

	assert.True(t, IsRegistered("test_adapter_internal"))

	factory, ok := Get("test_adapter_internal")
	assert.True(t, ok)
	assert.NotNil(t, factory)
}

func TestNewEmptyType(t *testing.T) {
	_, err := New(core.ConnectionConfig{}, nil)
	require.Error(t, err)
	assert.Equal(t, "adapter type not specified", err.Error())
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(core.ConnectionConfig{Type: "no_such_backend"}, nil)
	require.Error(t, err)
	var uerr *UnknownAdapterError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "no_such_backend", uerr.Type)
}

func TestListSorted(t *testing.T) {
	Register("zzz_test", func(_ *slog.Logger) Adapter { return nil })
	Register("aaa_test", func(_ *slog.Logger) Adapter { return nil })

	names := List()
	require.GreaterOrEqual(t, len(names), 2)
	assert.IsIncreasing(t, names)
}
