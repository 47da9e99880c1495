package salesforce_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forceql/forceql/pkg/adapters/salesforce"
	"github.com/forceql/forceql/pkg/core"
)

// TestLiveOrg exercises a real org end to end. It needs network access and
// credentials, so it only runs when SLOW_TESTS is set.
func TestLiveOrg(t *testing.T) {
	if os.Getenv("SLOW_TESTS") == "" {
		t.Skip("set SLOW_TESTS=1 to run live org tests")
	}

	cfg := core.ConnectionConfig{
		Type:           "salesforce",
		Host:           os.Getenv("SF_HOST"),
		Username:       os.Getenv("SF_USER"),
		Password:       os.Getenv("SF_PASSWORD"),
		ConsumerKey:    os.Getenv("SF_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("SF_CONSUMER_SECRET"),
		SecurityToken:  os.Getenv("SF_SECURITY_TOKEN"),
	}
	if cfg.Username == "" || cfg.Password == "" || cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		t.Skip("SF_USER, SF_PASSWORD, SF_CONSUMER_KEY and SF_CONSUMER_SECRET must be set")
	}

	ctx := context.Background()
	ad := salesforce.New(nil)
	require.NoError(t, ad.Connect(ctx, cfg))
	defer func() { _ = ad.Close() }()

	res, err := ad.Query(ctx, "SELECT Account.Id, Account.Name FROM Account LIMIT 5")
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Name"}, res.Columns)
	assert.LessOrEqual(t, len(res.Rows), 5)

	objects, err := ad.ListObjects(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, objects)

	meta, err := ad.DescribeObject(ctx, "Account")
	require.NoError(t, err)
	require.NotNil(t, meta.FieldByName("Id"))
	assert.True(t, meta.FieldByName("Id").IsPrimaryKey())
}
