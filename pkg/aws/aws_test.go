package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType(t *testing.T) {
	assert.Equal(t, "coupon_usage_recorded", eventType([]byte(`{"event_type":"coupon_usage_recorded","usage_id":"x"}`)))
	assert.Equal(t, "", eventType([]byte(`not json`)))
	assert.Equal(t, "", eventType([]byte(`{"usage_id":"x"}`)))
}

func TestParseSecretMap(t *testing.T) {
	m, err := ParseSecretMap(`{"POSTGRES_USER":"store","JWT_SECRET":"s3cr3t"}`)
	require.NoError(t, err)
	assert.Equal(t, "store", m["POSTGRES_USER"])
	assert.Equal(t, "s3cr3t", m["JWT_SECRET"])

	m, err = ParseSecretMap("")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = ParseSecretMap(`["a"]`)
	assert.Error(t, err)
}

func TestMetricsClient_DisabledIsNoop(t *testing.T) {
	var nilClient *MetricsClient
	assert.False(t, nilClient.IsEnabled())
	assert.NoError(t, nilClient.RecordCount(context.Background(), MetricCouponRedemptions, nil))

	disabled := &MetricsClient{namespace: "Storefront"}
	assert.False(t, disabled.IsEnabled())
	assert.NoError(t, disabled.RecordCount(context.Background(), MetricCheckoutQuotes, map[string]string{"Currency": "INR"}))
}

func TestStaticCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	assert.Nil(t, staticCredentials())

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test-secret")
	provider := staticCredentials()
	require.NotNil(t, provider)

	creds, err := provider.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
	assert.Equal(t, "test-secret", creds.SecretAccessKey)
}
