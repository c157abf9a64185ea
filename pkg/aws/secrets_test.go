package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretsAPI struct {
	values map[string]string
	err    error
	calls  map[string]int
}

func (f *fakeSecretsAPI) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	name := sdkaws.ToString(in.SecretId)
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[name]
	if !ok {
		return &secretsmanager.GetSecretValueOutput{}, nil
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: sdkaws.String(v)}, nil
}

func TestSecretsClient_CachesUntilTTL(t *testing.T) {
	api := &fakeSecretsAPI{values: map[string]string{"checkout/paypal": `{"client_id":"a"}`}}
	c := NewSecretsClientWithAPI(api, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		v, err := c.GetSecret(context.Background(), "checkout/paypal")
		require.NoError(t, err)
		assert.Equal(t, `{"client_id":"a"}`, v)
	}
	assert.Equal(t, 1, api.calls["checkout/paypal"])

	api.values["checkout/paypal"] = `{"client_id":"rotated"}`
	now = now.Add(2 * time.Minute)
	v, err := c.GetSecret(context.Background(), "checkout/paypal")
	require.NoError(t, err)
	assert.Equal(t, `{"client_id":"rotated"}`, v)
	assert.Equal(t, 2, api.calls["checkout/paypal"])
}

func TestSecretsClient_BlankValueIsNotCached(t *testing.T) {
	api := &fakeSecretsAPI{values: map[string]string{"checkout/PAYPAL_CLIENT_ID": "  "}}
	c := NewSecretsClientWithAPI(api, time.Hour)

	_, err := c.GetSecret(context.Background(), "checkout/PAYPAL_CLIENT_ID")
	assert.ErrorContains(t, err, "no string value")

	api.values["checkout/PAYPAL_CLIENT_ID"] = "client-id"
	v, err := c.GetSecret(context.Background(), "checkout/PAYPAL_CLIENT_ID")
	require.NoError(t, err)
	assert.Equal(t, "client-id", v)
	assert.Equal(t, 2, api.calls["checkout/PAYPAL_CLIENT_ID"])
}

func TestSecretsClient_MissingStringValue(t *testing.T) {
	c := NewSecretsClientWithAPI(&fakeSecretsAPI{}, 0)
	_, err := c.GetSecret(context.Background(), "checkout/absent")
	assert.ErrorContains(t, err, "no string value")
	assert.Equal(t, DefaultSecretTTL, c.ttl)
}

func TestSecretsClient_APIError(t *testing.T) {
	boom := errors.New("AccessDeniedException")
	c := NewSecretsClientWithAPI(&fakeSecretsAPI{err: boom}, time.Hour)
	_, err := c.GetSecret(context.Background(), "checkout/paypal")
	assert.ErrorIs(t, err, boom)
}
