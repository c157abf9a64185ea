package aws

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// DefaultSecretTTL bounds how long a fetched credential is reused, so a
// rotated PayPal secret is picked up without a restart.
const DefaultSecretTTL = 15 * time.Minute

// SecretsAPI is the Secrets Manager call used by SecretsClient.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type cachedSecret struct {
	value     string
	fetchedAt time.Time
}

// SecretsClient reads checkout credentials from Secrets Manager. Non-empty
// values are cached for ttl; blank secrets are never cached.
type SecretsClient struct {
	api   SecretsAPI
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	cache map[string]cachedSecret
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return NewSecretsClientWithAPI(secretsmanager.NewFromConfig(cfg), DefaultSecretTTL)
}

// NewSecretsClientWithAPI builds a client on any SecretsAPI. A non-positive
// ttl falls back to DefaultSecretTTL.
func NewSecretsClientWithAPI(api SecretsAPI, ttl time.Duration) *SecretsClient {
	if ttl <= 0 {
		ttl = DefaultSecretTTL
	}
	return &SecretsClient{
		api:   api,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cachedSecret),
	}
}

// GetSecret returns the string value of the named secret.
func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	entry, ok := s.cache[name]
	s.mu.RUnlock()
	if ok && s.now().Sub(entry.fetchedAt) < s.ttl {
		return entry.value, nil
	}

	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	value := strings.TrimSpace(sdkaws.ToString(out.SecretString))
	if value == "" {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	s.mu.Lock()
	s.cache[name] = cachedSecret{value: value, fetchedAt: s.now()}
	s.mu.Unlock()
	return value, nil
}
