package bdapp

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// SecretReader abstracts secret retrieval.
type SecretReader interface {
	GetSecretString(ctx context.Context, secretID string) (string, error)
}

// SecretReaderFunc implements SecretReader with a function.
type SecretReaderFunc func(ctx context.Context, secretID string) (string, error)

// GetSecretString implements SecretReader.
func (f SecretReaderFunc) GetSecretString(ctx context.Context, secretID string) (string, error) {
	return f(ctx, secretID)
}

// AWSSecretReader reads secrets from AWS Secrets Manager through a cache.
type AWSSecretReader struct {
	cache *secretcache.Cache
}

// NewAWSSecretReader creates a new AWSSecretReader using the provided AWS config.
func NewAWSSecretReader(cfg aws.Config) (*AWSSecretReader, error) {
	client := secretsmanager.NewFromConfig(cfg)

	cache, err := secretcache.New(func(c *secretcache.Cache) {
		c.Client = client
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create secret cache")
	}

	return &AWSSecretReader{cache: cache}, nil
}

// GetSecretString retrieves a secret value with caching.
func (r *AWSSecretReader) GetSecretString(ctx context.Context, secretID string) (string, error) {
	secret, err := r.cache.GetSecretStringWithContext(ctx, secretID)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get secret %q", secretID)
	}

	return secret, nil
}

// readSecret reads 'secretID' and, when a path is given, extracts it from the secret as JSON.
func readSecret(ctx context.Context, reader SecretReader, secretID string, jsonPath ...string) (string, error) {
	if len(jsonPath) > 1 {
		return "", errors.New("bdapp: Secret accepts at most one jsonPath argument")
	}

	secret, err := reader.GetSecretString(ctx, secretID)
	if err != nil {
		return "", err
	}

	if len(jsonPath) == 0 || jsonPath[0] == "" {
		return secret, nil
	}

	if !gjson.Valid(secret) {
		return "", errors.Newf("secret %q is not valid JSON", secretID)
	}

	result := gjson.Get(secret, jsonPath[0])
	if !result.Exists() {
		return "", errors.Newf("secret path %q not found in secret %q", jsonPath[0], secretID)
	}

	return result.String(), nil
}
