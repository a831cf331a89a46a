package bdapp

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
)

func TestResolveClientConfig(t *testing.T) {
	base := aws.Config{Region: "us-east-1"}
	env := testEnv{primary: "eu-central-1"}

	assert.Equal(t, "us-east-1", resolveClientConfig(base, env).Region)
	assert.Equal(t, "eu-central-1", resolveClientConfig(base, env, ForPrimaryRegion()).Region)
	assert.Equal(t, "ap-south-1", resolveClientConfig(base, env, ForRegion("ap-south-1")).Region)
	assert.Equal(t, "us-east-1", resolveClientConfig(base, testEnv{}, ForPrimaryRegion()).Region)

	t.Run("does not modify the shared config", func(t *testing.T) {
		_ = resolveClientConfig(base, env, ForRegion("ap-south-1"))
		assert.Equal(t, "us-east-1", base.Region)
	})
}

func TestRegions(t *testing.T) {
	env := testEnv{primary: "eu-west-1"}
	assert.Equal(t, "us-east-1", LocalRegion().resolve(env))
	assert.Equal(t, "eu-west-1", PrimaryRegion().resolve(env))
	assert.Equal(t, "sa-east-1", FixedRegion("sa-east-1").resolve(env))
}
