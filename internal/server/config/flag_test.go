package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"cmd",
		"-a", "127.0.0.1:9090", "-d", "postgres://example/db", "-q", "redis:6379",
		"-s", "secret", "-t", "5", "-r", "60", "-f", "open",
		"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
	}

	config := &Config{}
	parseFlags(config)

	assert.Equal(t, "127.0.0.1:9090", config.EndpointAddr)
	assert.Equal(t, "postgres://example/db", config.DatabaseDSN)
	assert.Equal(t, "redis:6379", config.RedisAddr)
	assert.Equal(t, "secret", config.SecretKey)
	assert.Equal(t, 5*time.Minute, config.AccessTokenValidityDuration)
	assert.Equal(t, 60*time.Minute, config.RefreshTokenValidityDuration)
	assert.Equal(t, RevocationFailOpen, config.RevocationFailMode)
	assert.Equal(t, "user", config.S3RootUser)
	assert.Equal(t, "password", config.S3RootPassword)
	assert.Equal(t, "bucket", config.S3Bucket)
	assert.Equal(t, "us-west-1", config.S3Region)
	assert.Equal(t, "http://endpoint", config.S3BaseEndpoint)
}

func TestParseFlags_IgnoresForeignFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"cmd", "-z", "ignored", "-a", ":7070"}

	config := &Config{}
	parseFlags(config)

	assert.Equal(t, ":7070", config.EndpointAddr)
}
