package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	if host := os.Getenv("TEST_REDIS_HOST"); host != "" {
		cfg.Host = host
	}
	if password := os.Getenv("TEST_REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
	return cfg
}

func skipWithoutRedis(t *testing.T) *Client {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	client, err := NewClient(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", cfg.Host)
	}
	if cfg.Port != 6379 {
		t.Errorf("Port = %d, want 6379", cfg.Port)
	}
	if cfg.PoolSize != 100 {
		t.Errorf("PoolSize = %d, want 100", cfg.PoolSize)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
}

func TestConfig_Addr(t *testing.T) {
	cfg := &Config{Host: "redis.internal", Port: 6380}

	if got := cfg.Addr(); got != "redis.internal:6380" {
		t.Errorf("Addr() = %q, want redis.internal:6380", got)
	}
}

func TestNewClient_UnreachableHost(t *testing.T) {
	cfg := &Config{
		Host:          "invalid-host-that-does-not-exist",
		Port:          9999,
		MaxRetries:    0,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   500 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewClient(ctx, cfg); err == nil {
		t.Error("NewClient should fail for an unreachable host")
	}
}

func TestIsNoScriptError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection refused"), false},
		{errors.New("NOSCRIPT No matching script. Please use EVAL."), true},
		{fmt.Errorf("NOSCRIPT flushed"), true},
	}

	for _, tt := range tests {
		if got := isNoScriptError(tt.err); got != tt.want {
			t.Errorf("isNoScriptError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

// Integration tests require a running Redis

func TestClient_HealthCheck_Integration(t *testing.T) {
	client := skipWithoutRedis(t)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestClient_KeyOperations_Integration(t *testing.T) {
	client := skipWithoutRedis(t)
	ctx := context.Background()

	key := "test:key:" + time.Now().Format("20060102150405.000")

	if err := client.Set(ctx, key, "first", time.Minute).Err(); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := client.Get(ctx, key).Result()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "first" {
		t.Errorf("Get = %q, want first", val)
	}

	// SetNX must not overwrite an existing key
	set, err := client.SetNX(ctx, key, "second", time.Minute).Result()
	if err != nil {
		t.Fatalf("SetNX failed: %v", err)
	}
	if set {
		t.Error("SetNX overwrote an existing key")
	}

	deleted, err := client.Del(ctx, key).Result()
	if err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Del = %d, want 1", deleted)
	}

	set, err = client.SetNX(ctx, key, "second", time.Minute).Result()
	if err != nil {
		t.Fatalf("SetNX after Del failed: %v", err)
	}
	if !set {
		t.Error("SetNX should succeed once the key is gone")
	}
	client.Del(ctx, key)
}

func TestClient_EvalWithFallback_Integration(t *testing.T) {
	client := skipWithoutRedis(t)
	ctx := context.Background()

	script := `return tonumber(ARGV[1]) * 2`
	name := "test_double"

	// First call loads the script, second runs on the cached SHA
	result, err := client.EvalWithFallback(ctx, name, script, nil, 7).Int()
	if err != nil {
		t.Fatalf("EvalWithFallback failed: %v", err)
	}
	if result != 14 {
		t.Errorf("result = %d, want 14", result)
	}

	result, err = client.EvalWithFallback(ctx, name, script, nil, 10).Int()
	if err != nil {
		t.Fatalf("second EvalWithFallback failed: %v", err)
	}
	if result != 20 {
		t.Errorf("result = %d, want 20", result)
	}

	// Flush server-side scripts so the stale cached SHA forces a reload
	if err := client.client.ScriptFlush(ctx).Err(); err != nil {
		t.Fatalf("ScriptFlush failed: %v", err)
	}

	result, err = client.EvalWithFallback(ctx, name, script, nil, 21).Int()
	if err != nil {
		t.Fatalf("EvalWithFallback after flush failed: %v", err)
	}
	if result != 42 {
		t.Errorf("result = %d, want 42", result)
	}
}
