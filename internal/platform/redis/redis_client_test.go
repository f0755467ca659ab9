package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		want        Config
		wantEnabled bool
	}{
		{
			name: "unset",
			env:  map[string]string{},
			want: Config{Port: "6379"},
		},
		{
			name:        "full",
			env:         map[string]string{"REDIS_HOST": "cache.internal", "REDIS_PORT": "6380", "REDIS_PASSWORD": "secret", "REDIS_DB": "2"},
			want:        Config{Host: "cache.internal", Port: "6380", Password: "secret", DB: 2},
			wantEnabled: true,
		},
		{
			name:        "invalid db",
			env:         map[string]string{"REDIS_HOST": "localhost", "REDIS_DB": "x"},
			want:        Config{Host: "localhost", Port: "6379"},
			wantEnabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB"} {
				t.Setenv(k, tt.env[k])
			}
			got := LoadConfig()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantEnabled, got.Enabled())
		})
	}
}

func TestConfig_Addr(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "localhost:6379", Config{Host: "localhost", Port: "6379"}.Addr())
}

// TestNewRedisClient_Unreachable は接続できない場合にエラーを返すことを検証します。
func TestNewRedisClient_Unreachable(t *testing.T) {
	t.Parallel()

	// 予約済みのポート0には接続できない
	client, err := NewRedisClient(context.Background(), Config{Host: "127.0.0.1", Port: "0"})
	require.Error(t, err)
	assert.Nil(t, client)
}
