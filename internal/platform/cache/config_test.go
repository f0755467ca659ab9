package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		retention string
		want      Config
	}{
		{"defaults", "", "", Config{Namespace: DefaultNamespace, StaleRetention: DefaultStaleRetention}},
		{"overrides", "stg", "72h", Config{Namespace: "stg", StaleRetention: 72 * time.Hour}},
		{"invalid retention", "", "-1h", Config{Namespace: DefaultNamespace, StaleRetention: DefaultStaleRetention}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CACHE_NAMESPACE", tt.namespace)
			t.Setenv("CACHE_STALE_RETENTION", tt.retention)
			assert.Equal(t, tt.want, LoadConfig())
		})
	}
}
