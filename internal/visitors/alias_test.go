package visitors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"pageflow/internal/visitors"
)

func TestAlias(t *testing.T) {
	t.Run("stable for the same key", func(t *testing.T) {
		assert.Equal(t, visitors.Alias("id:v-1"), visitors.Alias("id:v-1"))
	})

	t.Run("adjective animal format", func(t *testing.T) {
		for _, key := range []string{"short", "id:123456789", "client:203.0.113.1|Mozilla", "special!@#$%^&*()chars"} {
			assert.Regexp(t, `^[A-Z][a-z]+ [A-Z][a-z]+$`, visitors.Alias(key), "key %q", key)
		}
	})

	t.Run("empty key has no alias", func(t *testing.T) {
		assert.Empty(t, visitors.Alias(""))
	})

	t.Run("spreads across names", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := range 200 {
			seen[visitors.Alias(fmt.Sprintf("id:visitor-%d", i))] = true
		}
		assert.Greater(t, len(seen), 100)
	})
}

func TestKey(t *testing.T) {
	tests := []struct {
		name                       string
		visitorID, addr, signature string
		want                       string
	}{
		{"visitor id wins", "v-1", "203.0.113.1", "UA", "id:v-1"},
		{"falls back to client", "", "203.0.113.1", "UA", "client:203.0.113.1|UA"},
		{"address only", "", "203.0.113.1", "", "client:203.0.113.1|"},
		{"nothing known", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, visitors.Key(tt.visitorID, tt.addr, tt.signature))
		})
	}
}
