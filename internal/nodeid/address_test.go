// internal/nodeid/address_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_String(t *testing.T) {
	testCases := []struct {
		name        string
		addr        Address
		expectedStr string
	}{
		{name: "simple", addr: New("text", "greeting"), expectedStr: "text.greeting"},
		{name: "hyphenated name", addr: New("redis_chat", "chat-memory"), expectedStr: "redis_chat.chat-memory"},
		{name: "zero address", addr: Address{}, expectedStr: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStr, tc.addr.String())
		})
	}
}

func TestAddress_Output(t *testing.T) {
	assert.Equal(t, "notify.n1.result", New("notify", "n1").Output("result"))
}

func TestAddress_RoundTrip(t *testing.T) {
	for _, id := range []string{"text.a", "listen.watch_k", "env_vars.all-of-them"} {
		t.Run(id, func(t *testing.T) {
			addr, err := Parse(id)
			require.NoError(t, err)
			assert.Equal(t, id, addr.String())
		})
	}
}
