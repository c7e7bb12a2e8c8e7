package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := New(map[string]string{ShowBeta: "true"})
	require.NoError(t, err)
	assert.True(t, s.Bool(ShowBeta))
	v, ok := s.Get(Locale)
	require.True(t, ok)
	assert.Equal(t, "en", v)

	_, err = New(map[string]string{"colour": "blue"})
	require.ErrorIs(t, err, ErrUnknown)
}

func TestSet(t *testing.T) {
	t.Parallel()

	s, err := New(nil)
	require.NoError(t, err)

	type change struct{ name, old, new string }
	var changes []change
	s.OnChange(func(ctx context.Context, name, oldValue, newValue string) {
		changes = append(changes, change{name, oldValue, newValue})
	})

	require.NoError(t, s.Set(context.Background(), Locale, "fr"))
	require.NoError(t, s.Set(context.Background(), Locale, "fr"), "setting the same value is a no-op")
	require.NoError(t, s.Set(context.Background(), ShowBeta, "true"))

	assert.Equal(t, []change{{Locale, "en", "fr"}, {ShowBeta, "false", "true"}}, changes)
	assert.Equal(t, map[string]string{Locale: "fr", ShowBeta: "true"}, s.All())
}

func TestSet_Invalid(t *testing.T) {
	t.Parallel()

	s, err := New(nil)
	require.NoError(t, err)
	fired := false
	s.OnChange(func(context.Context, string, string, string) { fired = true })

	testCases := []struct {
		name, setting, value string
	}{
		{"unknown setting", "colour", "blue"},
		{"non-boolean show_beta", ShowBeta, "maybe"},
		{"empty locale", Locale, ""},
		{"malformed locale", Locale, "not a locale"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, s.Set(context.Background(), tc.setting, tc.value))
		})
	}
	assert.False(t, fired)
	assert.Equal(t, Defaults(), s.All())
}

func TestNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{Locale, ShowBeta}, Names())
}
