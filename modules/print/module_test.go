package print

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/contextstore"
	"github.com/vk/flowgrid/internal/sharedcache"
	"github.com/zclconf/go-cty/cty"
)

func TestPrint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   component.Inputs
		want string
	}{
		{
			name: "object",
			in:   component.Inputs{"value": cty.ObjectVal(map[string]cty.Value{"a": cty.NumberIntVal(1)})},
			want: `{"a":1}`,
		},
		{
			name: "labelled string",
			in:   component.Inputs{"value": cty.StringVal("x"), "label": cty.StringVal("greeting")},
			want: `greeting = "x"`,
		},
		{
			name: "null",
			in:   component.Inputs{"value": cty.NullVal(cty.String)},
			want: "(null)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			bc := component.NewBuildContext("print.p", contextstore.New(), sharedcache.New())

			got, err := New(&buf).Build(context.Background(), bc, "printed", tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.AsString())
			assert.Equal(t, "      "+tc.want+"\n", buf.String())
		})
	}
}
