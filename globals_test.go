package glubview

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestReadGlobals(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    map[string]any
		wantErr bool
	}{
		{
			name: "empty",
			in:   "",
			want: map[string]any{},
		},
		{
			name: "values",
			in:   "siteName: Acme\nyear: 2024\nnav:\n  - home\n  - about\nsocial:\n  mastodon: '@acme'\n",
			want: map[string]any{
				"siteName": "Acme",
				"year":     2024,
				"nav":      []any{"home", "about"},
				"social":   map[string]any{"mastodon": "@acme"},
			},
		},
		{
			name:    "not a mapping",
			in:      "- a\n- b\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadGlobals(strings.NewReader(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ReadGlobals() expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadGlobals() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want, +got):\n%s", diff)
			}
		})
	}
}

func TestAddGlobals(t *testing.T) {
	r := newTestRenderer(t)

	if err := r.AddGlobals(map[string]any{"a": 1, "b": 2}); err != nil {
		t.Fatal(err)
	}
	if err := r.AddGlobals(map[string]any{"c": 3, "b": 4}); !errors.Is(err, ErrDuplicateGlobal) {
		t.Errorf("AddGlobals() error = %v, want %v", err, ErrDuplicateGlobal)
	}

	want := map[string]any{"a": 1, "b": 2}
	if diff := cmp.Diff(want, r.Globals()); diff != "" {
		t.Errorf("Globals() (-want, +got):\n%s", diff)
	}
}
