package expr

import "testing"

func TestEvalBool_BuiltinComposition(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		values  map[string]any
		want    bool
		wantErr bool
	}{
		{
			name:   "negated membership true",
			expr:   `{{not (or (eq country "US") (eq country "CA"))}}`,
			values: map[string]any{"country": "UK"},
			want:   true,
		},
		{
			name:   "negated membership false",
			expr:   `{{not (or (eq country "US") (eq country "CA"))}}`,
			values: map[string]any{"country": "US"},
			want:   false,
		},
		{
			name:   "isEmpty on empty array",
			expr:   `{{isEmpty addresses}}`,
			values: map[string]any{"addresses": []any{}},
			want:   true,
		},
		{
			name:   "isEmpty on populated array",
			expr:   `{{isEmpty addresses}}`,
			values: map[string]any{"addresses": []any{map[string]any{}}},
			want:   false,
		},
		{
			name:   "isEmpty on zero",
			expr:   `{{isEmpty count}}`,
			values: map[string]any{"count": float64(0)},
			want:   false,
		},
		{
			name: "gte over array length met",
			expr: `{{gte addresses.length 5}}`,
			values: map[string]any{"addresses": []any{
				map[string]any{}, map[string]any{}, map[string]any{}, map[string]any{}, map[string]any{},
			}},
			want: true,
		},
		{
			name: "gte over array length not met",
			expr: `{{gte addresses.length 5}}`,
			values: map[string]any{"addresses": []any{
				map[string]any{}, map[string]any{}, map[string]any{}, map[string]any{},
			}},
			want: false,
		},
		{
			name:   "gte with non-numeric operand",
			expr:   `{{gte name 5}}`,
			values: map[string]any{"name": "Ada"},
			want:   false,
		},
		{
			name:   "and evaluates all operands",
			expr:   `{{and enabled confirmed}}`,
			values: map[string]any{"enabled": true, "confirmed": false},
			want:   false,
		},
		{
			name:   "unknown identifier is falsy",
			expr:   `{{missing}}`,
			values: map[string]any{},
			want:   false,
		},
		{
			name:    "unknown function degrades to false",
			expr:    `{{(shout name)}}`,
			values:  map[string]any{"name": "Ada"},
			want:    false,
			wantErr: true,
		},
		{
			name:    "unbalanced call degrades to false",
			expr:    `{{(eq country "US"}}`,
			values:  map[string]any{"country": "US"},
			want:    false,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EvalBool(tc.expr, Context{Values: tc.values})
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("EvalBool(%q) = %v, want %v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestEvalString_ValueInterpolation(t *testing.T) {
	ctx := Context{
		Values: map[string]any{"country": "US", "age": float64(42)},
		Case:   map[string]any{"segment": "pro"},
	}

	if got, err := EvalString("{{country}}", ctx); err != nil || got != "US" {
		t.Fatalf("country = %q, err %v", got, err)
	}
	if got, err := EvalString("{{age}}", ctx); err != nil || got != "42" {
		t.Fatalf("age = %q, err %v", got, err)
	}
	if got, err := EvalString("{{segment}}", ctx); err != nil || got != "pro" {
		t.Fatalf("case lookup = %q, err %v", got, err)
	}
	if got, err := EvalString("{{missing}}", ctx); err != nil || got != "" {
		t.Fatalf("missing should render empty, got %q, err %v", got, err)
	}
}

func TestInterpolate_URLTemplate(t *testing.T) {
	ctx := Context{Values: map[string]any{"country": "US", "state": "CA"}}

	got, err := Interpolate("/api/regions/{{country}}/cities?state={{state}}", ctx)
	if err != nil {
		t.Fatalf("interpolate: %v", err)
	}
	if got != "/api/regions/US/cities?state=CA" {
		t.Fatalf("interpolated URL = %q", got)
	}

	got, err = Interpolate("/api/{{missing}}/list", ctx)
	if err != nil {
		t.Fatalf("undefined segment should not error: %v", err)
	}
	if got != "/api//list" {
		t.Fatalf("undefined segment should render empty, got %q", got)
	}
}

func TestContext_Lookup(t *testing.T) {
	ctx := Context{
		Values: map[string]any{
			"profile": map[string]any{"name": "Ada"},
			"tags":    []string{"a", "b"},
		},
		Case: map[string]any{"segment": "pro"},
		Loop: &Loop{Index: 2, Last: true, Values: map[string]any{"street": "Main"}},
	}

	if v, ok := ctx.Lookup("profile.name"); !ok || v != "Ada" {
		t.Fatalf("dotted traversal = %v, %v", v, ok)
	}
	if v, ok := ctx.Lookup("formData.profile.name"); !ok || v != "Ada" {
		t.Fatalf("formData prefix = %v, %v", v, ok)
	}
	if v, ok := ctx.Lookup("tags.length"); !ok || v != 2 {
		t.Fatalf("length lookup = %v, %v", v, ok)
	}
	if v, ok := ctx.Lookup("@index"); !ok || v != 2 {
		t.Fatalf("@index = %v, %v", v, ok)
	}
	if v, ok := ctx.Lookup("@last"); !ok || v != true {
		t.Fatalf("@last = %v, %v", v, ok)
	}
	if v, ok := ctx.Lookup("street"); !ok || v != "Main" {
		t.Fatalf("loop value = %v, %v", v, ok)
	}
	if _, ok := ctx.Lookup("unknown"); ok {
		t.Fatalf("unknown identifier should miss")
	}
}
