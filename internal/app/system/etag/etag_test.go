package etag

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"abc123"`, "abc123"},
		{`W/"abc123"`, "abc123"},
		{`w/"abc123"`, "abc123"},
		{`abc123`, "abc123"},
		{`  "abc123"  `, "abc123"},
		{`""`, ""},
		{``, ""},
		{`W/""`, ""},
		{`"d41d8cd98f00b204e9800998ecf8427e-2"`, "d41d8cd98f00b204e9800998ecf8427e-2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	if got := Quote("abc"); got != `"abc"` {
		t.Errorf("Quote(abc) = %q, want %q", got, `"abc"`)
	}
	if got := Quote(""); got != "" {
		t.Errorf("Quote(\"\") = %q, want empty", got)
	}
	if got := Normalize(Quote("abc")); got != "abc" {
		t.Errorf("Normalize(Quote(abc)) = %q, want abc", got)
	}
}

func TestCompute(t *testing.T) {
	a := Compute([]byte(`{"a":1}`))
	b := Compute([]byte(`{"a":1}`))
	c := Compute([]byte(`{"a":2}`))
	if a != b {
		t.Errorf("Compute not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("Compute collided for different bodies")
	}
	if len(a) != 64 {
		t.Errorf("len(Compute()) = %d, want 64", len(a))
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		header string
		token  string
		want   bool
	}{
		{`"abc"`, "abc", true},
		{`W/"abc"`, "abc", true},
		{`"x", "abc"`, "abc", true},
		{`*`, "abc", true},
		{`"x"`, "abc", false},
		{``, "abc", false},
		{`*`, "", false},
	}
	for _, tt := range tests {
		if got := Match(tt.header, tt.token); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.header, tt.token, got, tt.want)
		}
	}
}
