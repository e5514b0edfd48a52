// SPDX-License-Identifier: MPL-2.0

package filter

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestFilter_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter Filter
		value  string
		want   bool
	}{
		{"empty_matches_all", nil, "production", true},
		{"include_exact", Filter{"production"}, "production", true},
		{"include_miss", Filter{"production"}, "staging", false},
		{"include_any", Filter{"dev*", "staging"}, "staging", true},
		{"include_glob", Filter{"dev*"}, "development", true},
		{"include_case_sensitive", Filter{"Production"}, "production", false},
		{"exclude_hit", Filter{"!", "production"}, "production", false},
		{"exclude_miss", Filter{"!", "production"}, "staging", true},
		{"exclude_any", Filter{"!", "a*", "b*"}, "beta", false},
		{"marker_alone_matches_all", Filter{"!"}, "anything", true},
		{"marker_not_first_is_literal", Filter{"production", "!"}, "staging", false},
		{"question_mark", Filter{"env?"}, "env1", true},
		{"class", Filter{"env[0-9]"}, "envx", false},
		{"star_crosses_slash", Filter{"feature*"}, "feature/x", true},
		{"star_alone_crosses_slash", Filter{"*"}, "feature/x", true},
		{"exclude_crosses_slash", Filter{"!", "feature*"}, "feature/x", false},
		{"question_mark_matches_slash", Filter{"feature?x"}, "feature/x", true},
		{"negated_class", Filter{"env[!0-9]"}, "envx", true},
		{"braces_are_literal", Filter{"{a,b}"}, "a", false},
		{"braces_literal_match", Filter{"{a,b}"}, "{a,b}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.filter.Match(tt.value); got != tt.want {
				t.Errorf("Filter(%v).Match(%q) = %v, want %v", tt.filter, tt.value, got, tt.want)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	got := Filter{"!", "staging"}.Apply([]string{"production", "staging", "testing"})
	if len(got) != 2 || got[0] != "production" || got[1] != "testing" {
		t.Errorf("Apply() = %v, want [production testing]", got)
	}
}

func TestFilter_Validate(t *testing.T) {
	t.Parallel()

	if err := (Filter{"!", "ok*"}).Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	err := Filter{"bad["}.Validate()
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("Validate() = %v, want ErrInvalidPattern", err)
	}
}

var nameGen = rapid.StringMatching(`[a-z][a-z0-9_]{0,11}`)

func TestFilter_Laws(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		x := nameGen.Draw(rt, "x")
		p1 := nameGen.Draw(rt, "p1")
		p2 := nameGen.Draw(rt, "p2")

		if !Filter(nil).Match(x) {
			rt.Fatalf("empty filter rejected %q", x)
		}

		include := Filter{p1, p2}.Match(x)
		if include != (x == p1 || x == p2) {
			rt.Fatalf("include filter [%s %s] on %q = %v", p1, p2, x, include)
		}

		exclude := Filter{ExcludeMarker, p1, p2}.Match(x)
		if exclude != (x != p1 && x != p2) {
			rt.Fatalf("exclude filter [! %s %s] on %q = %v", p1, p2, x, exclude)
		}
	})
}
