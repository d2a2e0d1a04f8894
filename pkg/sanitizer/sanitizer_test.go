package sanitizer

import (
	"reflect"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Dana   Levi ", "Dana Levi"},
		{"\tline\none", "line one"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := TrimAndNormalize(tt.input); got != tt.want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Admin@Example.COM "); got != "admin@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestNormalizeSkills(t *testing.T) {
	got := NormalizeSkills([]string{" Plumbing", "", "electrical  work", "plumbing", "  ,"})
	want := []string{"Plumbing", "electrical work"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeSkills() = %v, want %v", got, want)
	}
}

func TestNormalizeSkills_Empty(t *testing.T) {
	if got := NormalizeSkills(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSplitSkills(t *testing.T) {
	got := SplitSkills("AC repair, plumbing,, Painting ")
	want := []string{"AC repair", "plumbing", "Painting"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitSkills() = %v, want %v", got, want)
	}
}

func TestPipeline_AppliesInOrder(t *testing.T) {
	p := Pipeline{
		func(s string) string { return s + "a" },
		func(s string) string { return s + "b" },
	}
	if got := p.Apply("x"); got != "xab" {
		t.Errorf("Apply() = %q, want %q", got, "xab")
	}
}
