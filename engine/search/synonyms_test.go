package search

import (
	"reflect"
	"testing"
)

func TestExpandKeywords(t *testing.T) {
	tests := []struct {
		hint string
		want []string
	}{
		{"couch", []string{"couch", "sofa"}},
		{"sofa", []string{"sofa", "couch"}},
		{"cup", []string{"cup", "mug"}},
		// The reverse mapping intentionally does not exist.
		{"mug", []string{"mug"}},
		{"Lamp", []string{"lamp"}},
		{"  CHAIR  ", []string{"chair"}},
		{"", nil},
		{"   ", nil},
	}
	for _, tt := range tests {
		got := expandKeywords(tt.hint)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("expandKeywords(%q) = %v, want %v", tt.hint, got, tt.want)
		}
	}
}

func TestNameMatches(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		want     bool
	}{
		{"Velvet Sofa 3-Seater", []string{"couch", "sofa"}, true},
		{"VELVET SOFA", []string{"sofa"}, true},
		{"Coffee Mug Set", []string{"cup", "mug"}, true},
		{"Garden Gnome", []string{"couch", "sofa"}, false},
		{"Anything", nil, false},
	}
	for _, tt := range tests {
		if got := nameMatches(tt.name, tt.keywords); got != tt.want {
			t.Errorf("nameMatches(%q, %v) = %v, want %v", tt.name, tt.keywords, got, tt.want)
		}
	}
}
