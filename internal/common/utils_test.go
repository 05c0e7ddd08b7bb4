package common

import (
	"reflect"
	"testing"
)

func TestHasAny(t *testing.T) {
	tests := []struct {
		s    string
		subs []string
		want bool
	}{
		{"request timeout", []string{"timeout"}, true},
		{"connection refused", []string{"timeout", "refused"}, true},
		{"boom", []string{"timeout"}, false},
		{"boom", nil, false},
		{"boom", []string{""}, false},
	}
	for _, tt := range tests {
		if got := HasAny(tt.s, tt.subs...); got != tt.want {
			t.Errorf("HasAny(%q, %v) = %v, want %v", tt.s, tt.subs, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"서울,부산", []string{"서울", "부산"}},
		{" 서울 , , 부산 ", []string{"서울", "부산"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
