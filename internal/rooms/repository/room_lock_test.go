package repository

import (
	"reflect"
	"testing"
)

func TestLockOrder(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "single", in: []string{"b"}, want: []string{"b"}},
		{name: "sorted and deduped", in: []string{"c", "a", "c", "b"}, want: []string{"a", "b", "c"}},
		{name: "drops empty ids", in: []string{"", "a", ""}, want: []string{"a"}},
		{name: "empty", in: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LockOrder(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LockOrder(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
