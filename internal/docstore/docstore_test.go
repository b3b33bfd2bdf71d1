package docstore

import "testing"

func TestItemCompleted(t *testing.T) {
	cases := []struct {
		name string
		item *Item
		want bool
	}{
		{"nil", nil, false},
		{"processing", &Item{Status: ItemStatusProcessing}, false},
		{"failed", &Item{Status: ItemStatusFailed}, false},
		{"completed", &Item{Status: ItemStatusCompleted}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.item.Completed(); got != tc.want {
				t.Fatalf("Completed() = %v, want %v", got, tc.want)
			}
		})
	}
}
