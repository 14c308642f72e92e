package command

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	separators := []string{"and", "then", ","}

	tests := []struct {
		name      string
		input     string
		want      []string
		wantMulti bool
	}{
		{
			name:  "single command",
			input: "take lamp",
			want:  []string{"take lamp"},
		},
		{
			name:      "and separator",
			input:     "open mailbox and take leaflet",
			want:      []string{"open mailbox", "take leaflet"},
			wantMulti: true,
		},
		{
			name:      "then separator",
			input:     "go north then go east",
			want:      []string{"go north", "go east"},
			wantMulti: true,
		},
		{
			name:      "comma without spaces",
			input:     "take lamp,go north",
			want:      []string{"take lamp", "go north"},
			wantMulti: true,
		},
		{
			name:      "mixed separators",
			input:     "open mailbox, take leaflet and read leaflet",
			want:      []string{"open mailbox", "take leaflet", "read leaflet"},
			wantMulti: true,
		},
		{
			name:      "leading and trailing separators drop empties",
			input:     "and take lamp then",
			want:      []string{"take lamp"},
			wantMulti: false,
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "only separators",
			input: "and then ,",
			want:  nil,
		},
		{
			// Splitting is textual: a separator word inside an object
			// name splits there too.
			name:      "separator inside object name",
			input:     "take bread and butter",
			want:      []string{"take bread", "butter"},
			wantMulti: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.input, separators)
			if !reflect.DeepEqual(got.Commands, tt.want) {
				t.Errorf("Split(%q).Commands = %v, want %v", tt.input, got.Commands, tt.want)
			}
			if got.IsMultiCommand != tt.wantMulti {
				t.Errorf("Split(%q).IsMultiCommand = %v, want %v", tt.input, got.IsMultiCommand, tt.wantMulti)
			}
		})
	}
}

func TestSplitPreservesOrder(t *testing.T) {
	got := Split("first and second and third and fourth", []string{"and"})
	want := []string{"first", "second", "third", "fourth"}
	if !reflect.DeepEqual(got.Commands, want) {
		t.Errorf("order not preserved: %v", got.Commands)
	}
}
