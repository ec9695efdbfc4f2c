package notify

import "testing"

func TestRenderer_Default(t *testing.T) {
	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "all fields",
			msg:  Message{Username: "Rahim", PlaceName: "Ratargul", ReviewTitle: "Lovely swamp"},
			want: `Rahim reacted to your review "Lovely swamp" of Ratargul`,
		},
		{
			name: "missing names fall back",
			msg:  Message{ReviewTitle: "Ok"},
			want: `Someone reacted to your review "Ok" of a place`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(tt.msg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderer_Custom(t *testing.T) {
	r, err := NewRenderer(`{{ .Username | upper }} @ {{ .PlaceName }}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := r.Render(Message{Username: "rahim", PlaceName: "Lalbagh"})
	if got != "RAHIM @ Lalbagh" {
		t.Errorf("got %q", got)
	}
}

func TestNewRenderer_BadTemplate(t *testing.T) {
	if _, err := NewRenderer("{{ .Username "); err == nil {
		t.Error("expected parse error")
	}
}
