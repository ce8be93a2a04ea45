package textutil

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"hello", 1, "…"},
		{"hello", 0, ""},
		{"日本語テキスト", 5, "日本…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if w := VisualWidth(Truncate(tt.in, tt.max)); w > tt.max && tt.max > 0 {
			t.Errorf("Truncate(%q, %d) width %d exceeds max", tt.in, tt.max, w)
		}
	}
}

func TestPadRightVisual(t *testing.T) {
	if got := PadRightVisual("ok", 5); got != "ok   " {
		t.Errorf("PadRightVisual = %q", got)
	}
	if got := PadRightVisual("日本", 6); VisualWidth(got) != 6 {
		t.Errorf("PadRightVisual wide = %q (width %d)", got, VisualWidth(got))
	}
	if got := PadRightVisual("running", 4); got != "run…" {
		t.Errorf("PadRightVisual truncates = %q", got)
	}
}
