package security

import (
	"strings"
	"testing"
)

// TestPlainText はHTMLタグが全て除去されることを検証する。
func TestPlainText(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま",
			input: "Caesar Salad",
			want:  "Caesar Salad",
		},
		{
			name:  "タグは除去される",
			input: "<b>Fish</b> & <i>Chips</i>",
			want:  "Fish & Chips",
		},
		{
			name:  "scriptは中身ごと除去される",
			input: "Great<script>alert('x')</script>",
			want:  "Great",
		},
		{
			name:  "前後の空白を除去",
			input: "  tasty  ",
			want:  "tasty",
		},
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestRichText は許可タグのみが残ることを検証する。
func TestRichText(t *testing.T) {
	sanitizer := NewTextSanitizer()

	got := sanitizer.RichText(`<p onclick="x()">Mix <strong>well</strong></p><iframe src="https://evil"></iframe><ul><li>egg</li></ul>`)

	for _, want := range []string{"<p>", "<strong>well</strong>", "<ul><li>egg</li></ul>"} {
		if !strings.Contains(got, want) {
			t.Errorf("RichText() = %q, should contain %q", got, want)
		}
	}
	for _, bad := range []string{"onclick", "iframe", "evil"} {
		if strings.Contains(got, bad) {
			t.Errorf("RichText() = %q, should not contain %q", got, bad)
		}
	}
}

// TestRichText_Idempotent は同一入力に対して同一出力を返すことを検証する。
func TestRichText_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()

	first := sanitizer.RichText("<p>a<br>b</p><em>c</em>")
	second := sanitizer.RichText(first)
	if first != second {
		t.Errorf("RichText not idempotent: %q != %q", first, second)
	}
}

func TestImageURL(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		input string
		want  string
	}{
		{"https://i.ibb.co/salad.jpg", "https://i.ibb.co/salad.jpg"},
		{"http://example.com/a.png", "http://example.com/a.png"},
		{"javascript:alert(1)", ""},
		{"data:image/png;base64,AAAA", ""},
		{"/relative.png", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizer.ImageURL(tt.input); got != tt.want {
			t.Errorf("ImageURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
