package sanitize

import (
	"strings"
	"testing"
)

func TestHTML_StripsScriptTags(t *testing.T) {
	input := `<p>Hello</p><script>alert('xss')</script>`
	got := HTML(input)

	if strings.Contains(got, "<script") || strings.Contains(got, "alert") {
		t.Errorf("script content survived sanitization: %q", got)
	}
	if !strings.Contains(got, "<p>Hello</p>") {
		t.Errorf("safe markup was removed: %q", got)
	}
}

func TestHTML_StripsEventHandlers(t *testing.T) {
	got := HTML(`<p onclick="steal()">text</p>`)
	if strings.Contains(got, "onclick") {
		t.Errorf("event handler survived sanitization: %q", got)
	}
}

func TestHTML_StripsJavascriptURLs(t *testing.T) {
	got := HTML(`<a href="javascript:alert(1)">link</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("javascript: URL survived sanitization: %q", got)
	}
}

func TestHTML_PreservesMentionAttributes(t *testing.T) {
	input := `<a href="/entities/abc" data-mention-id="abc" data-entity-preview="true">Aldric</a>`
	got := HTML(input)

	if !strings.Contains(got, `data-mention-id="abc"`) {
		t.Errorf("data-mention-id stripped: %q", got)
	}
	if !strings.Contains(got, `data-entity-preview="true"`) {
		t.Errorf("data-entity-preview stripped: %q", got)
	}
}

func TestHTML_PreservesSecretSpans(t *testing.T) {
	input := `<p>The mayor <span data-secret="true">is a vampire</span>.</p>`
	got := HTML(input)

	if !strings.Contains(got, "data-secret") {
		t.Errorf("data-secret attribute stripped: %q", got)
	}
	if !strings.Contains(got, "is a vampire") {
		t.Errorf("secret text removed by sanitizer (stripping is StripSecretsHTML's job): %q", got)
	}
}

func TestHTML_PreservesTables(t *testing.T) {
	input := `<table><tr><td colspan="2">cell</td></tr></table>`
	got := HTML(input)

	if !strings.Contains(got, "<table>") || !strings.Contains(got, `colspan="2"`) {
		t.Errorf("table markup was removed: %q", got)
	}
}

func TestHTML_Empty(t *testing.T) {
	if got := HTML(""); got != "" {
		t.Errorf("HTML(\"\") = %q, want empty", got)
	}
}

func TestStripSecretsHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "single secret span",
			input: `<p>The mayor <span data-secret="true">is a vampire</span>greets you.</p>`,
			want:  `<p>The mayor greets you.</p>`,
		},
		{
			name:  "multiple secret spans",
			input: `<p><span data-secret="true">one</span>keep<span data-secret="true">two</span></p>`,
			want:  `<p>keep</p>`,
		},
		{
			name:  "span without data-secret survives",
			input: `<p><span class="highlight">visible</span></p>`,
			want:  `<p><span class="highlight">visible</span></p>`,
		},
		{
			name:  "no markup",
			input: "plain text",
			want:  "plain text",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripSecretsHTML(tt.input); got != tt.want {
				t.Errorf("StripSecretsHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
