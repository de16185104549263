package content

import (
	"strings"
	"testing"
)

func TestPrepareStripsHTML(t *testing.T) {
	html := `<html><head><title>Acme</title><style>body{color:red}</style></head>
	<body>
		<nav>Home | About</nav>
		<h1>Welcome to Acme</h1>
		<p>We are open Mon-Fri 9-17.</p>
		<script>trackVisit()</script>
		<footer>Copyright Acme</footer>
	</body></html>`

	text := Prepare(html, 0)

	if !strings.Contains(text, "We are open Mon-Fri 9-17.") {
		t.Errorf("expected body text preserved, got %q", text)
	}
	for _, removed := range []string{"trackVisit", "color:red", "Home | About", "Copyright"} {
		if strings.Contains(text, removed) {
			t.Errorf("expected %q stripped, got %q", removed, text)
		}
	}
}

func TestPreparePassesPlainTextThrough(t *testing.T) {
	text := Prepare("Plain   text\n\nwith   gaps.", 0)
	if text != "Plain text with gaps." {
		t.Errorf("expected collapsed whitespace, got %q", text)
	}
}

func TestPrepareTruncates(t *testing.T) {
	text := Prepare(strings.Repeat("a", 500), 100)
	if len(text) != 100 {
		t.Errorf("expected 100 chars, got %d", len(text))
	}
}

func TestTruncateRespectsRunes(t *testing.T) {
	text := Truncate("áéíóú", 3)
	if text != "áéí" {
		t.Errorf("expected rune-safe cut, got %q", text)
	}

	if got := Truncate("short", 100); got != "short" {
		t.Errorf("expected text under the limit untouched, got %q", got)
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Errorf("expected no limit for maxChars 0, got %q", got)
	}
}

func TestTitle(t *testing.T) {
	if got := Title(`<html><head><title>Acme Store</title></head><body></body></html>`); got != "Acme Store" {
		t.Errorf("expected title from <title>, got %q", got)
	}
	if got := Title(`<html><body><h1>Fallback Heading</h1></body></html>`); got != "Fallback Heading" {
		t.Errorf("expected fallback to h1, got %q", got)
	}
}
