package analysis

import (
	"strings"
	"testing"

	"hn-distill/internal/domain"
)

func testThread() domain.NormalizedThread {
	return domain.NormalizedThread{
		ThreadID: "1",
		Title:    "Interesting thread",
		Comments: []domain.NormalizedComment{
			{ID: 2, Author: "x", Text: strings.Repeat("a", 50), Points: 5},
		},
	}
}

func TestBuildPromptEmbedsThread(t *testing.T) {
	prompt := BuildPrompt(testThread(), domain.Settings{Language: "en"})

	mustContain(t, prompt, "**Title:** Interesting thread")
	mustContain(t, prompt, strings.Repeat("a", 50))
	mustContain(t, prompt, "\"author\": \"x\"")
	mustContain(t, prompt, "Always answer in English.")
}

func TestBuildPromptRestoresFences(t *testing.T) {
	prompt := BuildPrompt(testThread(), domain.Settings{})

	mustContain(t, prompt, "```json")
	mustContain(t, prompt, "### `key_points` (3-6 bullets)")
	mustContain(t, prompt, "### `comment_refs`")
	if strings.Contains(prompt, "@@") {
		t.Fatalf("маркеры бэктиков не должны оставаться в промпте")
	}
}

func TestBuildPromptLanguageDirective(t *testing.T) {
	prompt := BuildPrompt(testThread(), domain.Settings{Language: "fr"})
	mustContain(t, prompt, "Always answer in French.")

	prompt = BuildPrompt(testThread(), domain.Settings{Language: "xx"})
	mustContain(t, prompt, "Always answer in English.")
}

func TestBuildPromptPersonalContext(t *testing.T) {
	withContext := BuildPrompt(testThread(), domain.Settings{PersonalContext: "data engineer into Rust"})
	mustContain(t, withContext, "## Reader Context")
	mustContain(t, withContext, "\"data engineer into Rust\"")

	withoutContext := BuildPrompt(testThread(), domain.Settings{})
	if strings.Contains(withoutContext, "## Reader Context") {
		t.Fatalf("не ожидали секцию контекста читателя без настройки")
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	settings := domain.Settings{Language: "de", PersonalContext: "ctx"}
	first := BuildPrompt(testThread(), settings)
	second := BuildPrompt(testThread(), settings)
	if first != second {
		t.Fatalf("ожидали байт-в-байт одинаковый промпт при одинаковых входах")
	}
}

func mustContain(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("ожидали найти подстроку %q", substr)
	}
}
