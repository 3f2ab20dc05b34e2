package analysis

import (
	"unicode/utf8"

	"hn-distill/internal/domain"
)

const (
	// minCommentLength отсекает слишком короткие комментарии (в рунах).
	minCommentLength = 40
	// maxComments ограничивает тред, чтобы не упереться в лимит токенов.
	maxComments = 500
	// untitledFallback заголовок треда без названия.
	untitledFallback = "Untitled"
)

// NormalizeThread превращает дерево комментариев в плоский,
// отфильтрованный и ограниченный список. Порядок — обход дерева в
// глубину: родитель раньше своих ответов, ответы в исходном порядке.
// Чистая функция, ошибок не бывает: тред без комментариев даёт
// пустой список.
func NormalizeThread(threadID string, raw domain.RawThread) domain.NormalizedThread {
	flat := flattenComments(raw.Children, nil)

	filtered := make([]*domain.RawComment, 0, len(flat))
	for _, c := range flat {
		if c.Text == "" || utf8.RuneCountInString(c.Text) < minCommentLength {
			continue
		}
		if c.Deleted || c.Dead {
			continue
		}
		filtered = append(filtered, c)
	}

	// Без пересортировки: берём первые по порядку обхода.
	if len(filtered) > maxComments {
		filtered = filtered[:maxComments]
	}

	comments := make([]domain.NormalizedComment, 0, len(filtered))
	for _, c := range filtered {
		points := 0
		if c.Points != nil && *c.Points > 0 {
			points = *c.Points
		}
		comments = append(comments, domain.NormalizedComment{
			ID:     c.ID,
			Author: c.Author,
			Text:   c.Text,
			Points: points,
		})
	}

	title := raw.Title
	if title == "" {
		title = untitledFallback
	}

	return domain.NormalizedThread{
		ThreadID: threadID,
		Title:    title,
		Comments: comments,
	}
}

func flattenComments(nodes []*domain.RawComment, out []*domain.RawComment) []*domain.RawComment {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		out = append(out, node)
		if len(node.Children) > 0 {
			out = flattenComments(node.Children, out)
		}
	}
	return out
}
