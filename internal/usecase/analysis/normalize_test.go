package analysis

import (
	"strings"
	"testing"

	"hn-distill/internal/domain"
)

func longText(n int) string {
	return strings.Repeat("a", n)
}

func comment(id int64, text string, children ...*domain.RawComment) *domain.RawComment {
	return &domain.RawComment{ID: id, Author: "user", Text: text, Children: children}
}

func TestNormalizePreOrder(t *testing.T) {
	// Дерево A[B[D,E],C]: родитель раньше ответов, ответы в исходном порядке.
	raw := domain.RawThread{
		Title: "T",
		Children: []*domain.RawComment{
			comment(1, longText(50),
				comment(2, longText(50),
					comment(4, longText(50)),
					comment(5, longText(50)),
				),
				comment(3, longText(50)),
			),
		},
	}

	thread := NormalizeThread("42", raw)

	want := []int64{1, 2, 4, 5, 3}
	if len(thread.Comments) != len(want) {
		t.Fatalf("ожидали %d комментариев, получили %d", len(want), len(thread.Comments))
	}
	for i, id := range want {
		if thread.Comments[i].ID != id {
			t.Fatalf("ожидали на позиции %d комментарий %d, получили %d", i, id, thread.Comments[i].ID)
		}
	}
}

func TestNormalizeLengthBoundary(t *testing.T) {
	raw := domain.RawThread{
		Title: "T",
		Children: []*domain.RawComment{
			comment(1, longText(39)),
			comment(2, longText(40)),
		},
	}

	thread := NormalizeThread("42", raw)

	if len(thread.Comments) != 1 {
		t.Fatalf("ожидали 1 комментарий, получили %d", len(thread.Comments))
	}
	if thread.Comments[0].ID != 2 {
		t.Fatalf("ожидали, что останется комментарий из 40 символов")
	}
}

func TestNormalizeDropsDeletedDeadAndEmpty(t *testing.T) {
	deleted := comment(1, longText(50))
	deleted.Deleted = true
	dead := comment(2, longText(50))
	dead.Dead = true

	raw := domain.RawThread{
		Title: "T",
		Children: []*domain.RawComment{
			deleted,
			dead,
			comment(3, ""),
			nil,
			comment(4, longText(50)),
		},
	}

	thread := NormalizeThread("42", raw)

	if len(thread.Comments) != 1 || thread.Comments[0].ID != 4 {
		t.Fatalf("ожидали только живой комментарий 4, получили %+v", thread.Comments)
	}
}

func TestNormalizeCap(t *testing.T) {
	var children []*domain.RawComment
	for i := 1; i <= 600; i++ {
		children = append(children, comment(int64(i), longText(50)))
	}
	raw := domain.RawThread{Title: "T", Children: children}

	thread := NormalizeThread("42", raw)

	if len(thread.Comments) != maxComments {
		t.Fatalf("ожидали ровно %d комментариев, получили %d", maxComments, len(thread.Comments))
	}
	if thread.Comments[0].ID != 1 || thread.Comments[maxComments-1].ID != int64(maxComments) {
		t.Fatalf("ожидали первые %d комментариев в порядке обхода", maxComments)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	negative := -2
	withNegative := comment(1, longText(50))
	withNegative.Points = &negative
	five := 5
	withPoints := comment(2, longText(50))
	withPoints.Points = &five

	raw := domain.RawThread{Children: []*domain.RawComment{withNegative, withPoints}}

	thread := NormalizeThread("42", raw)

	if thread.Title != "Untitled" {
		t.Fatalf("ожидали заголовок по умолчанию, получили %q", thread.Title)
	}
	if thread.ThreadID != "42" {
		t.Fatalf("ожидали проброс идентификатора треда")
	}
	if thread.Comments[0].Points != 0 {
		t.Fatalf("ожидали 0 очков вместо отрицательных, получили %d", thread.Comments[0].Points)
	}
	if thread.Comments[1].Points != 5 {
		t.Fatalf("ожидали 5 очков, получили %d", thread.Comments[1].Points)
	}
}

func TestNormalizeEmptyThread(t *testing.T) {
	thread := NormalizeThread("42", domain.RawThread{Title: "T"})

	if thread.Comments == nil || len(thread.Comments) != 0 {
		t.Fatalf("ожидали пустой непустой-nil список комментариев")
	}
}
