package hn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchParsesTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/123" {
			t.Errorf("неожиданный путь %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"id": 123,
			"title": "Thread",
			"children": [
				{"id": 1, "author": "a", "text": "root", "points": 7, "children": [
					{"id": 2, "author": "b", "text": "reply", "points": null, "children": []}
				]}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	thread, err := client.Fetch(context.Background(), "123")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if thread.ID.String() != "123" || thread.Title != "Thread" {
		t.Fatalf("неожиданный тред: %+v", thread)
	}
	if len(thread.Children) != 1 || len(thread.Children[0].Children) != 1 {
		t.Fatalf("ожидали вложенное дерево комментариев")
	}
	root := thread.Children[0]
	if root.Points == nil || *root.Points != 7 {
		t.Fatalf("ожидали points 7, получили %v", root.Points)
	}
	if root.Children[0].Points != nil {
		t.Fatalf("null points должен декодироваться в nil")
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Fetch(context.Background(), "123")
	if err == nil || !strings.Contains(err.Error(), "не удалось выгрузить тред") {
		t.Fatalf("ожидали ошибку выгрузки, получили %v", err)
	}
	if !strings.Contains(err.Error(), http.StatusText(http.StatusNotFound)) {
		t.Fatalf("ожидали текст статуса в ошибке, получили %v", err)
	}
}

func TestFetchEscapesThreadID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"id": 1, "title": "t", "children": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.Fetch(context.Background(), "a/b"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if gotPath != "/items/a%2Fb" {
		t.Fatalf("ожидали экранированный идентификатор, получили %q", gotPath)
	}
}
