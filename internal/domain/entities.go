package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// RawComment описывает комментарий дерева Algolia со вложенными ответами.
type RawComment struct {
	ID       int64         `json:"id"`
	Author   string        `json:"author"`
	Text     string        `json:"text"`
	Points   *int          `json:"points"`
	Deleted  bool          `json:"deleted"`
	Dead     bool          `json:"dead"`
	Children []*RawComment `json:"children"`
}

// RawThread представляет сырой ответ Algolia items API.
type RawThread struct {
	ID       json.Number   `json:"id"`
	Title    string        `json:"title"`
	Children []*RawComment `json:"children"`
}

// NormalizedComment это плоский комментарий после фильтрации.
type NormalizedComment struct {
	ID     int64  `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
	Points int    `json:"points"`
}

// NormalizedThread содержит тред после нормализации: плоский,
// отфильтрованный и ограниченный по размеру список комментариев.
type NormalizedThread struct {
	ThreadID string              `json:"thread_id"`
	Title    string              `json:"title"`
	Comments []NormalizedComment `json:"comments"`
}

// Settings хранит пользовательские настройки анализа.
type Settings struct {
	APIKey          string
	Language        string
	PersonalContext string
}

// GlobalSummary содержит основные выводы по всему треду.
type GlobalSummary struct {
	KeyLearnings []string `json:"key_learnings"`
}

// CriticalThinking содержит блок критического осмысления треда.
// Все поля опциональны: модель может вернуть любое подмножество.
type CriticalThinking struct {
	WhatBreaksThis    string `json:"what_breaks_this,omitempty"`
	NonObviousTruth   string `json:"non_obvious_truth,omitempty"`
	HiddenAssumptions string `json:"hidden_assumptions,omitempty"`
	NewBottleneck     string `json:"new_bottleneck,omitempty"`
	LeveragePoint     string `json:"leverage_point,omitempty"`
}

// GlossaryEntry описывает термин глоссария темы.
type GlossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// ThemeLink это ссылка, извлечённая моделью из комментариев.
type ThemeLink struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// Theme описывает один тематический кластер обсуждения.
type Theme struct {
	ThemeID      string          `json:"theme_id"`
	Title        string          `json:"title"`
	WhyItMatters string          `json:"why_it_matters"`
	KeyPoints    []string        `json:"key_points"`
	Glossary     []GlossaryEntry `json:"glossary,omitempty"`
	BeyondBasic  []string        `json:"beyond_basic,omitempty"`
	Links        []ThemeLink     `json:"links,omitempty"`
	// Модель иногда возвращает идентификаторы строками,
	// поэтому декодируем их терпимо через json.Number.
	CommentRefs []json.Number `json:"comment_refs,omitempty"`
}

// RefIDs возвращает валидные идентификаторы комментариев темы.
// Непарсящиеся значения пропускаются, висячие ссылки не проверяются.
func (t Theme) RefIDs() []int64 {
	ids := make([]int64, 0, len(t.CommentRefs))
	for _, ref := range t.CommentRefs {
		id, err := ref.Int64()
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// AnalysisResult это распарсенный ответ модели. Схема запрошена промптом,
// но не гарантирована: потребители обязаны переносить пустые поля.
type AnalysisResult struct {
	GlobalSummary    GlobalSummary     `json:"global_summary"`
	CriticalThinking *CriticalThinking `json:"critical_thinking,omitempty"`
	Themes           []Theme           `json:"themes"`
}

// ThreadState описывает состояние записи кэша треда.
type ThreadState string

const (
	// StateAnalyzing тред в процессе анализа.
	StateAnalyzing ThreadState = "analyzing"
	// StateCompleted анализ завершён успешно.
	StateCompleted ThreadState = "completed"
	// StateError анализ завершился ошибкой.
	StateError ThreadState = "error"
)

// ThreadEntry это запись кэша для одного треда. Живёт только в памяти
// на время сессии панели.
type ThreadEntry struct {
	State  ThreadState
	Thread *NormalizedThread
	Result *AnalysisResult
	Error  string
}

// AnalysisRecord это строка журнала завершённых анализов.
type AnalysisRecord struct {
	ID        int64
	ThreadID  string
	Title     string
	Result    AnalysisResult
	CreatedAt time.Time
}

// AnthropicKeyPrefix определяет маршрутизацию ключа на Anthropic.
const AnthropicKeyPrefix = "sk-ant-"

// IsAnthropicKey сообщает, маршрутизируется ли ключ на Anthropic.
// Любой другой непустой ключ уходит в OpenAI-совместимый клиент.
func IsAnthropicKey(apiKey string) bool {
	return strings.HasPrefix(apiKey, AnthropicKeyPrefix)
}
