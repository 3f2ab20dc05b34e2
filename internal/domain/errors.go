package domain

import "errors"

// ErrAPIKeyRequired возвращается, когда ключ провайдера не настроен.
// Это сигнал открыть настройки, а не баннер ошибки.
var ErrAPIKeyRequired = errors.New("не настроен API ключ провайдера")

// ErrNoActiveThread возвращается, когда активный тред не определён.
var ErrNoActiveThread = errors.New("не найден идентификатор треда")
