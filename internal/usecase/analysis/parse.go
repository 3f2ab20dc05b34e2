package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"hn-distill/internal/domain"
)

// ParseResponse извлекает AnalysisResult из текста ответа модели.
// Модель иногда оборачивает JSON в markdown-ограждение, несмотря на
// промпт: тогда первая и последняя строки отбрасываются. Схема сверх
// валидного JSON не проверяется — отсутствующие опциональные поля
// переносятся потребителями.
func ParseResponse(rawResponse string) (domain.AnalysisResult, error) {
	jsonText := strings.TrimSpace(rawResponse)

	if strings.HasPrefix(jsonText, "```") {
		lines := strings.Split(jsonText, "\n")
		if len(lines) >= 2 {
			lines = lines[1 : len(lines)-1]
		}
		jsonText = strings.Join(lines, "\n")
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("не удалось разобрать ответ модели как JSON: %w", err)
	}
	return result, nil
}
