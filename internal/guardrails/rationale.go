package guardrails

import (
	"strings"

	"github.com/wso2/financial-recommendation-api/internal/recommendation/model"
)

// RequireRationale drops items that do not explain which signal produced them.
func RequireRationale(items []model.Item) Result {
	result := Result{Retained: make([]model.Item, 0, len(items))}
	for _, item := range items {
		if strings.TrimSpace(item.Rationale) != "" {
			result.Retained = append(result.Retained, item)
			continue
		}
		result.Dropped = append(result.Dropped, DroppedItem{
			ID:      item.ID,
			Title:   item.Title,
			Reasons: []string{"missing rationale"},
		})
	}
	return result
}
