package narrative

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoGoal      = errors.New("business goal is required")
	ErrUnknownGoal = errors.New("unknown business goal")
)

// Goal is one of the preset business goals offered by the dashboard
type Goal struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Goals in menu order
var Goals = []Goal{
	{Key: "sales", Label: "サイト経由の売上を増やす"},
	{Key: "inquiries", Label: "問い合わせ・資料請求を増やす"},
	{Key: "signup", Label: "会員登録を増やす"},
	{Key: "brand", Label: "ブランド認知を高める"},
	{Key: "recruiting", Label: "採用応募を増やす"},
}

// ResolveGoal returns the goal text: free text wins, otherwise the preset
// label for key
func ResolveGoal(key, text string) (string, error) {
	if text = strings.TrimSpace(text); text != "" {
		return text, nil
	}
	if key == "" {
		return "", ErrNoGoal
	}
	for _, g := range Goals {
		if g.Key == key {
			return g.Label, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownGoal, key)
}
