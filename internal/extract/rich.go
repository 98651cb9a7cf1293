package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

func extractRich(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract rich text: %w", err)
	}
	return text, nil
}
