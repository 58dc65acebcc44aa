package catalogevents

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	EventProductDeleted = "product.deleted"

	attrEventType = "eventType"
	attrProductID = "productId"
)

type productEvent struct {
	ProductID int64 `json:"product_id"`
}

// productIDFrom reads the product id from the JSON payload, falling back to
// the productId attribute when the body is empty.
func productIDFrom(data []byte, attrs map[string]string) (int64, error) {
	if len(data) > 0 {
		payload := decodePayload(data)
		var event productEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return 0, fmt.Errorf("decode payload: %w", err)
		}
		if event.ProductID > 0 {
			return event.ProductID, nil
		}
	}
	raw := strings.TrimSpace(attrs[attrProductID])
	if raw == "" {
		return 0, fmt.Errorf("product id missing")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

func decodePayload(data []byte) []byte {
	if decoded, err := base64.StdEncoding.DecodeString(string(data)); err == nil {
		return decoded
	}
	return data
}

func previewBytes(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "...(truncated)"
}
