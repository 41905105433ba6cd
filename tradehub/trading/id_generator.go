package trading

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

const (
	tradeIDPrefix   = "T"
	tradeIDLength   = 8
	tradeIDAttempts = 5
)

// generateTradeID produces a short public identifier like "TK7F2QJXM".
// Collisions are unlikely at this length but checked against the store
// anyway.
func (m *Manager) generateTradeID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < tradeIDAttempts; attempt++ {
		raw := make([]byte, 8)
		if _, err := rand.Read(raw); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}

		encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
		id := tradeIDPrefix + strings.ToUpper(encoded[:tradeIDLength])

		exists, err := m.trades.TradeIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique trade id after %d attempts", tradeIDAttempts)
}
