// services/balance_stream.go
package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// StreamBalanceSSE pushes a "balance" event whenever the authenticated
// user's endolots change.
func (s *ProfileService) StreamBalanceSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		last := int64(-1)
		send := func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			balance, err := s.Balance(ctx, userID)
			cancel()
			if err != nil {
				log.Printf("[SSE] Balance read failed for %s: %v", userID, err)
				return true
			}
			if balance == last {
				return true
			}
			last = balance
			payload, _ := json.Marshal(fiber.Map{"endolots": balance})
			fmt.Fprintf(w, "event: balance\ndata: %s\n\n", payload)
			// Flush fails once the client is gone.
			return w.Flush() == nil
		}

		w.WriteString(":\n\n")
		if w.Flush() != nil || !send() {
			return
		}
		for {
			select {
			case <-ticker.C:
				if !send() {
					return
				}
			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}
