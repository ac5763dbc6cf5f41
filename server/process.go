package server

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

// Agent is the conversational backend behind every channel adapter.
type Agent interface {
	Process(ctx context.Context, userID string, info contractx.UserInfo, history []contractx.Message, userText string) string
}

func timeoutReply(timeout time.Duration) string {
	return fmt.Sprintf(
		"The AI agent is taking too long to process your request (timeout after %ds). This might be due to a complex query or system issue. Please try a simpler question or try again later.",
		int(timeout.Seconds()),
	)
}

// runTurn races the agent against the turn deadline. A late result is
// discarded; the user gets the timeout reply instead of an open-ended wait.
func runTurn(ctx context.Context, agent Agent, timeout time.Duration, userID string, info contractx.UserInfo, history []contractx.Message, userText string) string {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	turnCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan string, 1)
	go func() {
		done <- agent.Process(turnCtx, userID, info, history, userText)
	}()

	select {
	case reply := <-done:
		return reply
	case <-turnCtx.Done():
		return timeoutReply(timeout)
	}
}
