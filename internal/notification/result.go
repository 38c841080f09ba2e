package notification

import "time"

// DeliveryResult is the outcome of one send attempt through one provider.
// Exactly one of MessageID and ErrorMessage is populated, gated by Success.
// DurationMS covers the whole attempt, failure paths included.
type DeliveryResult struct {
	Success      bool    `json:"success"`
	Provider     string  `json:"provider"`
	MessageID    string  `json:"message_id,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
	DurationMS   int64   `json:"duration_ms"`
	// Cost is the monetary or quota cost of the attempt in a
	// provider-defined unit. Zero when the provider does not report one.
	Cost float64 `json:"cost"`
}

// Succeeded builds a successful result attributed to the given provider.
func Succeeded(provider, messageID string, elapsed time.Duration) DeliveryResult {
	return DeliveryResult{
		Success:    true,
		Provider:   provider,
		MessageID:  messageID,
		DurationMS: elapsed.Milliseconds(),
	}
}

// Failed builds a failed result, preserving the transport's error detail.
func Failed(provider string, elapsed time.Duration, reason string) DeliveryResult {
	return DeliveryResult{
		Provider:     provider,
		ErrorMessage: reason,
		DurationMS:   elapsed.Milliseconds(),
	}
}
