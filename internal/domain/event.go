package domain

import "time"

// InteractionEvent records one dashboard control change and the views it
// caused to be recomputed.
type InteractionEvent struct {
	Control    string    `json:"control"`
	Value      string    `json:"value"`
	Views      []string  `json:"views"`
	OccurredAt time.Time `json:"occurred_at"`
}
