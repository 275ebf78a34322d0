package agents

import (
	"errors"
	"time"
)

// StartingCash is the virtual balance every agent receives at registration
const StartingCash = 100000.0

// ErrAgentNotFound means the referenced agent does not exist
var ErrAgentNotFound = errors.New("agent not found")

// ErrDuplicateAgent means the secondme_id is already registered
var ErrDuplicateAgent = errors.New("agent already registered")

// Agent holds a competitor's identity and denormalized balances.
// Cash is authoritative; total_value is a cache recomputed after every
// trade and must not be trusted between recomputations.
type Agent struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SecondMeID string    `json:"secondme_id,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Cash       float64   `json:"cash"`
	TotalValue float64   `json:"total_value"`
	CreatedAt  time.Time `json:"created_at"`
}
