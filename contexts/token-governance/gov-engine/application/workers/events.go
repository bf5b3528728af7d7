package workers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"stakegov/contexts/token-governance/gov-engine/ports"
)

// DepositEvent mirrors the deposit hook payload carried on the token.deposit
// topic. Exactly one of Msg.Stake / Msg.CreatePoll is set.
type DepositEvent struct {
	Token  string     `json:"token"`
	Sender string     `json:"sender"`
	Amount uint64     `json:"amount"`
	Height uint64     `json:"height"`
	Msg    DepositMsg `json:"msg"`
}

type DepositMsg struct {
	Stake      *StakeMsg      `json:"stake,omitempty"`
	CreatePoll *CreatePollMsg `json:"create_poll,omitempty"`
}

type StakeMsg struct{}

type CreatePollMsg struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Link        string           `json:"link,omitempty"`
	ExecuteMsgs []ExecuteMsgItem `json:"execute_msgs,omitempty"`
}

type ExecuteMsgItem struct {
	Order    uint64          `json:"order"`
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
}

// decodePayload round-trips the envelope payload into a typed struct; the bus
// hands payloads over as decoded JSON values.
func decodePayload(event ports.EventEnvelope, out any) ([]byte, error) {
	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return raw, nil
}

func hashPayload(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
