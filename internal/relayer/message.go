package relayer

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// --- Custom JSON marshaling for field elements ---

// Scalar wraps big.Int so field elements travel as quoted decimal strings,
// which survive JSON number precision limits in non-Go clients.
type Scalar struct {
	*big.Int
}

// NewScalar wraps v for transport.
func NewScalar(v *big.Int) Scalar {
	return Scalar{new(big.Int).Set(v)}
}

// MarshalJSON implements the json.Marshaler interface.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.Int == nil {
		return []byte(`"0"`), nil
	}
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface. A JSON null
// leaves the value untouched, per the json.Unmarshaler convention; callers
// see the absent field as a nil Int.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid JSON string for Scalar")
	}
	v, ok := new(big.Int).SetString(string(data[1:len(data)-1]), 10)
	if !ok {
		return fmt.Errorf("invalid decimal scalar")
	}
	s.Int = v
	return nil
}

// Message is the generic envelope for requests sent to a relayer node.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// WithdrawRequestPayload carries a withdrawal a client asks the relayer to
// submit. The proof must be bound to exactly these public values, including
// the relayer's own address and fee from /info; the relayer checks the
// latter two before spending gas on submission.
type WithdrawRequestPayload struct {
	Proof         []byte `json:"proof"`
	Root          Scalar `json:"root"`
	NullifierHash Scalar `json:"nullifier_hash"`
	Recipient     Scalar `json:"recipient"`
	Relayer       Scalar `json:"relayer"`
	Fee           Scalar `json:"fee"`
}

// InfoResponse advertises the relayer's payout address and minimum fee.
type InfoResponse struct {
	ID      string `json:"id"`
	Address Scalar `json:"address"`
	MinFee  Scalar `json:"min_fee"`
}

// StatusResponse reports a nullifier hash's spend status.
type StatusResponse struct {
	Spent bool `json:"spent"`
}

// WithdrawResponse reports the outcome of a relayed withdrawal.
type WithdrawResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
