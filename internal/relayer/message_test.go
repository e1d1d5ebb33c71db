package relayer

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestScalarRoundTrip(t *testing.T) {
	in := NewScalar(new(big.Int).Lsh(big.NewInt(1), 200))
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"`+in.String()+`"` {
		t.Fatalf("expected quoted decimal, got %s", data)
	}

	var out Scalar
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Cmp(in.Int) != 0 {
		t.Errorf("round trip changed value: %s != %s", out, in)
	}
}

func TestScalarUnmarshalNull(t *testing.T) {
	// json null must be a no-op so handlers can detect absent fields as a
	// nil Int instead of getting a decode error for the whole payload.
	var s Scalar
	if err := json.Unmarshal([]byte("null"), &s); err != nil {
		t.Fatalf("null must not error: %v", err)
	}
	if s.Int != nil {
		t.Errorf("null must leave the value untouched, got %s", s)
	}

	var payload WithdrawRequestPayload
	if err := json.Unmarshal([]byte(`{"fee":"5","relayer":null}`), &payload); err != nil {
		t.Fatalf("payload with null field must decode: %v", err)
	}
	if payload.Relayer.Int != nil {
		t.Error("null relayer must decode as nil")
	}
	if payload.Fee.Int == nil || payload.Fee.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("fee = %s, want 5", payload.Fee)
	}
}

func TestScalarUnmarshalInvalid(t *testing.T) {
	for _, in := range []string{`42`, `"0x2a"`, `""`, `"not a number"`} {
		var s Scalar
		if err := json.Unmarshal([]byte(in), &s); err == nil {
			t.Errorf("input %s must be rejected", in)
		}
	}
}
