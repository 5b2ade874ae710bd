package jsonrpc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RequestID is the numeric identifier of a JSON-RPC request. A nil
// *RequestID marshals as JSON null, which is what error responses to
// unidentifiable messages carry.
type RequestID struct {
	value int32
}

// NewRequestID creates a RequestID from its numeric value.
func NewRequestID(value int32) *RequestID {
	return &RequestID{value: value}
}

// String returns the decimal representation of the ID, or "" when nil.
func (id *RequestID) String() string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(int64(id.value), 10)
}

// Value returns the underlying value.
func (id *RequestID) Value() int32 {
	if id == nil {
		return 0
	}
	return id.value
}

// IsNil returns true if the ID is absent.
func (id *RequestID) IsNil() bool {
	return id == nil
}

// MarshalJSON implements json.Marshaler
func (id *RequestID) MarshalJSON() ([]byte, error) {
	if id == nil {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(id.value), 10), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *RequestID) UnmarshalJSON(data []byte) error {
	var num int32
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("JSON-RPC ID must be a 32-bit integer, got: %s", string(data))
	}
	id.value = num
	return nil
}
