package jsonrpc

import (
	"encoding/json"
	"testing"
)

func TestResultResponseEncoding(t *testing.T) {
	resp, err := NewResultResponse(NewRequestID(2), nil)
	if err != nil {
		t.Fatalf("NewResultResponse: %v", err)
	}
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"jsonrpc":"2.0","result":null,"id":2}`; got != want {
		t.Fatalf("encoded = %s, want %s", got, want)
	}
}

func TestErrorResponseWithoutIDEncodesNull(t *testing.T) {
	resp := NewErrorResponse(nil, ErrorCodeParseError, "bad", nil)
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"jsonrpc":"2.0","error":{"code":-32700,"message":"bad"},"id":null}`; got != want {
		t.Fatalf("encoded = %s, want %s", got, want)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	var resp Response
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","result":{},"id":-12}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ID.IsNil() || resp.ID.Value() != -12 || resp.ID.String() != "-12" {
		t.Fatalf("unexpected id %#v", resp.ID)
	}

	var id RequestID
	if err := json.Unmarshal([]byte(`2147483647`), &id); err != nil || id.Value() != 2147483647 {
		t.Fatalf("unmarshal max id: %v, got %d", err, id.Value())
	}
	if err := json.Unmarshal([]byte(`2147483648`), &id); err == nil {
		t.Fatalf("expected error for id beyond int32")
	}
	if err := json.Unmarshal([]byte(`"abc"`), &id); err == nil {
		t.Fatalf("expected error for string id")
	}

	var nilID *RequestID
	if !nilID.IsNil() || nilID.String() != "" || nilID.Value() != 0 {
		t.Fatalf("nil id accessors misbehaved")
	}
}

func TestRequestEncodingOmitsAbsentID(t *testing.T) {
	b, err := json.Marshal(&Request{JSONRPCVersion: ProtocolVersion, Method: "exit"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"jsonrpc":"2.0","method":"exit"}`; got != want {
		t.Fatalf("encoded = %s, want %s", got, want)
	}

	// The encoded form must be readable by the extractor.
	msg, err := Extract(b)
	if err != nil || string(msg.Method) != "exit" || msg.HasID {
		t.Fatalf("extract = %+v, %v", msg, err)
	}
}
