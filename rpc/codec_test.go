package rpc_test

import (
	"strings"
	"testing"

	"github.com/tailored-agentic-units/intake/rpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

type payload struct {
	SessionID string `json:"session_id"`
	Count     int    `json:"count"`
}

func TestCodec_Name(t *testing.T) {
	if got := (rpc.Codec{}).Name(); got != "json" {
		t.Errorf("Name() = %q, want %q", got, "json")
	}
}

func TestCodec_PlainStruct(t *testing.T) {
	c := rpc.Codec{}

	data, err := c.Marshal(&payload{SessionID: "s1", Count: 2})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"session_id":"s1"`) {
		t.Errorf("Marshal() = %s, want snake_case field", data)
	}

	var out payload
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.SessionID != "s1" || out.Count != 2 {
		t.Errorf("Unmarshal() = %+v", out)
	}
}

func TestCodec_ProtoMessage(t *testing.T) {
	c := rpc.Codec{}

	data, err := c.Marshal(&emptypb.Empty{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Marshal(Empty) = %s, want {}", data)
	}

	var out emptypb.Empty
	if err := c.Unmarshal([]byte(`{"ignored":true}`), &out); err != nil {
		t.Errorf("Unmarshal() with unknown field error = %v", err)
	}
}

func TestCodec_EmptyBody(t *testing.T) {
	c := rpc.Codec{}

	var e emptypb.Empty
	if err := c.Unmarshal(nil, &e); err != nil {
		t.Errorf("Unmarshal(nil, Empty) error = %v", err)
	}
	var p payload
	if err := c.Unmarshal(nil, &p); err != nil {
		t.Errorf("Unmarshal(nil, struct) error = %v", err)
	}
}
