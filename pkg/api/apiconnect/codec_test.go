package apiconnect

import (
	"strings"
	"testing"

	"github.com/mmynk/groupledger/pkg/api"
)

func TestCodec(t *testing.T) {
	codec := Codec{}
	if codec.Name() != "json" {
		t.Errorf("expected codec name json, got %s", codec.Name())
	}

	data, err := codec.Marshal(&api.RecordPaymentRequest{GroupId: "g1", ToUserId: "u2"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if got := string(data); got != `{"groupId":"g1","toUserId":"u2"}` {
		t.Errorf("unexpected wire format: %s", got)
	}

	var resp api.SettleDebtsResponse
	if err := codec.Unmarshal([]byte(`{"batchId":"b1","applied":2,"noDebtsFound":false}`), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if resp.BatchId != "b1" || resp.Applied != 2 {
		t.Errorf("unexpected message: %+v", resp)
	}

	var empty api.ListGroupsRequest
	if err := codec.Unmarshal(nil, &empty); err != nil {
		t.Errorf("empty body should decode, got %v", err)
	}

	if err := codec.Unmarshal([]byte(`{"groupId":`), &resp); err == nil || !strings.Contains(err.Error(), "unexpected end") {
		t.Errorf("expected a decode error, got %v", err)
	}
}
