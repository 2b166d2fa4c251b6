package provision

import (
	"encoding/json"
	"testing"
)

func TestDescriptorsJSONShape(t *testing.T) {
	cfg := TrunkConfig{TrunkName: "Acme", SIPURI: "sip:x", PhoneNumber: "+15551234567"}

	b, err := json.Marshal(NewInboundTrunkDescriptor(cfg))
	if err != nil {
		t.Fatalf("marshal inbound: %v", err)
	}
	if want := `{"trunk":{"name":"Inbound Acme","numbers":["+15551234567"]}}`; string(b) != want {
		t.Fatalf("inbound descriptor:\n got %s\nwant %s", b, want)
	}

	b, err = json.Marshal(NewDispatchRuleDescriptor(cfg, "ST_abc"))
	if err != nil {
		t.Fatalf("marshal rule: %v", err)
	}
	want := `{"name":"Inbound Acme Dispatch Rule","trunk_ids":["ST_abc"],"rule":{"dispatchRuleIndividual":{"roomPrefix":"call-"}}}`
	if string(b) != want {
		t.Fatalf("dispatch descriptor:\n got %s\nwant %s", b, want)
	}
}
