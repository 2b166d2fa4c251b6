package telephony

import (
	"context"
	"errors"
	"testing"

	"agent-platform/internal/config"
	"agent-platform/internal/provision"

	twilioclient "github.com/twilio/twilio-go/client"
	trunking "github.com/twilio/twilio-go/rest/trunking/v1"
)

type fakeTrunkingAPI struct {
	trunks    []trunking.TrunkingV1Trunk
	createErr error

	lastCreate *trunking.CreateTrunkParams
	lastOrigin *trunking.CreateOriginationUrlParams
	originSID  string
}

func (f *fakeTrunkingAPI) ListTrunk(params *trunking.ListTrunkParams) ([]trunking.TrunkingV1Trunk, error) {
	return f.trunks, nil
}

func (f *fakeTrunkingAPI) CreateTrunk(params *trunking.CreateTrunkParams) (*trunking.TrunkingV1Trunk, error) {
	f.lastCreate = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	sid := "TK123"
	return &trunking.TrunkingV1Trunk{Sid: &sid, FriendlyName: params.FriendlyName, DomainName: params.DomainName}, nil
}

func (f *fakeTrunkingAPI) CreateOriginationUrl(trunkSid string, params *trunking.CreateOriginationUrlParams) (*trunking.TrunkingV1OriginationUrl, error) {
	f.originSID = trunkSid
	f.lastOrigin = params
	return &trunking.TrunkingV1OriginationUrl{}, nil
}

func strp(s string) *string { return &s }

func TestTwilioTrunking_ImplementsCarrierClient(t *testing.T) {
	var _ provision.CarrierClient = (*TwilioTrunking)(nil)
}

func TestNewTwilioTrunking_RequiresCredentials(t *testing.T) {
	if _, err := NewTwilioTrunking(config.CarrierConfig{AccountSID: "AC1"}); err == nil {
		t.Fatalf("expected error without auth token")
	}
}

func TestTwilioTrunking_ListTrunksMapsFields(t *testing.T) {
	api := &fakeTrunkingAPI{trunks: []trunking.TrunkingV1Trunk{
		{Sid: strp("TK1"), FriendlyName: strp("T1"), DomainName: strp("a.pstn.twilio.com")},
		{Sid: strp("TK2")},
	}}
	tt := &TwilioTrunking{api: api}

	got, err := tt.ListTrunks(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trunks, got %d", len(got))
	}
	if got[0] != (provision.CarrierTrunk{SID: "TK1", FriendlyName: "T1", DomainName: "a.pstn.twilio.com"}) {
		t.Fatalf("unexpected trunk: %+v", got[0])
	}
	if got[1].FriendlyName != "" {
		t.Fatalf("nil fields should map to empty strings")
	}
}

func TestTwilioTrunking_CreateAndOriginate(t *testing.T) {
	api := &fakeTrunkingAPI{}
	tt := &TwilioTrunking{api: api}

	tr, err := tt.CreateTrunk(context.Background(), "T1", "d.pstn.twilio.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tr.SID != "TK123" || tr.DomainName != "d.pstn.twilio.com" {
		t.Fatalf("unexpected trunk: %+v", tr)
	}

	err = tt.AddOriginationURL(context.Background(), tr.SID, provision.OriginationURL{
		SIPURL: "sip:x", FriendlyName: "T1 SIP URI", Weight: 1, Priority: 1, Enabled: true,
	})
	if err != nil {
		t.Fatalf("origination: %v", err)
	}
	if api.originSID != "TK123" {
		t.Fatalf("origination attached to wrong trunk %q", api.originSID)
	}
	if api.lastOrigin.Weight == nil || *api.lastOrigin.Weight != 1 || api.lastOrigin.Enabled == nil || !*api.lastOrigin.Enabled {
		t.Fatalf("unexpected origination params: %+v", api.lastOrigin)
	}
}

func TestTwilioTrunking_ConflictMapsToDomainConflict(t *testing.T) {
	api := &fakeTrunkingAPI{createErr: &twilioclient.TwilioRestError{Status: 409, Message: "domain exists"}}
	tt := &TwilioTrunking{api: api}

	_, err := tt.CreateTrunk(context.Background(), "T1", "d.pstn.twilio.com")
	if !errors.Is(err, provision.ErrDomainConflict) {
		t.Fatalf("expected ErrDomainConflict, got %v", err)
	}
}

func TestTwilioTrunking_HonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tt := &TwilioTrunking{api: &fakeTrunkingAPI{}}
	if _, err := tt.ListTrunks(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
