package telephony

import (
	"context"
	"errors"
	"net/http"

	"agent-platform/internal/config"
	"agent-platform/internal/provision"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	trunking "github.com/twilio/twilio-go/rest/trunking/v1"
)

// trunkingAPI is the subset of the Twilio Trunking v1 service used here.
// *trunking.ApiService satisfies it.
type trunkingAPI interface {
	ListTrunk(params *trunking.ListTrunkParams) ([]trunking.TrunkingV1Trunk, error)
	CreateTrunk(params *trunking.CreateTrunkParams) (*trunking.TrunkingV1Trunk, error)
	CreateOriginationUrl(trunkSid string, params *trunking.CreateOriginationUrlParams) (*trunking.TrunkingV1OriginationUrl, error)
}

// TwilioTrunking is the carrier adapter for Twilio Elastic SIP Trunking.
// It implements provision.CarrierClient. No business logic here: lookups
// and ordering decisions belong to the provisioner.
type TwilioTrunking struct {
	api trunkingAPI
}

func NewTwilioTrunking(cfg config.CarrierConfig) (*TwilioTrunking, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("telephony: twilio account sid and auth token are required")
	}
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioTrunking{api: rc.TrunkingV1}, nil
}

func (t *TwilioTrunking) Name() string { return "twilio" }

// HealthCheck fetches a single trunk to validate credentials.
func (t *TwilioTrunking) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &trunking.ListTrunkParams{}
	params.SetPageSize(1)
	params.SetLimit(1)
	_, err := t.api.ListTrunk(params)
	return mapTwilioErr(err)
}

// ListTrunks pages through every trunk on the account.
func (t *TwilioTrunking) ListTrunks(ctx context.Context) ([]provision.CarrierTrunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &trunking.ListTrunkParams{}
	params.SetPageSize(50)
	trunks, err := t.api.ListTrunk(params)
	if err != nil {
		return nil, mapTwilioErr(err)
	}
	out := make([]provision.CarrierTrunk, 0, len(trunks))
	for i := range trunks {
		out = append(out, toCarrierTrunk(&trunks[i]))
	}
	return out, nil
}

func (t *TwilioTrunking) CreateTrunk(ctx context.Context, friendlyName, domainName string) (provision.CarrierTrunk, error) {
	if err := ctx.Err(); err != nil {
		return provision.CarrierTrunk{}, err
	}
	params := &trunking.CreateTrunkParams{}
	params.SetFriendlyName(friendlyName)
	params.SetDomainName(domainName)
	tr, err := t.api.CreateTrunk(params)
	if err != nil {
		return provision.CarrierTrunk{}, mapTwilioErr(err)
	}
	if tr == nil || tr.Sid == nil {
		return provision.CarrierTrunk{}, errors.New("telephony: twilio returned a trunk without sid")
	}
	return toCarrierTrunk(tr), nil
}

func (t *TwilioTrunking) AddOriginationURL(ctx context.Context, trunkSID string, u provision.OriginationURL) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &trunking.CreateOriginationUrlParams{}
	params.SetSipUrl(u.SIPURL)
	params.SetFriendlyName(u.FriendlyName)
	params.SetWeight(u.Weight)
	params.SetPriority(u.Priority)
	params.SetEnabled(u.Enabled)
	_, err := t.api.CreateOriginationUrl(trunkSID, params)
	return mapTwilioErr(err)
}

func toCarrierTrunk(tr *trunking.TrunkingV1Trunk) provision.CarrierTrunk {
	return provision.CarrierTrunk{
		SID:          deref(tr.Sid),
		FriendlyName: deref(tr.FriendlyName),
		DomainName:   deref(tr.DomainName),
	}
}

// mapTwilioErr turns a duplicate-resource rejection into
// provision.ErrDomainConflict and leaves everything else untouched.
func mapTwilioErr(err error) error {
	if err == nil {
		return nil
	}
	var re *twilioclient.TwilioRestError
	if errors.As(err, &re) && re.Status == http.StatusConflict {
		return errors.Join(provision.ErrDomainConflict, err)
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
