package sipgateway

import (
	"context"
	"errors"

	"agent-platform/internal/config"
	"agent-platform/internal/provision"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

// sipAPI is the subset of *lksdk.SIPClient used here.
type sipAPI interface {
	CreateSIPInboundTrunk(ctx context.Context, in *livekit.CreateSIPInboundTrunkRequest) (*livekit.SIPInboundTrunkInfo, error)
	CreateSIPDispatchRule(ctx context.Context, in *livekit.CreateSIPDispatchRuleRequest) (*livekit.SIPDispatchRuleInfo, error)
}

// API creates gateway resources through the LiveKit server API instead of
// the lk binary.
type API struct {
	client sipAPI
}

func NewAPI(cfg config.GatewayConfig) (*API, error) {
	if cfg.URL == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("sipgateway: livekit url, api key and api secret are required")
	}
	return &API{client: lksdk.NewSIPClient(cfg.URL, cfg.APIKey, cfg.APISecret)}, nil
}

func (a *API) CreateInboundTrunk(ctx context.Context, d provision.InboundTrunkDescriptor) (string, error) {
	info, err := a.client.CreateSIPInboundTrunk(ctx, &livekit.CreateSIPInboundTrunkRequest{
		Trunk: &livekit.SIPInboundTrunkInfo{
			Name:    d.Trunk.Name,
			Numbers: d.Trunk.Numbers,
		},
	})
	if err != nil {
		return "", err
	}
	if info.GetSipTrunkId() == "" {
		return "", provision.ErrIdentifierNotFound
	}
	return info.GetSipTrunkId(), nil
}

func (a *API) CreateDispatchRule(ctx context.Context, d provision.DispatchRuleDescriptor) (string, error) {
	rule, err := toLiveKitRule(d.Rule)
	if err != nil {
		return "", err
	}
	info, err := a.client.CreateSIPDispatchRule(ctx, &livekit.CreateSIPDispatchRuleRequest{
		DispatchRule: &livekit.SIPDispatchRuleInfo{
			Name:     d.Name,
			TrunkIds: d.TrunkIDs,
			Rule:     rule,
		},
	})
	if err != nil {
		return "", err
	}
	return info.GetSipDispatchRuleId(), nil
}

func toLiveKitRule(r provision.DispatchRule) (*livekit.SIPDispatchRule, error) {
	if r.Individual == nil {
		return nil, errors.New("sipgateway: dispatch rule type required")
	}
	return &livekit.SIPDispatchRule{
		Rule: &livekit.SIPDispatchRule_DispatchRuleIndividual{
			DispatchRuleIndividual: &livekit.SIPDispatchRuleIndividual{
				RoomPrefix: r.Individual.RoomPrefix,
			},
		},
	}, nil
}
