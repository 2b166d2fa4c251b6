package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agent-platform/internal/audit"
	"agent-platform/internal/catalog"
	"agent-platform/internal/provision"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	items []catalog.SalesItem
	err   error
	query string
}

func (s *stubLookup) Lookup(ctx context.Context, query string) ([]catalog.SalesItem, error) {
	s.query = query
	return s.items, s.err
}

type stubProvisioner struct {
	res provision.Result
	err error
	got provision.TrunkConfig
}

func (s *stubProvisioner) Provision(ctx context.Context, cfg provision.TrunkConfig) (provision.Result, error) {
	s.got = cfg
	return s.res, s.err
}

type stubRuns struct {
	trunk string
	limit int
}

func (s *stubRuns) List(ctx context.Context, trunkName string, limit int) ([]audit.Run, error) {
	s.trunk, s.limit = trunkName, limit
	return []audit.Run{{ID: "r1", TrunkName: trunkName, Stage: "complete"}}, nil
}

func newRouter(h Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/sales", h.LookupSales)
	r.POST("/v1/provisioning", h.Provision)
	r.GET("/v1/provisioning/runs", h.ListRuns)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

const validTrunk = `{"trunk_name":"Acme","sip_uri":"sip:agent@example.com","phone_number":"+15551234567"}`

func TestLookupSales(t *testing.T) {
	lk := &stubLookup{items: []catalog.SalesItem{{ItemID: 401, Name: "Goggles"}}}
	w := do(newRouter(Handlers{Catalog: lk}), http.MethodGet, "/v1/sales?query=goggles", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "goggles", lk.query)

	var body struct {
		Items []catalog.SalesItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, 401, body.Items[0].ItemID)
}

func TestLookupSales_NotReady(t *testing.T) {
	lk := &stubLookup{err: &catalog.LookupError{Err: catalog.ErrNotReady}}
	w := do(newRouter(Handlers{Catalog: lk}), http.MethodGet, "/v1/sales", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProvision_Complete(t *testing.T) {
	p := &stubProvisioner{res: provision.Result{RunID: "run-1", Stage: provision.StageComplete, InboundTrunkID: "ST_1"}}
	w := do(newRouter(Handlers{Provisioner: p}), http.MethodPost, "/v1/provisioning", validTrunk)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Acme", p.got.TrunkName)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["complete"])
	assert.Equal(t, "complete", body["stage"])
	assert.Equal(t, "ST_1", body["inbound_trunk_id"])
}

func TestProvision_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		res      provision.Result
		err      error
		wantCode int
	}{
		{"busy", provision.Result{}, provision.ErrBusy, http.StatusConflict},
		{"carrier", provision.Result{Stage: provision.StageNone}, &provision.CarrierError{Op: "list trunks", Err: errors.New("401")}, http.StatusBadGateway},
		{"gateway partial", provision.Result{Stage: provision.StageCarrierOnly}, &provision.GatewayError{Op: "create inbound trunk", Err: errors.New("exit 1")}, http.StatusOK},
		{"unknown", provision.Result{}, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvisioner{res: tt.res, err: tt.err}
			w := do(newRouter(Handlers{Provisioner: p}), http.MethodPost, "/v1/provisioning", validTrunk)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestProvision_PartialReportsIncomplete(t *testing.T) {
	p := &stubProvisioner{
		res: provision.Result{Stage: provision.StageCarrierAndInbound, InboundTrunkID: "ST_9"},
		err: &provision.GatewayError{Op: "create dispatch rule", Err: errors.New("exit 1")},
	}
	w := do(newRouter(Handlers{Provisioner: p}), http.MethodPost, "/v1/provisioning", validTrunk)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["complete"])
	assert.Equal(t, "carrier_and_inbound", body["stage"])
	assert.Contains(t, body["error"], "dispatch rule")
}

func TestProvision_RejectsInvalidInput(t *testing.T) {
	p := &stubProvisioner{}
	r := newRouter(Handlers{Provisioner: p})

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/v1/provisioning", "{").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/v1/provisioning", `{"trunk_name":"Acme"}`).Code)
	assert.Empty(t, p.got.TrunkName, "provisioner must not run on invalid input")
}

func TestProvision_NotConfigured(t *testing.T) {
	w := do(newRouter(Handlers{}), http.MethodPost, "/v1/provisioning", validTrunk)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListRuns(t *testing.T) {
	runs := &stubRuns{}
	r := newRouter(Handlers{Runs: runs})

	w := do(r, http.MethodGet, "/v1/provisioning/runs?trunk_name=Acme&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Acme", runs.trunk)
	assert.Equal(t, 5, runs.limit)

	w = do(r, http.MethodGet, "/v1/provisioning/runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
