package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/espalier/internal/dto"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/report"
	"github.com/aretw0/espalier/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lamp struct{ on bool }

func (l *lamp) View(context.Context) (domain.View, error) { return l.on, nil }

func (l *lamp) Exec(_ context.Context, ev domain.Event) error {
	l.on = ev.Type == "ON"
	return nil
}

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	b := dsl.New("lamp")
	b.State("off").Initial().On("ON", dsl.When("powered", func(domain.Context, domain.Event) (bool, error) {
		return true, nil
	}, "on"))
	b.State("on").On("OFF", dsl.Go("off")).Assert(func(_ context.Context, v domain.View) error {
		if v != true {
			return errors.New("dark")
		}
		return nil
	})

	reg := registry.New()
	reg.MustRegister(registry.Model{
		Name:        "lamp",
		Description: "A lamp",
		Machine:     b.MustBuild(),
		Setup: func(context.Context) (ports.SubjectFactory, func(context.Context) error, error) {
			return ports.SubjectFactoryFunc(func(context.Context, domain.Plan) (ports.Subject, error) {
				return &lamp{}, nil
			}), nil, nil
		},
	})
	return NewHandler(service.New(reg), opts...)
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestServer_Models(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/models")
	require.Equal(t, http.StatusOK, w.Code)

	var models []dto.ModelInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &models))
	assert.Equal(t, []dto.ModelInfo{{Name: "lamp", Description: "A lamp"}}, models)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health").Code)
	assert.Contains(t, do(t, h, http.MethodGet, "/info").Body.String(), "espalier-http")
}

func TestServer_Graph(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/models/lamp/graph")
	require.Equal(t, http.StatusOK, w.Code)

	var g dto.GraphView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Equal(t, "lamp", g.Machine)
	assert.Equal(t, "off", g.Initial)
	assert.Len(t, g.States, 2)
	assert.Contains(t, g.Transitions, dto.TransitionView{Source: "off", Event: "ON", Guard: "powered", Target: "on"})

	w = do(t, h, http.MethodGet, "/models/lamp/graph?format=mermaid")
	assert.Contains(t, w.Body.String(), "stateDiagram-v2")
	assert.Contains(t, w.Body.String(), "off --> on : ON [powered]")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/models/nope/graph").Code)
}

func TestServer_Plans(t *testing.T) {
	w := do(t, newTestHandler(t), http.MethodGet, "/models/lamp/plans")
	require.Equal(t, http.StatusOK, w.Code)

	var v dto.PlansView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Len(t, v.Paths, 2)
	require.Len(t, v.Plans, 2)
	assert.Equal(t, "on#0", v.Plans[1].ID)
	assert.Empty(t, v.Rejected)
}

func TestServer_RunAndReports(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/models/lamp/runs")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rep report.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, 2, rep.Summary().Passed)
	assert.Equal(t, "/reports/"+rep.ID, w.Header().Get("Location"))

	w = do(t, h, http.MethodGet, "/reports")
	assert.Contains(t, w.Body.String(), rep.ID)

	w = do(t, h, http.MethodGet, "/reports/"+rep.ID+"?format=markdown")
	assert.Contains(t, w.Body.String(), "# lamp")

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/reports/"+rep.ID).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/reports/"+rep.ID).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/models/nope/runs").Code)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg).Plans.WithLabelValues("on", "passed").Inc()

	w := do(t, newTestHandler(t, WithMetrics(reg)), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "espalier_plans_total")

	assert.Equal(t, http.StatusNotFound, do(t, newTestHandler(t), http.MethodGet, "/metrics").Code)
}

func TestServer_Events(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/models/lamp/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewReader(resp.Body)
	first, err := lines.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", first)

	runResp, err := http.Post(srv.URL+"/models/lamp/runs", "application/json", nil)
	require.NoError(t, err)
	runResp.Body.Close()

	var data []string
	for len(data) < 2 {
		line, err := lines.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			data = append(data, line)
		}
	}
	assert.Contains(t, data[0], `"plan_id":"off#0"`)
	assert.Contains(t, data[1], `"status":"passed"`)
}

// vault rejects every key with a message echoing the secret it was sent.
type vault struct{}

func (vault) View(context.Context) (domain.View, error) { return nil, nil }

func (vault) Exec(context.Context, domain.Event) error {
	return errors.New("key s3cr3t rejected")
}

func TestServer_MaskedRun(t *testing.T) {
	b := dsl.New("vault")
	b.State("locked").Initial().On("UNLOCK", dsl.Go("open"))
	b.State("open").Final()
	reg := registry.New()
	reg.MustRegister(registry.Model{
		Name:    "vault",
		Machine: b.MustBuild(),
		Setup: func(context.Context) (ports.SubjectFactory, func(context.Context) error, error) {
			return ports.SubjectFactoryFunc(func(context.Context, domain.Plan) (ports.Subject, error) {
				return vault{}, nil
			}), nil, nil
		},
	})
	masker, err := middleware.NewMasker([]string{`s3cr3t`})
	require.NoError(t, err)
	svc := service.New(reg, service.WithStore(middleware.Chain(memory.NewStore(), masker.Middleware())))
	srv := httptest.NewServer(NewHandler(svc, WithMasker(masker)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/models/vault/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	lines := bufio.NewReader(resp.Body)
	_, err = lines.ReadString('\n')
	require.NoError(t, err)

	runResp, err := http.Post(srv.URL+"/models/vault/runs", "application/json", nil)
	require.NoError(t, err)
	body, err := io.ReadAll(runResp.Body)
	runResp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, runResp.StatusCode)
	assert.NotContains(t, string(body), "s3cr3t")
	assert.Contains(t, string(body), "key *** rejected")

	var failed string
	for failed == "" {
		line, err := lines.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") && strings.Contains(line, `"status":"failed"`) {
			failed = line
		}
	}
	assert.NotContains(t, failed, "s3cr3t")
	assert.Contains(t, failed, "key *** rejected")
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("lamp")

	sm.Broadcast("lamp", "hello")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestServer_FormatValidation(t *testing.T) {
	h := newTestHandler(t)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/models/lamp/graph?format=svg").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/models/lamp/graph?format=json").Code)
}

func TestServer_OpenAPI(t *testing.T) {
	doc, err := Swagger()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Info.Version)

	h := newTestHandler(t)
	assert.Contains(t, do(t, h, http.MethodGet, "/openapi.yaml").Body.String(), "openapi: 3.0.3")
	assert.Contains(t, do(t, h, http.MethodGet, "/info").Body.String(), `"api_version":"1.0.0"`)
	assert.Contains(t, do(t, h, http.MethodGet, "/swagger").Body.String(), "swagger-ui")
}

// Every API route must be documented.
func TestServer_RoutesDocumented(t *testing.T) {
	doc, err := Swagger()
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{"GET", "/health"},
		{"GET", "/info"},
		{"GET", "/models"},
		{"GET", "/models/{model}/graph"},
		{"GET", "/models/{model}/plans"},
		{"POST", "/models/{model}/runs"},
		{"GET", "/models/{model}/events"},
		{"GET", "/reports"},
		{"GET", "/reports/{id}"},
		{"DELETE", "/reports/{id}"},
		{"GET", "/metrics"},
	}
	for _, r := range routes {
		item := doc.Paths.Find(r.path)
		require.NotNil(t, item, r.path)
		assert.NotNil(t, item.GetOperation(r.method), "%s %s", r.method, r.path)
	}
}
