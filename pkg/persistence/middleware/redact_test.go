package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactionMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewRedactionMiddleware([]string{`secret`})
	require.NoError(t, err)
	ports.RunReportStoreContract(t, mw(memory.NewStore()))
}

func TestRedactionMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewRedactionMiddleware([]string{`Hunter2!+`, `token=\S+`})
	require.NoError(t, err)
	store := middleware.Chain(underlying, mw)
	ctx := context.Background()

	rep := report.New("login")
	rep.Add(domain.Outcome{
		PlanID:      "locked#0",
		Description: `reaches state "locked" via FILL(admin) → SUBMIT → RETRYHunter2!!`,
		Status:      domain.StatusFailed,
		Err:         errors.New("request failed: token=abc123"),
	})
	rep.SetCoverage(report.Coverage{Reachable: []string{"a"}, Covered: []string{"a"}})
	rep.Finish()

	require.NoError(t, store.Save(ctx, rep))

	// The caller's report is untouched.
	assert.Contains(t, rep.Outcomes()[0].Description, "Hunter2")

	stored, err := underlying.Load(ctx, rep.ID)
	require.NoError(t, err)
	o := stored.Outcomes()[0]
	assert.Equal(t, `reaches state "locked" via FILL(admin) → SUBMIT → RETRY***`, o.Description)
	assert.Equal(t, "request failed: ***", o.Error)
	assert.Equal(t, rep.Summary(), stored.Summary())

	cov, ok := stored.Coverage()
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, cov.Covered)
}

func TestRedactionMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedactionMiddleware([]string{"("})
	assert.Error(t, err)
}
