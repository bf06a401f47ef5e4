package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunReportStoreContract runs a suite of tests to verify that a ReportStore implementation
// adheres to the defined interface contract.
func RunReportStoreContract(t *testing.T, store ReportStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405")

	newReport := func(id string) *report.Report {
		r := report.New("contract-machine", report.WithID(id))
		r.Add(domain.Outcome{
			PlanID:          "done#0",
			Description:     `reaches state "done"`,
			PathDescription: `reaches state "done"`,
			Target:          "done",
			Status:          domain.StatusPassed,
			StepsRun:        1,
		})
		r.Add(domain.Outcome{
			PlanID:          "broken#0",
			PathDescription: `reaches state "broken"`,
			Target:          "broken",
			Status:          domain.StatusFailed,
			FailedStep:      1,
			State:           "broken",
			Error:           "assertion failed: boom",
			Err:             errors.New("boom"),
		})
		r.Finish()
		return r
	}

	t.Run("Save and Load", func(t *testing.T) {
		id := "contract-" + suffix
		r := newReport(id)

		require.NoError(t, store.Save(ctx, r), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, id, loaded.ID)
		assert.Equal(t, "contract-machine", loaded.Machine)
		require.Len(t, loaded.Outcomes(), 2)
		assert.Equal(t, r.Summary(), loaded.Summary())
		// Errors survive persistence as messages only.
		assert.Equal(t, "assertion failed: boom", loaded.Outcomes()[1].Error)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+suffix)
		assert.ErrorIs(t, err, domain.ErrReportNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := "contract-delete-" + suffix
		require.NoError(t, store.Save(ctx, newReport(id)))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrReportNotFound, "Load after Delete should return ErrReportNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := "contract-list-1-" + suffix
		id2 := "contract-list-2-" + suffix
		require.NoError(t, store.Save(ctx, newReport(id1)))
		require.NoError(t, store.Save(ctx, newReport(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
