package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunReportStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	r := report.New("m", report.WithID("r1"))
	r.Add(domain.Outcome{PlanID: "a#0", Status: domain.StatusPassed})
	require.NoError(t, store.Save(ctx, r))

	// Mutating after save must not affect the stored copy.
	r.Add(domain.Outcome{PlanID: "b#0", Status: domain.StatusFailed})

	loaded, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, loaded.Outcomes(), 1)
}

func TestMemoryLocker(t *testing.T) {
	l := memory.NewLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "login", time.Second)
	require.NoError(t, err)

	// A second acquisition blocks until the first is released.
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, "login", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Other keys are independent.
	other, err := l.Lock(ctx, "door", time.Second)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx), "unlock is idempotent")

	again, err := l.Lock(ctx, "login", time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
