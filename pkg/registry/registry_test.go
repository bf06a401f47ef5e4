package registry

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) (ports.SubjectFactory, func(context.Context) error, error) {
	return nil, nil, nil
}

func TestRegistry(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Model{Name: "login", Setup: noop}))
	require.NoError(t, r.Register(Model{Name: "door", Setup: noop}))

	assert.Equal(t, []string{"door", "login"}, r.Names())

	m, err := r.Lookup("login")
	require.NoError(t, err)
	assert.Equal(t, "login", m.Name)

	_, err = r.Lookup("nope")
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestRegistry_Invalid(t *testing.T) {
	r := New()
	assert.Error(t, r.Register(Model{Setup: noop}), "name required")
	assert.Error(t, r.Register(Model{Name: "x"}), "setup required")

	r.MustRegister(Model{Name: "x", Setup: noop})
	assert.Error(t, r.Register(Model{Name: "x", Setup: noop}), "duplicate")
	assert.Panics(t, func() { r.MustRegister(Model{Name: "x", Setup: noop}) })
}
