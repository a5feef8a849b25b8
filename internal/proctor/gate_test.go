package proctor

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stemsi/exstem-client/internal/model"
)

func TestGateShowReplacesInsteadOfQueueing(t *testing.T) {
	g := NewGate()

	g.Show(violationNotice(model.ViolationNoFace, 1))
	g.Show(violationNotice(model.ViolationMultipleFaces, 2))

	n, visible := g.Current()
	require.True(t, visible)
	require.Equal(t, model.ViolationMultipleFaces, n.Type)
	require.Equal(t, 2, n.TotalViolations)
}

func TestGateCloseHidesOrdinaryViolation(t *testing.T) {
	g := NewGate()
	g.Show(violationNotice(model.ViolationNoFace, 1))

	require.True(t, g.Close())
	_, visible := g.Current()
	require.False(t, visible)
}

func TestGateDisqualificationIsNotDismissible(t *testing.T) {
	g := NewGate()
	g.Show(disqualifiedNotice(3))

	require.False(t, g.Close())
	n, visible := g.Current()
	require.True(t, visible)
	require.True(t, n.Disqualified)

	// Even a later ordinary Show cannot make the gate closable again.
	g.Show(violationNotice(model.ViolationNoFace, 4))
	require.False(t, g.Close())
}

func TestGateHandlerInvokedPerShow(t *testing.T) {
	g := NewGate()
	var got []Notice
	g.SetHandler(func(n Notice) { got = append(got, n) })

	g.Show(violationNotice(model.ViolationGazeAway, 1))
	g.Show(violationNotice(model.ViolationGazeAway, 2))

	require.Len(t, got, 2)
	require.Equal(t, 2, got[1].TotalViolations)
}
