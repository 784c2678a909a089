package transfer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bmaret/boursomate/internal/models"
)

func acc(id string, kind models.AccountKind) models.Account {
	return models.Account{ID: id, Name: id, Kind: kind}
}

var allKinds = []models.AccountKind{
	models.KindBanking, models.KindSavings, models.KindTrading, models.KindLoans,
}

func TestIsAllowed_RuleTable(t *testing.T) {
	for _, targetKind := range allKinds {
		target := acc("target", targetKind)

		require.False(t, IsAllowed(acc("src", models.KindTrading), target),
			"trading accounts never source a transfer")
		require.False(t, IsAllowed(acc("src", models.KindLoans), target),
			"loans never source a transfer")
		require.True(t, IsAllowed(acc("src", models.KindBanking), target),
			"banking sources may reach any kind")

		savingsOk := IsAllowed(acc("src", models.KindSavings), target)
		require.Equal(t, targetKind == models.KindBanking, savingsOk,
			"savings may only reach banking, got target kind %s", targetKind)
	}
}

func TestIsAllowed_SelfTransferForbidden(t *testing.T) {
	a := acc("same", models.KindBanking)
	require.False(t, IsAllowed(a, a))
}

func TestSelector_ArmThenDisarm(t *testing.T) {
	all := []models.Account{
		acc("bank", models.KindBanking),
		acc("savings", models.KindSavings),
	}
	var s Selector

	require.Nil(t, s.Click(all[0], all))
	armed, ok := s.Armed()
	require.True(t, ok)
	require.Equal(t, "bank", armed.ID)

	// Second click on the armed account returns to idle, no event.
	require.Nil(t, s.Click(all[0], all))
	_, ok = s.Armed()
	require.False(t, ok)
}

func TestSelector_EmitsOnLegalTarget(t *testing.T) {
	all := []models.Account{
		acc("savings", models.KindSavings),
		acc("bank", models.KindBanking),
		acc("trading", models.KindTrading),
	}
	var s Selector

	require.Nil(t, s.Click(all[0], all))
	req := s.Click(all[1], all)
	require.NotNil(t, req)
	require.Equal(t, "savings", req.Source.ID)
	require.Equal(t, "bank", req.Target.ID)

	_, ok := s.Armed()
	require.False(t, ok, "selector returns to idle after emitting")
}

func TestSelector_FailSafeDisarmOnIllegalTarget(t *testing.T) {
	all := []models.Account{
		acc("savings", models.KindSavings),
		acc("bank", models.KindBanking),
		acc("trading", models.KindTrading),
	}
	var s Selector

	require.Nil(t, s.Click(all[0], all))
	// Savings -> Trading violates the rule table: no event, and the arm is
	// cleared rather than left dangling.
	require.Nil(t, s.Click(all[2], all))
	_, ok := s.Armed()
	require.False(t, ok)
}

func TestSelector_SourceWithoutTargetsNotArmable(t *testing.T) {
	all := []models.Account{
		acc("trading", models.KindTrading),
		acc("bank", models.KindBanking),
	}
	var s Selector

	require.Nil(t, s.Click(all[0], all))
	_, ok := s.Armed()
	require.False(t, ok, "a trading account has no legal target and must not arm")
}

func TestSelector_IsClickable(t *testing.T) {
	all := []models.Account{
		acc("savings", models.KindSavings),
		acc("bank", models.KindBanking),
		acc("trading", models.KindTrading),
	}
	var s Selector

	require.True(t, s.IsClickable(all[0], all))
	require.True(t, s.IsClickable(all[1], all))
	require.False(t, s.IsClickable(all[2], all), "trading cannot arm")

	s.Click(all[0], all)
	require.True(t, s.IsClickable(all[0], all), "armed account stays clickable to disarm")
	require.True(t, s.IsClickable(all[1], all))
	require.False(t, s.IsClickable(all[2], all), "savings cannot reach trading")
}
