package game

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_String(t *testing.T) {
	assert.Equal(t, "Raja", Raja.String())
	assert.Equal(t, "Mantri", Mantri.String())
	assert.Equal(t, "Chor", Chor.String())
	assert.Equal(t, "Sipahi", Sipahi.String())
	assert.Equal(t, "Unknown", NoRole.String())
}

func TestRole_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Role `json:"a"`
		B Role `json:"b"`
	}{Chor, NoRole})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"Chor","b":null}`, string(data))

	var r Role
	require.NoError(t, json.Unmarshal([]byte(`"Sipahi"`), &r))
	assert.Equal(t, Sipahi, r)

	require.NoError(t, json.Unmarshal([]byte(`null`), &r))
	assert.Equal(t, NoRole, r)

	assert.Error(t, json.Unmarshal([]byte(`"Wazir"`), &r))
}

func TestDeal_IsPermutation(t *testing.T) {
	for i := 0; i < 200; i++ {
		a := Deal(nil)
		seen := map[int]bool{}
		for _, seat := range a {
			require.GreaterOrEqual(t, seat, 0)
			require.Less(t, seat, RoleCount)
			seen[seat] = true
		}
		require.Len(t, seen, RoleCount, "every seat must hold exactly one role")
	}
}

func TestDeal_SeatsInvertsAssignment(t *testing.T) {
	a := Deal(rand.New(rand.NewPCG(1, 2)))
	seats := a.Seats()
	for _, role := range Roles {
		assert.Equal(t, role, seats[a.Holder(role)])
	}
}

func TestDeal_FixedShuffler(t *testing.T) {
	a := Deal(FixedShuffler)
	assert.Equal(t, [RoleCount]Role{Raja, Mantri, Chor, Sipahi}, a.Seats())
}

func TestDeal_RoughlyUniform(t *testing.T) {
	const trials = 24000
	rng := rand.New(rand.NewPCG(42, 7))
	counts := map[Assignment]int{}
	for i := 0; i < trials; i++ {
		counts[Deal(rng)]++
	}

	require.Len(t, counts, 24, "all 4! permutations should appear")
	expected := trials / 24
	for perm, n := range counts {
		assert.InDelta(t, expected, n, float64(expected)*0.2, "permutation %v", perm)
	}
}

func TestDelta(t *testing.T) {
	testCases := []struct {
		role    Role
		correct int
		miss    int
	}{
		{Raja, 1000, 1000},
		{Mantri, 800, 0},
		{Chor, 0, 800},
		{Sipahi, 500, 500},
		{NoRole, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.role.String(), func(t *testing.T) {
			assert.Equal(t, tc.correct, Delta(tc.role, true))
			assert.Equal(t, tc.miss, Delta(tc.role, false))
		})
	}
}
