package pricing

import (
	"testing"

	"evenza/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestResolveTotalDiscountArithmetic(t *testing.T) {
	packages := []models.PackageRef{
		{ID: "p1", OriginalPrice: fp(1000), Discount: 20},
	}
	assert.Equal(t, 800.0, ResolveTotal(packages, nil))
}

func TestResolveTotalMealSelection(t *testing.T) {
	packages := []models.PackageRef{
		{
			ID: "p1",
			Meals: map[string]models.MealPrices{
				"breakfast": {Original: fp(100)},
				"lunch":     {Original: fp(150)},
				"dinner":    {Original: fp(200)},
			},
		},
	}
	selections := map[string]models.MealSelection{
		"p1": {"breakfast": true, "lunch": false, "dinner": true},
	}
	assert.Equal(t, 300.0, ResolveTotal(packages, selections))
}

func TestResolveTotalMealPricePreference(t *testing.T) {
	packages := []models.PackageRef{
		{
			ID: "p1",
			Meals: map[string]models.MealPrices{
				"breakfast": {Original: fp(100), Price: fp(90), Discounted: fp(80)},
				"lunch":     {Price: fp(150), Discounted: fp(120)},
				"dinner":    {Discounted: fp(180)},
			},
		},
	}
	selections := map[string]models.MealSelection{
		"p1": {"breakfast": true, "lunch": true, "dinner": true},
	}
	// original preferred over price over discounted
	assert.Equal(t, 100.0+150.0+180.0, ResolveTotal(packages, selections))
}

func TestResolveTotalUnknownMealKeysIgnored(t *testing.T) {
	packages := []models.PackageRef{
		{
			ID:    "p1",
			Meals: map[string]models.MealPrices{"lunch": {Original: fp(150)}},
		},
	}
	selections := map[string]models.MealSelection{
		"p1": {"lunch": true, "brunch": true, "supper": true},
	}
	assert.Equal(t, 150.0, ResolveTotal(packages, selections))
}

func TestResolveTotalMissingFieldsDegradeToZero(t *testing.T) {
	assert.Equal(t, 0.0, ResolveTotal(nil, nil))
	assert.Equal(t, 0.0, ResolveTotal([]models.PackageRef{}, nil))
	// a package with no recognized price field contributes 0, never panics
	assert.Equal(t, 0.0, ResolveTotal([]models.PackageRef{{}}, nil))
	assert.Equal(t, 0.0, ResolveTotal([]models.PackageRef{{ID: "x"}}, map[string]models.MealSelection{"x": {"lunch": true}}))
}

func TestResolveTotalPriceFallback(t *testing.T) {
	packages := []models.PackageRef{
		{ID: "p1", Price: fp(500)},                           // no originalPrice
		{ID: "p2", OriginalPrice: fp(400), Price: fp(9999)},  // originalPrice wins
		{ID: "p3", OriginalPrice: fp(200), Discount: 150},    // over-discount clamps to 0
	}
	assert.Equal(t, 900.0, ResolveTotal(packages, nil))
}

func TestResolveTotalDeterministicAndOrderIndependent(t *testing.T) {
	packages := []models.PackageRef{
		{ID: "a", OriginalPrice: fp(100)},
		{ID: "b", Price: fp(250), Discount: 10},
		{ID: "c", Meals: map[string]models.MealPrices{"dinner": {Price: fp(300)}}},
	}
	selections := map[string]models.MealSelection{"c": {"dinner": true}}

	want := ResolveTotal(packages, selections)
	for i := 0; i < 50; i++ {
		require.Equal(t, want, ResolveTotal(packages, selections))
	}

	reversed := []models.PackageRef{packages[2], packages[1], packages[0]}
	assert.Equal(t, want, ResolveTotal(reversed, selections))
}

func TestSelectFinal(t *testing.T) {
	got, err := SelectFinal(fp(1000), fp(900), nil, SourceNegotiated)
	require.NoError(t, err)
	assert.Equal(t, 900.0, got)

	got, err = SelectFinal(fp(1000), nil, nil, SourceActual)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got)

	_, err = SelectFinal(fp(1000), nil, nil, SourceBudget)
	assert.ErrorIs(t, err, ErrMissingBasis)

	_, err = SelectFinal(fp(1000), nil, nil, "wholesale")
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestApplyConvenienceFee(t *testing.T) {
	assert.Equal(t, 1050.0, ApplyConvenienceFee(1000, 5))
	assert.Equal(t, 1000.0, ApplyConvenienceFee(1000, 0))
	assert.Equal(t, 1000.0, ApplyConvenienceFee(1000, -3))
}
