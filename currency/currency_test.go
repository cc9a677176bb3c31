package currency_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/wayhome/wayhome-go/currency"
)

func setupConverter() *currency.Converter {
	c := currency.NewConverter("EUR")
	c.SetRates(map[string]float64{
		"USD": 1.10,
		"GBP": 0.85,
	})
	return c
}

func TestConvertIdentityInBase(t *testing.T) {
	c := setupConverter()

	require.Equal(t, "EUR", c.Display())
	require.Equal(t, int64(25000000), c.Convert(25000000))
}

func TestConvertAppliesRate(t *testing.T) {
	c := setupConverter()

	require.NoError(t, c.SetDisplay("USD"))
	require.Equal(t, int64(27500000), c.Convert(25000000))
}

func TestConvertRoundsHalfAwayFromZero(t *testing.T) {
	c := setupConverter()
	require.NoError(t, c.SetDisplay("GBP"))

	// 101 * 0.85 = 85.85 rounds up; the same amount owed rounds down
	// to -86, symmetric with the positive case.
	require.Equal(t, int64(86), c.Convert(101))
	require.Equal(t, int64(-86), c.Convert(-101))
}

func TestSetDisplayUnknownCurrency(t *testing.T) {
	c := setupConverter()

	require.Error(t, c.SetDisplay("JPY"))
	require.Equal(t, "EUR", c.Display())
}

func TestSubscribeNotifiedOnChangeOnly(t *testing.T) {
	c := setupConverter()

	var changes []string
	c.Subscribe(func(display string) {
		changes = append(changes, display)
	})

	require.NoError(t, c.SetDisplay("USD"))
	require.NoError(t, c.SetDisplay("USD")) // no-op, no notification
	require.NoError(t, c.SetDisplay("GBP"))

	require.Equal(t, []string{"USD", "GBP"}, changes)
}

func TestFormatUsesDisplayCurrencySymbol(t *testing.T) {
	c := setupConverter()

	formatted := c.Format(25000000, language.English)
	require.Contains(t, formatted, "€")

	require.NoError(t, c.SetDisplay("USD"))
	formatted = c.Format(25000000, language.English)
	require.Contains(t, formatted, "$")
}
