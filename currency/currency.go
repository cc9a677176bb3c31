// Package currency handles display conversion of listing prices. Amounts
// stay in the backend's base currency; conversion is presentation-only,
// driven by a rate table the application refreshes from its own source.
package currency

import (
	"math"
	"strings"
	"sync"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	interrors "github.com/wayhome/wayhome-go/internal/errors"
)

// Converter holds the display currency, the rate table relative to the
// base currency, and the subscriber list notified on display changes.
type Converter struct {
	lock    sync.RWMutex
	base    string
	display string
	rates   map[string]float64 // units of target per one unit of base

	subLock     sync.RWMutex
	subscribers []func(display string)
}

func NewConverter(base string) *Converter {
	base = strings.ToUpper(base)
	return &Converter{
		base:    base,
		display: base,
		rates:   map[string]float64{base: 1},
	}
}

// SetRates replaces the rate table. Rates are target-per-base; the base
// currency itself is always rate 1.
func (c *Converter) SetRates(rates map[string]float64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.rates = map[string]float64{c.base: 1}
	for code, rate := range rates {
		if rate > 0 {
			c.rates[strings.ToUpper(code)] = rate
		}
	}
}

// SetDisplay switches the display currency and notifies subscribers.
// Unknown currencies (no rate) are rejected.
func (c *Converter) SetDisplay(code string) error {
	code = strings.ToUpper(code)

	c.lock.Lock()
	if _, ok := c.rates[code]; !ok {
		c.lock.Unlock()
		return interrors.Wrapf(interrors.ErrNotFound, "[Converter.SetDisplay] no rate for %s", code)
	}
	changed := c.display != code
	c.display = code
	c.lock.Unlock()

	if changed {
		c.notify(code)
	}
	return nil
}

func (c *Converter) Display() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.display
}

// Convert maps an amount in base minor units to display minor units.
func (c *Converter) Convert(baseMinor int64) int64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	rate := c.rates[c.display]
	if rate == 0 {
		rate = 1
	}
	return int64(math.Round(float64(baseMinor) * rate))
}

// Format renders an amount of base minor units in the display currency for
// the given locale, e.g. Format(25000000, language.German) -> "250.000,00 €".
func (c *Converter) Format(baseMinor int64, tag language.Tag) string {
	c.lock.RLock()
	display := c.display
	c.lock.RUnlock()

	unit, err := currency.ParseISO(display)
	if err != nil {
		unit = currency.USD
	}

	amount := float64(c.Convert(baseMinor)) / 100
	printer := message.NewPrinter(tag)
	return printer.Sprintf("%v", currency.Symbol(unit.Amount(amount)))
}

// Subscribe registers a callback invoked when the display currency
// changes, replacing the web client's "currency changed" event.
func (c *Converter) Subscribe(fn func(display string)) {
	c.subLock.Lock()
	defer c.subLock.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

func (c *Converter) notify(display string) {
	c.subLock.RLock()
	subscribers := make([]func(string), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.subLock.RUnlock()

	for _, fn := range subscribers {
		fn(display)
	}
}
