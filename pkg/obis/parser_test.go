package obis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Telegram as sent by an Iskraemeco meter.
const sampleTelegram = "/ISk5\\2MIE5E-200\r\n" +
	"\r\n" +
	"0-0:96.1.0(84035454)\r\n" +
	"0-0:96.1.1(36303834303335343534)\r\n" +
	"1-0:0.9.1(155237)\r\n" +
	"1-0:0.9.2(230510)\r\n" +
	"1-0:1.8.0(000002.331*kWh)\r\n" +
	"1-0:2.8.0(000000.000*kWh)\r\n" +
	"1-0:1.7.0(00.000*kW)\r\n" +
	"1-0:2.7.0(00.000*kW)\r\n" +
	"1-0:3.7.0(00.000*kvar)\r\n" +
	"1-0:4.7.0(00.000*kvar)\r\n" +
	"1-0:31.7.0(000*A)\r\n" +
	"1-0:32.7.0(230.9*V)\r\n" +
	"!"

func newTestParser() (*Parser, *Store, *UnitPool) {
	store := NewStore()
	units := NewUnitPool()
	return NewParser(store, units, nil), store, units
}

func mustItem(t *testing.T, s *Store, key Key) *Item {
	t.Helper()
	item, ok := s.Get(key)
	require.True(t, ok, "missing item %s", key)
	return item
}

func TestParser_SampleTelegram(t *testing.T) {
	p, store, units := newTestParser()

	stats := p.Parse([]byte(sampleTelegram))
	assert.Equal(t, 12, stats.Captured)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 12, store.Len())
	assert.Equal(t, 5, units.Len())

	energy := mustItem(t, store, NewKey(1, 0, 1, 8, 0))
	assert.Equal(t, "1.8.0", energy.Code())
	f, ok := energy.Value().Decimal()
	require.True(t, ok)
	assert.InDelta(t, 2.331, f, 1e-9)
	assert.Equal(t, "kWh", energy.Unit().String())

	voltage := mustItem(t, store, NewKey(1, 0, 32, 7, 0))
	f, ok = voltage.Value().Decimal()
	require.True(t, ok)
	assert.InDelta(t, 230.9, f, 1e-9)
	assert.Equal(t, "V", voltage.Unit().String())

	current := mustItem(t, store, NewKey(1, 0, 31, 7, 0))
	u, ok := current.Value().Uint32()
	require.True(t, ok)
	assert.Zero(t, u)
	assert.Equal(t, "A", current.Unit().String())

	serial := mustItem(t, store, NewKey(0, 0, 96, 1, 1))
	s, ok := serial.Value().Text()
	require.True(t, ok)
	assert.Equal(t, "36303834303335343534", s)
	assert.Nil(t, serial.Unit())

	date := mustItem(t, store, NewKey(1, 0, 0, 9, 2))
	d, ok := date.Value().Uint32()
	require.True(t, ok)
	assert.Equal(t, uint32(230510), d)

	assert.Same(t, mustItem(t, store, NewKey(1, 0, 1, 7, 0)).Unit(), mustItem(t, store, NewKey(1, 0, 2, 7, 0)).Unit())
}

func TestParser_ReparseDoesNotGrowStore(t *testing.T) {
	p, store, units := newTestParser()
	p.Parse([]byte(sampleTelegram))
	items, unitCount := store.Len(), units.Len()

	p.Parse([]byte(sampleTelegram))
	assert.Equal(t, items, store.Len())
	assert.Equal(t, unitCount, units.Len())
}

func TestParser_UnitFirstWriteWins(t *testing.T) {
	p, store, _ := newTestParser()
	p.Parse([]byte("1-0:32.7.0(230.9*V)\r\n"))
	p.Parse([]byte("1-0:32.7.0(0.231*kV)\r\n"))

	item := mustItem(t, store, NewKey(1, 0, 32, 7, 0))
	assert.Equal(t, "V", item.Unit().String())
	f, _ := item.Value().Decimal()
	assert.InDelta(t, 0.231, f, 1e-9)
}

func TestParser_TextFallback(t *testing.T) {
	p, store, _ := newTestParser()
	p.Parse([]byte("0-0:0.9.2(230510W)\r\n0-0:1.0.0(230510.120000S)\r\n"))

	s, ok := mustItem(t, store, NewKey(0, 0, 0, 9, 2)).Value().Text()
	require.True(t, ok)
	assert.Equal(t, "230510W", s)

	s, ok = mustItem(t, store, NewKey(0, 0, 1, 0, 0)).Value().Text()
	require.True(t, ok)
	assert.Equal(t, "230510.120000S", s)
}

func TestParser_IntegerWidths(t *testing.T) {
	p, store, _ := newTestParser()
	p.Parse([]byte("0-0:96.14.0(00002)\r\n0-0:96.1.0(1234567890123456789)\r\n0-0:96.1.2(1234567890)\r\n"))

	assert.Equal(t, KindUint32, mustItem(t, store, NewKey(0, 0, 96, 14, 0)).Value().Kind())
	assert.Equal(t, KindText, mustItem(t, store, NewKey(0, 0, 96, 1, 0)).Value().Kind())
	assert.Equal(t, KindUint64, mustItem(t, store, NewKey(0, 0, 96, 1, 2)).Value().Kind())
}

func TestParser_BadLinesOnlyAbortThemselves(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "four code fields", line: "1-0:1.8.0.1(000001.000*kWh)"},
		{name: "missing dash", line: "1+0:1.8.0(000001.000*kWh)"},
		{name: "letter device", line: "A-0:1.8.0(000001.000*kWh)"},
		{name: "missing colon", line: "1-0;1.8.0(000001.000*kWh)"},
		{name: "letter in code", line: "1-0:1.x.0(000001.000*kWh)"},
		{name: "no value", line: "1-0:1.8.9"},
		{name: "code overflow", line: "1-0:70000.8.0(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, store, _ := newTestParser()
			stats := p.Parse([]byte(tt.line + "\r\n1-0:32.7.0(230.9*V)\r\n"))

			assert.Equal(t, 1, stats.Captured)
			assert.Equal(t, 1, store.Len())
			f, ok := mustItem(t, store, NewKey(1, 0, 32, 7, 0)).Value().Decimal()
			require.True(t, ok)
			assert.InDelta(t, 230.9, f, 1e-9)
		})
	}
}

func TestParser_UnterminatedValueKeepsPreviousValue(t *testing.T) {
	p, store, _ := newTestParser()
	p.Parse([]byte("1-0:1.8.0(000002.331*kWh)\r\n"))
	stats := p.Parse([]byte("1-0:1.8.0(000009.999*kWh\r\n1-0:2.8.0(000000.001*kWh)\r\n"))

	assert.Equal(t, 1, stats.Failed)
	f, _ := mustItem(t, store, NewKey(1, 0, 1, 8, 0)).Value().Decimal()
	assert.InDelta(t, 2.331, f, 1e-9)
	assert.Equal(t, 2, store.Len())
}

func TestParser_AllZeroCodeNotCaptured(t *testing.T) {
	p, store, _ := newTestParser()
	stats := p.Parse([]byte("1-0:0.0.0(12345)\r\n"))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 1, stats.DataLines)
	assert.Equal(t, 0, stats.Captured)
}

func TestParser_LineEndings(t *testing.T) {
	lines := []string{"1-0:1.8.0(000002.331*kWh)", "1-0:32.7.0(230.9*V)"}
	for name, sep := range map[string]string{"crlf": "\r\n", "cr": "\r", "lf": "\n"} {
		t.Run(name, func(t *testing.T) {
			p, store, _ := newTestParser()
			stats := p.Parse([]byte(strings.Join(lines, sep)))
			assert.Equal(t, 2, stats.Lines)
			assert.Equal(t, 2, store.Len())
		})
	}
}

func TestParser_OnlyFirstValueGroup(t *testing.T) {
	p, store, _ := newTestParser()
	p.Parse([]byte("0-1:24.2.1(101209112500W)(12785.123*m3)\r\n"))

	item := mustItem(t, store, NewKey(0, 1, 24, 2, 1))
	s, ok := item.Value().Text()
	require.True(t, ok)
	assert.Equal(t, "101209112500W", s)
	assert.Nil(t, item.Unit())
}

func TestParser_PointInUnitIsNotDecimal(t *testing.T) {
	p, store, _ := newTestParser()
	p.Parse([]byte("1-0:1.7.0(12*k.W)\r\n"))

	item := mustItem(t, store, NewKey(1, 0, 1, 7, 0))
	u, ok := item.Value().Uint32()
	require.True(t, ok, "got kind %s", item.Value().Kind())
	assert.Equal(t, uint32(12), u)
	assert.Equal(t, "k.W", item.Unit().String())
}
