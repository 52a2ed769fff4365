package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateIsTimezoneIndependent(t *testing.T) {
	// "2024-03-01" must mean March 1st no matter where the host runs;
	// constructing through a zoned timestamp shifts the day near UTC
	// boundaries.
	for _, tz := range []string{"UTC", "America/Sao_Paulo", "Pacific/Kiritimati", "Pacific/Pago_Pago"} {
		loc, err := time.LoadLocation(tz)
		require.NoError(t, err)
		old := time.Local
		time.Local = loc

		d, err := ParseDate("2024-03-01")
		require.NoError(t, err)
		assert.Equal(t, 2024, d.Year(), tz)
		assert.Equal(t, time.March, d.Month(), tz)
		assert.Equal(t, 1, d.Day(), tz)

		time.Local = old
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "01/03/2024", "2024-3-1", "2024-03-01T00:00:00Z"} {
		_, err := ParseDate(s)
		assert.Error(t, err, s)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, time.March, 1)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01"`, string(data))

	var back Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, d.Equal(back))
}

func TestDateOrdering(t *testing.T) {
	jan := NewDate(2024, time.January, 10)
	feb := NewDate(2024, time.February, 5)

	assert.True(t, jan.Before(feb))
	assert.True(t, feb.After(jan))
	assert.False(t, jan.Equal(feb))
}

func TestDateInMonth(t *testing.T) {
	d := NewDate(2024, time.March, 31)
	assert.True(t, d.InMonth(2024, time.March))
	assert.False(t, d.InMonth(2024, time.April))
	assert.False(t, d.InMonth(2023, time.March))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, time.March, 1, 23, 30, 0, 0, time.FixedZone("X", -11*3600))))
	assert.Equal(t, "2024-03-01", d.String())

	require.NoError(t, d.Scan([]byte("2024-02-05")))
	assert.Equal(t, "2024-02-05", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
}
