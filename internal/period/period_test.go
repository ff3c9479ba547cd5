package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		cadence Cadence
		want    Record
	}{
		{
			name:    "daily with serial",
			raw:     "15 2025 15_day Mar.csv",
			cadence: Daily,
			want:    Record{OriginalName: "15 2025 15_day Mar.csv", Cadence: Daily, Serial: 15, HasSerial: true, Year: 2025, Period: 15, Month: "mar"},
		},
		{
			name:    "daily missing serial",
			raw:     "2025 15_day Mar.csv",
			cadence: Daily,
			want:    Record{OriginalName: "2025 15_day Mar.csv", Cadence: Daily, Year: 2025, Period: 15, Month: "mar", Missing: true},
		},
		{
			name:    "weekly",
			raw:     "7 2024 2_week September.csv",
			cadence: Weekly,
			want:    Record{OriginalName: "7 2024 2_week September.csv", Cadence: Weekly, Serial: 7, HasSerial: true, Year: 2024, Period: 2, Month: "september"},
		},
		{
			name:    "monthly leading zero serial",
			raw:     "03 2024 4_month Apr.csv",
			cadence: Monthly,
			want:    Record{OriginalName: "03 2024 4_month Apr.csv", Cadence: Monthly, Serial: 3, HasSerial: true, Year: 2024, Period: 4, Month: "apr"},
		},
		{
			name:    "yearly",
			raw:     "2 2024 1_year Dec.csv",
			cadence: Yearly,
			want:    Record{OriginalName: "2 2024 1_year Dec.csv", Cadence: Yearly, Serial: 2, HasSerial: true, Year: 2024, Period: 1, Month: "dec"},
		},
		{
			name:    "holdings any case",
			raw:     "HOLDINGS.csv",
			cadence: Weekly,
			want:    Record{OriginalName: "HOLDINGS.csv", Cadence: Weekly, Holdings: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw, tt.cadence)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		raw     string
		cadence Cadence
	}{
		{"15 2025 15_week Mar.csv", Daily},
		{"15 2025 15_day Mar.txt", Daily},
		{"15 25 15_day Mar.csv", Daily},
		{"15 2025 2_year Dec.csv", Yearly},
		{"15 2025 day Mar.csv", Daily},
		{"15 2025 15_day M4r.csv", Daily},
		{"notes.csv", Monthly},
		{"152025 14_day Mar.csv", Daily},
		{"3 20251_month Jan.csv", Monthly},
		{"99999999999999999999 2025 1_month Jan.csv", Monthly},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := Parse(tt.raw, tt.cadence)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.raw, perr.Name)
			assert.Contains(t, err.Error(), "invalid file format")
		})
	}
}

func TestBuildName(t *testing.T) {
	tests := []struct {
		rec  Record
		want string
	}{
		{Record{Cadence: Daily, Serial: 15, Year: 2025, Period: 15, Month: "mar"}, "15 2025 15_day Mar.csv"},
		{Record{Cadence: Weekly, Serial: 4, Year: 2024, Period: 2, Month: "sept"}, "4 2024 2_week Sept.csv"},
		{Record{Cadence: Monthly, Serial: 9, Year: 2024, Period: 12, Month: "december"}, "9 2024 12_month December.csv"},
		{Record{Cadence: Yearly, Serial: 1, Year: 2023, Period: 1, Month: "dec"}, "1 2023 1_year Dec.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildName(&tt.rec))
		})
	}
}

func TestBuildName_RoundTrip(t *testing.T) {
	for _, c := range Cadences() {
		rec := &Record{Cadence: c, Year: 2024, Period: 3, Month: "mar"}
		if c == Yearly {
			rec.Period, rec.Month = 1, "december"
		}
		rec.SetSerial(42)

		name := BuildName(rec)
		back, err := Parse(name, c)
		require.NoError(t, err, name)

		assert.Equal(t, rec.Serial, back.Serial)
		assert.True(t, back.HasSerial)
		assert.False(t, back.Missing)
		assert.Equal(t, rec.Year, back.Year)
		assert.Equal(t, rec.Period, back.Period)
		assert.Equal(t, rec.Month, back.Month)
		assert.Equal(t, name, BuildName(back))
	}
}

func TestStampHoldings(t *testing.T) {
	today := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		cadence Cadence
		period  int
	}{
		{Daily, 20},
		{Weekly, 3},
		{Monthly, 3},
		{Yearly, 1},
	}
	for _, tt := range tests {
		t.Run(tt.cadence.String(), func(t *testing.T) {
			r := &Record{Cadence: tt.cadence, Holdings: true}
			r.StampHoldings(today)
			assert.Equal(t, 2025, r.Year)
			assert.Equal(t, "march", r.Month)
			assert.Equal(t, tt.period, r.Period)
		})
	}
}

func TestLookupMonth(t *testing.T) {
	for _, tok := range []string{"sep", "Sept", "SEPTEMBER"} {
		m, ok := LookupMonth(tok)
		assert.True(t, ok, tok)
		assert.Equal(t, time.September, m)
	}
	_, ok := LookupMonth("septem")
	assert.False(t, ok)
}

func TestParseCadence(t *testing.T) {
	c, err := ParseCadence("Weekly")
	require.NoError(t, err)
	assert.Equal(t, Weekly, c)

	_, err = ParseCadence("hourly")
	assert.Error(t, err)

	var decoded Cadence
	require.NoError(t, decoded.UnmarshalText([]byte("yearly")))
	assert.Equal(t, Yearly, decoded)
}
