package csvio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"350,50":      "350.5",
		"1 250,00":    "1250",
		"1\u00a0250,5": "1250.5",
		"1.250,75":    "1250.75",
		"1,250.75":    "1250.75",
		"12.5":        "12.5",
		"99 руб.":     "99",
		"abc":         "0",
		"":            "0",
		"-5":          "0",
		"10.999":      "11",
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePrice(in).String(), in)
	}
}

func TestParseInt(t *testing.T) {
	t.Parallel()

	n, err := ParseInt(" 1 200 ")
	require.NoError(t, err)
	assert.Equal(t, 1200, n)

	n, err = ParseInt("12.0")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = ParseInt("")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = ParseInt("12.5")
	assert.Error(t, err)
	_, err = ParseInt("много")
	assert.Error(t, err)
}

func TestParseOptionalInt(t *testing.T) {
	t.Parallel()

	v, err := ParseOptionalInt("-")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseOptionalInt("2018")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 2018, *v)

	_, err = ParseOptionalInt("abc")
	assert.Error(t, err)
}

func TestParseBoolAndFloat(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"1", "true", "Да", "yes", "y"} {
		assert.True(t, ParseBool(s), s)
	}
	for _, s := range []string{"0", "", "нет", "no"} {
		assert.False(t, ParseBool(s), s)
	}
	assert.InDelta(t, 1.6, ParseFloat("1,6"), 0.0001)
	assert.Zero(t, ParseFloat("n/a"))
}

func TestResolveColumns(t *testing.T) {
	t.Parallel()

	aliases := []Alias{
		{Field: "manufacturer", Names: []string{"бренд", "brand", "производитель"}},
		{Field: "part_number", Names: []string{"артикул", "part_number"}},
		{Field: "name", Names: []string{"наименование", "name"}},
		{Field: "quantity", Names: []string{"количество", "qty", "stock_quantity"}},
	}
	positional := Columns{"manufacturer": 0, "part_number": 1, "name": 2, "quantity": 3}
	required := []string{"part_number", "name"}

	cols, ok := ResolveColumns([]string{"Наименование", "Артикул", "Бренд производителя", "Кол-во"}, aliases, required, positional)
	require.True(t, ok)
	assert.Equal(t, 1, cols["part_number"])
	assert.Equal(t, 0, cols["name"])
	assert.Equal(t, 2, cols["manufacturer"])
	assert.False(t, cols.Has("quantity"))

	cols, ok = ResolveColumns([]string{"a", "b", "c", "d"}, aliases, required, positional)
	assert.False(t, ok)
	assert.Equal(t, positional, cols)

	assert.Equal(t, "", cols.Get([]string{"x"}, "name"))
	assert.Equal(t, "x", cols.Get([]string{"x"}, "manufacturer"))
}
