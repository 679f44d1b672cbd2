package model

import (
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestConfigSetGet(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Set("threshold", 0.3))
	require.NoError(t, c.Set("trim_to_window_size", 30))
	require.NoError(t, c.Set("name", "metacluster_0"))

	var f float64
	ok, err := c.Get("threshold", &f)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0.3, f)

	var missing int
	ok, err = c.Get("absent", &missing)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConfigKeyOrder(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Set("z", 1))
	require.NoError(t, c.Set("a", 2))
	require.NoError(t, c.Set("m", 3))
	require.Equal(t, []string{"z", "a", "m"}, c.Keys())

	// Re-setting keeps the original position.
	require.NoError(t, c.Set("a", 99))
	require.Equal(t, []string{"z", "a", "m"}, c.Keys())

	var v int
	_, err := c.Get("a", &v)
	require.NoError(t, err)
	require.Equal(t, 99, v)
}

func TestConfigJSONRoundTrip(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Set("beta", 0.5))
	require.NoError(t, c.Set("alpha", []int{1, 2, 3}))
	require.NoError(t, c.Set("nested", map[string]string{"k": "v"}))

	data, err := gojson.Marshal(c)
	require.NoError(t, err)

	var back Config
	require.NoError(t, gojson.Unmarshal(data, &back))
	require.True(t, c.Equal(back))
	require.Equal(t, []string{"beta", "alpha", "nested"}, back.Keys())
}

func TestConfigUnmarshalPreservesInputOrder(t *testing.T) {
	var c Config
	require.NoError(t, gojson.Unmarshal([]byte(`{"b":1,"a":{"x":[1,2]},"c":null}`), &c))
	require.Equal(t, []string{"b", "a", "c"}, c.Keys())

	data, err := gojson.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, `{"b":1,"a":{"x":[1,2]},"c":null}`, string(data))
}

func TestConfigUnmarshalRejectsNonObject(t *testing.T) {
	var c Config
	require.Error(t, gojson.Unmarshal([]byte(`[1,2]`), &c))
	require.Error(t, gojson.Unmarshal([]byte(`"str"`), &c))
}

func TestConfigEqual(t *testing.T) {
	a := NewConfig()
	require.NoError(t, a.Set("k", 1))

	b := NewConfig()
	require.NoError(t, b.Set("k", 1))
	require.True(t, a.Equal(b))

	// Same keys, different order: not equal.
	c := NewConfig()
	require.NoError(t, c.Set("k2", 2))
	require.NoError(t, c.Set("k", 1))

	d := NewConfig()
	require.NoError(t, d.Set("k", 1))
	require.NoError(t, d.Set("k2", 2))
	require.False(t, c.Equal(d))
}
