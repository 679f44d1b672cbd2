package model

import (
	"bytes"
	"fmt"

	gojson "github.com/goccy/go-json"
)

// Config is the opaque per-submetacluster configuration blob. Its shape varies
// by algorithm configuration and is not interpreted here, so it is kept as an
// order-preserving string-keyed JSON document rather than a fixed schema.
type Config struct {
	keys   []string
	values map[string]gojson.RawMessage
}

// NewConfig returns an empty configuration document.
func NewConfig() Config {
	return Config{values: make(map[string]gojson.RawMessage)}
}

// Set stores a value under key, encoding it as JSON. Insertion order is
// preserved; setting an existing key keeps its original position.
func (c *Config) Set(key string, v any) error {
	raw, err := gojson.Marshal(v)
	if err != nil {
		return fmt.Errorf("config value %q: %w", key, err)
	}
	if c.values == nil {
		c.values = make(map[string]gojson.RawMessage)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = raw
	return nil
}

// Get decodes the value stored under key into out. It returns false when the
// key is absent.
func (c Config) Get(key string, out any) (bool, error) {
	raw, ok := c.values[key]
	if !ok {
		return false, nil
	}
	if err := gojson.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("config value %q: %w", key, err)
	}
	return true, nil
}

// Keys returns the keys in insertion order.
func (c Config) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of keys.
func (c Config) Len() int { return len(c.keys) }

// Equal reports whether two documents hold the same keys in the same order
// with byte-identical encoded values.
func (c Config) Equal(o Config) bool {
	if len(c.keys) != len(o.keys) {
		return false
	}
	for i, key := range c.keys {
		if o.keys[i] != key {
			return false
		}
		if !bytes.Equal(c.values[key], o.values[key]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the document as a JSON object in key insertion order.
func (c Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := gojson.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(c.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, recording key order as it appears in
// the input.
func (c *Config) UnmarshalJSON(data []byte) error {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(gojson.Delim); !ok || delim != '{' {
		return fmt.Errorf("config must be a JSON object, got %v", tok)
	}
	c.keys = nil
	c.values = make(map[string]gojson.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("config key must be a string, got %v", tok)
		}
		var raw gojson.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("config value %q: %w", key, err)
		}
		if _, dup := c.values[key]; !dup {
			c.keys = append(c.keys, key)
		}
		c.values[key] = raw
	}
	// consume closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
