package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot maps tracked symbols to their fetched results. It remembers symbol
// order so the JSON document lists symbols in tracking order, not sorted.
type Snapshot struct {
	Symbols []string
	Results map[string]SymbolResult
}

func NewSnapshot() *Snapshot {
	return &Snapshot{Results: make(map[string]SymbolResult)}
}

func (s *Snapshot) Set(symbol string, r SymbolResult) {
	if s.Results == nil {
		s.Results = make(map[string]SymbolResult)
	}
	if _, ok := s.Results[symbol]; !ok {
		s.Symbols = append(s.Symbols, symbol)
	}
	s.Results[symbol] = r
}

func (s *Snapshot) Get(symbol string) (SymbolResult, bool) {
	if s == nil {
		return SymbolResult{}, false
	}
	r, ok := s.Results[symbol]
	return r, ok
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Symbols)
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, symbol := range s.Symbols {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(symbol)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.Results[symbol])
		if err != nil {
			return nil, fmt.Errorf("%w: can't encode %s", err, symbol)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps document order of the symbol keys.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: can't read snapshot", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("snapshot must be a JSON object")
	}

	*s = Snapshot{Results: make(map[string]SymbolResult)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: can't read symbol key", err)
		}
		symbol, _ := tok.(string)

		var r SymbolResult
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("%w: can't decode %s", err, symbol)
		}
		s.Set(symbol, r)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: can't close snapshot", err)
	}

	return nil
}
