package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// the ranking API sends amounts as JSON numbers; keep them numbers on the way out
	decimal.MarshalJSONWithoutQuotes = true
}

type Side string

const (
	Long  Side = "Long"
	Short Side = "Short"
)

// Position is one ranked perp position of a holder. Amounts are USD.
type Position struct {
	Address          string          `json:"address,omitempty"`
	AddressLabel     string          `json:"address_label,omitempty"`
	Side             Side            `json:"side"`
	PositionValueUSD decimal.Decimal `json:"position_value_usd"`
	EntryPrice       decimal.Decimal `json:"entry_price"`
	MarkPrice        *decimal.Decimal `json:"mark_price,omitempty"`
	LiquidationPrice *decimal.Decimal `json:"liquidation_price,omitempty"`
	UPnlUSD          decimal.Decimal `json:"upnl_usd"`

	PositionSize *decimal.Decimal `json:"position_size,omitempty"`
	Leverage     Leverage         `json:"leverage,omitempty"`
	LeverageType string           `json:"leverage_type,omitempty"`
	FundingUSD   *decimal.Decimal `json:"funding_usd,omitempty"`
}

// Leverage is reported either as a number or as text such as "20X".
type Leverage string

func (l *Leverage) UnmarshalJSON(b []byte) error {
	var id ID
	if err := id.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: bad leverage", err)
	}
	*l = Leverage(id)
	return nil
}

func (p Position) IsLong() bool {
	return p.Side == Long
}

func (p Position) IsShort() bool {
	return p.Side == Short
}

type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	IsLastPage bool `json:"is_last_page"`
}

// SymbolResult is the payload returned by the ranking API for one symbol,
// positions ordered by value descending as the API returned them. Data is a
// typed view; Raw keeps the payload as received and is what gets re-encoded.
type SymbolResult struct {
	Data       []Position  `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type symbolResultAlias SymbolResult

// UnmarshalJSON also accepts a bare positions array in place of the envelope.
func (r *SymbolResult) UnmarshalJSON(b []byte) error {
	raw := append(json.RawMessage(nil), bytes.TrimSpace(b)...)
	if len(raw) > 0 && raw[0] == '[' {
		var positions []Position
		if err := json.Unmarshal(raw, &positions); err != nil {
			return fmt.Errorf("%w: can't decode positions array", err)
		}
		*r = SymbolResult{Data: positions, Raw: raw}
		return nil
	}

	var alias symbolResultAlias
	if err := json.Unmarshal(raw, &alias); err != nil {
		return fmt.Errorf("%w: can't decode symbol result", err)
	}
	*r = SymbolResult(alias)
	r.Raw = raw
	return nil
}

func (r SymbolResult) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(symbolResultAlias(r))
}

func (r SymbolResult) Counts() (longs, shorts int) {
	for _, p := range r.Data {
		switch {
		case p.IsLong():
			longs++
		case p.IsShort():
			shorts++
		}
	}
	return longs, shorts
}

// Top returns the highest ranked position.
func (r SymbolResult) Top() (Position, bool) {
	if len(r.Data) == 0 {
		return Position{}, false
	}
	return r.Data[0], true
}
