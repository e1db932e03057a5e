package trades

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tradepeer/tradepeer-api/internal/types"
)

// TradeInput carries a raw trade submission. Numeric and date fields arrive
// as strings, exactly as the submission form posts them.
type TradeInput struct {
	AssetPair    string `json:"asset_pair"`
	TradeType    string `json:"trade_type"`
	EntryPrice   string `json:"entry_price"`
	ExitPrice    string `json:"exit_price"`
	PositionSize string `json:"position_size"`
	Strategy     string `json:"strategy"`
	Notes        string `json:"notes"`
	TradeDate    string `json:"trade_date"`
	Status       string `json:"status"`
}

// Accepted layouts for trade_date. Date-only is what the submission form
// sends; RFC3339 covers API clients.
var tradeDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Validate normalizes and checks a trade submission. Checks run in order and
// stop at the first failure; nothing is written until the whole input passes.
// On success the returned Trade carries normalized fields only - the caller
// injects ownership and identity.
func Validate(input TradeInput, now time.Time) (*types.Trade, error) {
	if input.AssetPair == "" || input.TradeType == "" || input.EntryPrice == "" ||
		input.Strategy == "" || input.TradeDate == "" {
		return nil, types.NewValidationError("form", "Please fill in all required fields")
	}

	if input.TradeType != types.TradeTypeLong && input.TradeType != types.TradeTypeShort {
		return nil, types.NewValidationError("trade_type", "Invalid trade type")
	}

	if input.Strategy != types.StrategyScalp && input.Strategy != types.StrategySwing &&
		input.Strategy != types.StrategyDayTrade {
		return nil, types.NewValidationError("strategy", "Invalid strategy")
	}

	entryPrice, ok := parsePositive(input.EntryPrice)
	if !ok {
		return nil, types.NewValidationError("entry_price", "Entry price must be a positive number")
	}

	var exitPrice *float64
	if strings.TrimSpace(input.ExitPrice) != "" {
		v, ok := parsePositive(input.ExitPrice)
		if !ok {
			return nil, types.NewValidationError("exit_price", "Exit price must be a positive number")
		}
		exitPrice = &v
	}

	var positionSize *float64
	if strings.TrimSpace(input.PositionSize) != "" {
		v, ok := parsePositive(input.PositionSize)
		if !ok {
			return nil, types.NewValidationError("position_size", "Position size must be a positive number")
		}
		positionSize = &v
	}

	tradeDate, err := parseTradeDate(input.TradeDate)
	if err != nil {
		return nil, types.NewValidationError("trade_date", "Invalid trade date")
	}
	if tradeDate.After(now) {
		return nil, types.NewValidationError("trade_date", "Trade date cannot be in the future")
	}

	var notes *string
	if trimmed := strings.TrimSpace(input.Notes); trimmed != "" {
		notes = &trimmed
	}

	status := input.Status
	if status == "" {
		status = types.TradeStatusOpen
	}

	return &types.Trade{
		AssetPair:    strings.TrimSpace(input.AssetPair),
		TradeType:    input.TradeType,
		EntryPrice:   entryPrice,
		ExitPrice:    exitPrice,
		PositionSize: positionSize,
		Strategy:     input.Strategy,
		Notes:        notes,
		Status:       status,
		TradeDate:    tradeDate,
	}, nil
}

// parsePositive reports whether s parses to a finite number greater than zero.
func parsePositive(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

func parseTradeDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range tradeDateLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
