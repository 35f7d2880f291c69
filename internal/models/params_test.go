package models

import (
	"math"
	"testing"
	"time"

	"hedge_bot/internal/apperr"
)

func TestApplyMergesOnlyProvidedFields(t *testing.T) {
	base := DefaultParameters()
	sl := 2.5
	next, err := ParamsUpdate{StopLossPct: &sl}.Apply(base)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if next.StopLossPct != 2.5 {
		t.Fatalf("stop loss not applied: %v", next.StopLossPct)
	}
	if next.TradeSize != base.TradeSize || next.TrailingStopPct != base.TrailingStopPct || next.HoldDuration != base.HoldDuration {
		t.Fatalf("unrelated fields changed: %+v", next)
	}
}

func TestApplyRejectsInvalidWithoutTouchingBase(t *testing.T) {
	base := DefaultParameters()
	zero := 0.0
	got, err := ParamsUpdate{TradeSize: &zero}.Apply(base)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !got.Equal(base) {
		t.Fatalf("expected base returned on error")
	}
}

func TestApplyEmptyInstrumentsPauses(t *testing.T) {
	base := DefaultParameters()
	base.Instruments = []string{"BTCUSDT"}
	empty := []string{}
	next, err := ParamsUpdate{Instruments: &empty}.Apply(base)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !next.Paused() {
		t.Fatalf("expected paused, got %v", next.Instruments)
	}
	if len(base.Instruments) != 1 {
		t.Fatalf("base mutated: %v", base.Instruments)
	}
}

func TestValidateDuplicates(t *testing.T) {
	p := DefaultParameters()
	p.Instruments = []string{"BTCUSDT", "BTCUSDT"}
	if err := p.Validate(); !apperr.IsValidation(err) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestValidateRejectsNaN(t *testing.T) {
	p := DefaultParameters()
	p.StopLossPct = math.NaN()
	if err := p.Validate(); !apperr.IsValidation(err) {
		t.Fatalf("expected NaN rejection, got %v", err)
	}
}

func TestNormalizeInstruments(t *testing.T) {
	got := NormalizeInstruments([]string{"dogeusdt", " 1000PEPEUSDT", "DOGEUSDT", "", "btcusdt"})
	want := []string{"DOGEUSDT", "1000PEPEUSDT", "BTCUSDT"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestSlotSides(t *testing.T) {
	if SlotLong.Side() != SideBuy || SlotLong.CloseSide() != SideSell {
		t.Fatalf("long slot sides wrong")
	}
	if SlotShort.Side() != SideSell || SlotShort.CloseSide() != SideBuy {
		t.Fatalf("short slot sides wrong")
	}
	if DefaultParameters().HoldDuration != 10*time.Second {
		t.Fatalf("unexpected default hold")
	}
}
