package domain

import "testing"

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		from, to StageState
		want     bool
	}{
		{StateReady, StateLoading, true},
		{StateReady, StateSuccess, true},
		{StateReady, StateError, true},
		{StateLoading, StateSuccess, true},
		{StateLoading, StateError, true},
		{StateLoading, StateReady, false},
		{StateLoading, StateLoading, false},
		{StateSuccess, StateLoading, false},
		{StateSuccess, StateReady, false},
		{StateSuccess, StateError, false},
		{StateError, StateSuccess, false},
		{StateError, StateLoading, false},
	}

	for _, tt := range tests {
		if got := CanAdvance(tt.from, tt.to); got != tt.want {
			t.Errorf("CanAdvance(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestProgress_AdvanceNeverRegresses(t *testing.T) {
	var p Progress

	if !p.Advance(StageConfirm, StateLoading) {
		t.Fatal("Ready -> Loading should be allowed")
	}
	if !p.Advance(StageConfirm, StateSuccess) {
		t.Fatal("Loading -> Success should be allowed")
	}
	if p.Advance(StageConfirm, StateLoading) {
		t.Error("Success -> Loading must be rejected")
	}
	if got := p.Get(StageConfirm); got != StateSuccess {
		t.Errorf("Confirm = %s, want SUCCESS", got)
	}
}

func TestProgress_ActiveStage(t *testing.T) {
	var p Progress
	if got := p.ActiveStage(); got != StageEncrypt {
		t.Errorf("ActiveStage = %s, want Encrypt", got)
	}

	p.Advance(StageEncrypt, StateSuccess)
	p.Advance(StageConfirm, StateLoading)
	if got := p.ActiveStage(); got != StageConfirm {
		t.Errorf("ActiveStage = %s, want Confirm", got)
	}

	for _, s := range Stages {
		p.Advance(s, StateSuccess)
	}
	if got := p.ActiveStage(); got != StageSettle {
		t.Errorf("ActiveStage = %s, want Settle", got)
	}
	if p.HasError() {
		t.Error("HasError should be false")
	}
}

func TestProgress_Steps(t *testing.T) {
	var p Progress
	p.Advance(StageSettle, StateSuccess)

	steps := p.Steps()
	if len(steps) != 3 {
		t.Fatalf("expected 3 visible steps, got %d", len(steps))
	}
	if steps[2].Title != "Queue" || steps[2].State != StateSuccess {
		t.Errorf("unexpected queue step: %+v", steps[2])
	}
}
