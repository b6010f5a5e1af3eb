package location

import (
	"testing"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
)

func TestTierForCategory(t *testing.T) {
	cases := []struct {
		category string
		found    bool
		want     RiskTier
	}{
		{"cafe", true, TierSafe},
		{"restaurant", true, TierSafe},
		{"bar", true, TierSafe},
		{"park", true, TierSafe},
		{"museum", true, TierSafe},
		{"library", true, TierSafe},
		{"hotel", true, TierElevated},
		{"lodging", true, TierElevated},
		{"private_residence", true, TierElevated},
		{"night_club", true, TierElevated},
		{"", false, TierHigh},
	}

	for _, tc := range cases {
		if got := TierForCategory(tc.category, tc.found); got != tc.want {
			t.Errorf("TierForCategory(%q, %v) = %s, want %s", tc.category, tc.found, got, tc.want)
		}
	}
}

func TestProtectionsEscalateWithTier(t *testing.T) {
	standard := risk.ProfileForCategory(risk.CategoryStandard)

	safe := ProtectionsFor(TierSafe, standard)
	if safe.EnhancedSelfieRequired || safe.TrustedContactRequired || safe.SafetyTimerMinutes != 0 || safe.MeetingBlocked {
		t.Fatalf("SAFE must require nothing, got %+v", safe)
	}

	elevated := ProtectionsFor(TierElevated, standard)
	if !elevated.EnhancedSelfieRequired || elevated.TrustedContactRequired || elevated.MeetingBlocked {
		t.Fatalf("ELEVATED must require the selfie only, got %+v", elevated)
	}
	if elevated.SafetyTimerMinutes != 60 {
		t.Fatalf("expected the standard 60 minute timer at ELEVATED, got %d", elevated.SafetyTimerMinutes)
	}

	high := ProtectionsFor(TierHigh, standard)
	if !high.EnhancedSelfieRequired || !high.TrustedContactRequired || high.MeetingBlocked {
		t.Fatalf("HIGH must add the trusted contact, got %+v", high)
	}
	if high.SafetyTimerMinutes != 30 {
		t.Fatalf("expected the shortened 30 minute timer at HIGH, got %d", high.SafetyTimerMinutes)
	}

	blocked := ProtectionsFor(TierBlocked, standard)
	if !blocked.MeetingBlocked || !blocked.EnhancedSelfieRequired || !blocked.TrustedContactRequired {
		t.Fatalf("BLOCKED must carry every measure, got %+v", blocked)
	}
}

func TestVulnerableCategoryOnlyTightens(t *testing.T) {
	standard := risk.ProfileForCategory(risk.CategoryStandard)
	vulnerable := risk.ProfileForCategory(risk.CategoryWomanDatingMen)

	elevated := ProtectionsFor(TierElevated, vulnerable)
	if !elevated.TrustedContactRequired {
		t.Fatal("vulnerable categories require the trusted contact one tier early")
	}
	if elevated.SafetyTimerMinutes != 30 {
		t.Fatalf("expected the 30 minute category timer, got %d", elevated.SafetyTimerMinutes)
	}

	for _, tier := range []RiskTier{TierSafe, TierElevated, TierHigh, TierBlocked} {
		base := ProtectionsFor(tier, standard)
		tight := ProtectionsFor(tier, vulnerable)

		if base.EnhancedSelfieRequired && !tight.EnhancedSelfieRequired {
			t.Errorf("%s: category profile loosened the selfie requirement", tier)
		}
		if base.TrustedContactRequired && !tight.TrustedContactRequired {
			t.Errorf("%s: category profile loosened the trusted contact", tier)
		}
		if base.SafetyTimerMinutes != 0 && tight.SafetyTimerMinutes > base.SafetyTimerMinutes {
			t.Errorf("%s: category profile lengthened the timer: %d > %d", tier, tight.SafetyTimerMinutes, base.SafetyTimerMinutes)
		}
		if base.MeetingBlocked != tight.MeetingBlocked {
			t.Errorf("%s: category profile changed the block decision", tier)
		}
	}
}
