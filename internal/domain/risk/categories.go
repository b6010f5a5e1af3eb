package risk

// CategoryProfile is the per-safety-category protection policy. It only
// tightens the location-tier baseline (shorter timer, trusted contact one
// tier early) and sets the score threshold at which staff are alerted.
// It never relaxes a baseline protection.
type CategoryProfile struct {
	Category SafetyCategory

	// SafetyTimerMinutes is the check-in timer applied from the ELEVATED
	// location tier upward. Higher tiers cap it further; the category
	// value can only shorten the cap.
	SafetyTimerMinutes int

	// TrustedContactAtElevated requires the trusted-contact protection
	// one tier early, at ELEVATED instead of HIGH.
	TrustedContactAtElevated bool

	// AlertScoreThreshold is the risk score at which a staff alert fires
	// for users in this category.
	AlertScoreThreshold int
}

var defaultCategoryProfile = CategoryProfile{
	Category:            CategoryStandard,
	SafetyTimerMinutes:  60,
	AlertScoreThreshold: 600,
}

var categoryProfiles = map[SafetyCategory]CategoryProfile{
	CategoryStandard: defaultCategoryProfile,
	CategoryManDatingWomen: {
		Category:            CategoryManDatingWomen,
		SafetyTimerMinutes:  60,
		AlertScoreThreshold: 600,
	},
	CategoryNewAccount: {
		Category:            CategoryNewAccount,
		SafetyTimerMinutes:  45,
		AlertScoreThreshold: 500,
	},
	CategoryInfluencer: {
		Category:            CategoryInfluencer,
		SafetyTimerMinutes:  45,
		AlertScoreThreshold: 500,
	},
	CategoryWomanDatingMen: {
		Category:                 CategoryWomanDatingMen,
		SafetyTimerMinutes:       30,
		TrustedContactAtElevated: true,
		AlertScoreThreshold:      450,
	},
	CategoryNonbinary: {
		Category:                 CategoryNonbinary,
		SafetyTimerMinutes:       30,
		TrustedContactAtElevated: true,
		AlertScoreThreshold:      450,
	},
}

// ProfileForCategory returns the protection policy for a category.
// Unknown categories fall back to the standard policy.
func ProfileForCategory(c SafetyCategory) CategoryProfile {
	if p, ok := categoryProfiles[c]; ok {
		return p
	}
	return defaultCategoryProfile
}
