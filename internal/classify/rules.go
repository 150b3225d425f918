package classify

import (
	"regexp"

	"github.com/clauseguard/clauseguard/internal/model"
)

// AnalysisVersion tags the rule tables used to produce an assessment.
// Bump when any pattern table or template below changes.
const AnalysisVersion = "rules-v1"

// tier is one severity rung of a category ladder. Tiers are evaluated
// from most to least severe; the first tier with any match wins.
type tier struct {
	level model.RiskLevel
	terms []string // lowercase substrings
}

// Pattern tables. All matching is case-insensitive substring matching
// against the lowercased input, except dispute resolution which uses
// regexes over the full text.

var dataCollectionTiers = []tier{
	{model.LevelCritical, []string{
		"biometric",
		"genetic",
		"health data",
		"health record",
		"medical information",
		"financial information",
		"bank account",
		"sensitive personal",
	}},
	{model.LevelHigh, []string{
		"precise location",
		"geolocation",
		"device fingerprint",
		"behavioral data",
		"facial recognition",
		"browsing history",
	}},
	{model.LevelMedium, []string{
		"personal information",
		"personal data",
		"cookie",
		"tracking",
		"ip address",
		"usage data",
		"log data",
	}},
}

var dataSharingTiers = []tier{
	{model.LevelCritical, []string{
		"sell your personal information",
		"sell your information",
		"sell your data",
		"sale of personal information",
		"sell personal data",
		"monetize your data",
		"monetize user data",
	}},
	{model.LevelHigh, []string{
		"third party",
		"third parties",
		"third-party",
		"affiliate",
		"advertising network",
		"advertisers",
		"data broker",
	}},
	{model.LevelMedium, []string{
		"service provider",
		"analytics",
		"marketing",
	}},
}

// User Rights is inverted: the default level is high (assume weak rights)
// and finding rights-granting terms lowers it. Qualifier terms are
// recorded as evidence but never change the level.
var userRightsTerms = []string{
	"delete your",
	"deletion",
	"right to erasure",
	"data portability",
	"opt out",
	"opt-out",
	"access your data",
	"access your personal",
	"correct your",
	"rectification",
	"withdraw consent",
	"withdraw your consent",
}

var userRightsQualifiers = []string{
	"to the extent required by law",
	"where technically feasible",
	"subject to verification",
	"at our discretion",
	"we may decline",
}

var accountTerminationTiers = []tier{
	{model.LevelHigh, []string{
		"terminate at any time",
		"terminate your account at any time",
		"terminate without notice",
		"termination without notice",
		"suspend or terminate",
		"no refund",
		"without refund",
		"sole discretion",
	}},
	{model.LevelMedium, []string{
		"terminate for cause",
		"reasonable notice",
		"material breach",
	}},
}

// Liability has no medium tier: warranty disclaimers are either the
// sweeping kind or not a concern.
var liabilityTiers = []tier{
	{model.LevelHigh, []string{
		"disclaim all warranties",
		"without warranties",
		"without warranty",
		"\"as is\"",
		"as is basis",
		"as-is",
		"limitation of liability",
		"not liable",
		"shall not be liable",
		"at your own risk",
		"sole risk",
	}},
}

var changesToTermsTiers = []tier{
	{model.LevelHigh, []string{
		"change without notice",
		"changes without notice",
		"change these terms at any time",
		"modify these terms at any time",
		"modify at any time",
		"sole discretion to modify",
		"modify at our sole discretion",
	}},
	{model.LevelMedium, []string{
		"notify you of changes",
		"notify you of any changes",
		"notice of changes",
		"notification of changes",
	}},
}

// Dispute resolution is matched via regexes over the full text. Critical
// requires binding arbitration combined with a class-action or jury-trial
// waiver.
var (
	bindingArbitrationRe = regexp.MustCompile(`(?i)(?:binding|mandatory)\s+arbitration|agree\s+to\s+(?:binding\s+)?arbitrat`)
	classActionWaiverRe  = regexp.MustCompile(`(?i)class[\s-]action\s+waiver|waive[sd]?\s+(?:any|your|the)\s+right\s+to\s+(?:participate\s+in\s+)?(?:a\s+)?class\s+action|no\s+class\s+actions?`)
	juryTrialWaiverRe    = regexp.MustCompile(`(?i)jury[\s-]trial\s+waiver|waive[sd]?\s+(?:any|your|the)\s+right\s+to\s+(?:a\s+)?(?:trial\s+by\s+jury|jury\s+trial)`)
)

// disputeHighPatterns are checked only if no critical combination matched.
var disputeHighPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"arbitration clause", regexp.MustCompile(`(?i)\barbitrat(?:e|ion|or)`)},
	{"exclusive venue", regexp.MustCompile(`(?i)exclusive\s+(?:jurisdiction|venue)|\bvenue\b`)},
	{"governing law", regexp.MustCompile(`(?i)governing\s+law|governed\s+by\s+the\s+laws`)},
	{"limitation period", regexp.MustCompile(`(?i)within\s+one\s*(?:\(1\))?\s*year|limitation\s+period`)},
}

// categoryDescriptions are static per category.
var categoryDescriptions = map[model.CategoryName]string{
	model.CategoryDataCollection:     "What personal data the service gathers and how invasive that collection is.",
	model.CategoryDataSharing:        "Whether collected data is shared with, or sold to, outside parties.",
	model.CategoryUserRights:         "How much control you retain over your data: deletion, access, portability, consent withdrawal.",
	model.CategoryAccountTermination: "Under what conditions the service can suspend or terminate your account.",
	model.CategoryLiability:          "How far the service disclaims warranties and limits its own liability.",
	model.CategoryChangesToTerms:     "How the service may change these terms and whether you will be told.",
	model.CategoryDisputeResolution:  "How disagreements are resolved and which legal avenues are closed off.",
}

// categoryImpacts are static per category and level.
var categoryImpacts = map[model.CategoryName]map[model.RiskLevel]string{
	model.CategoryDataCollection: {
		model.LevelLow:      "Only routine operational data appears to be collected.",
		model.LevelMedium:   "Common personal information and tracking data are collected.",
		model.LevelHigh:     "Detailed location, behavioral, or biometric-adjacent data is collected.",
		model.LevelCritical: "Highly sensitive data such as biometric, health, or financial records is collected.",
	},
	model.CategoryDataSharing: {
		model.LevelLow:      "No significant sharing of your data with outside parties is described.",
		model.LevelMedium:   "Data is shared with service providers or used for analytics and marketing.",
		model.LevelHigh:     "Data is shared with third parties, affiliates, or advertising networks.",
		model.LevelCritical: "Your data may be sold or monetized outright.",
	},
	model.CategoryUserRights: {
		model.LevelLow:      "Several concrete rights over your data are granted.",
		model.LevelMedium:   "Some rights over your data are granted, but coverage is thin.",
		model.LevelHigh:     "Few or no rights over your data are stated; assume weak control.",
		model.LevelCritical: "User rights are effectively absent.",
	},
	model.CategoryAccountTermination: {
		model.LevelLow:      "No aggressive termination terms were found.",
		model.LevelMedium:   "Termination requires cause or comes with reasonable notice.",
		model.LevelHigh:     "The service can terminate unilaterally, without notice or refund.",
		model.LevelCritical: "Termination terms are maximally one-sided.",
	},
	model.CategoryLiability: {
		model.LevelLow:      "No sweeping warranty disclaimers were found.",
		model.LevelMedium:   "Some liability limitations apply.",
		model.LevelHigh:     "All warranties are disclaimed; you use the service entirely at your own risk.",
		model.LevelCritical: "Liability exposure is shifted wholly onto you.",
	},
	model.CategoryChangesToTerms: {
		model.LevelLow:      "No unilateral change-of-terms language was found.",
		model.LevelMedium:   "Terms may change, but you will be notified.",
		model.LevelHigh:     "Terms can change at any time, possibly without notice.",
		model.LevelCritical: "Terms can be rewritten unilaterally and silently.",
	},
	model.CategoryDisputeResolution: {
		model.LevelLow:      "No restrictive dispute terms were found.",
		model.LevelMedium:   "Some constraints on dispute resolution apply.",
		model.LevelHigh:     "Disputes are funneled into arbitration or a fixed venue with time limits.",
		model.LevelCritical: "Binding arbitration combined with a class-action or jury-trial waiver removes your day in court.",
	},
}

func impactFor(name model.CategoryName, level model.RiskLevel) string {
	if m, ok := categoryImpacts[name]; ok {
		if s, ok := m[level]; ok {
			return s
		}
	}
	return ""
}
