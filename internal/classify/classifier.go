package classify

import (
	"fmt"
	"strings"

	"github.com/clauseguard/clauseguard/internal/model"
)

// Classifier produces a risk assessment from legal text. It is pure and
// deterministic: same input always yields the same output, no I/O, no
// randomness. It never fails; text matching nothing yields a low-risk
// assessment (modulo the user-rights default, see evaluateUserRights).
type Classifier struct{}

// NewClassifier creates a new rule-table classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify evaluates the seven risk categories independently and
// aggregates them into an overall level
func (c *Classifier) Classify(text string) model.RiskAssessment {
	lower := strings.ToLower(text)

	categories := [7]model.RiskCategory{
		evaluateLadder(model.CategoryDataCollection, lower, dataCollectionTiers),
		evaluateLadder(model.CategoryDataSharing, lower, dataSharingTiers),
		evaluateUserRights(lower),
		evaluateLadder(model.CategoryAccountTermination, lower, accountTerminationTiers),
		evaluateLadder(model.CategoryLiability, lower, liabilityTiers),
		evaluateLadder(model.CategoryChangesToTerms, lower, changesToTermsTiers),
		evaluateDisputeResolution(text),
	}

	overall := aggregate(categories)

	return model.RiskAssessment{
		Overall:         overall,
		Categories:      categories,
		Summary:         buildSummary(overall, categories),
		KeyPoints:       buildKeyPoints(categories),
		Recommendations: buildRecommendations(categories),
		AnalysisVersion: AnalysisVersion,
	}
}

// evaluateLadder walks a category's tiers from most to least severe.
// The first tier with any match wins; evidence lists every term that
// matched within the winning tier, in table order. No match yields low.
func evaluateLadder(name model.CategoryName, lower string, tiers []tier) model.RiskCategory {
	level := model.LevelLow
	var evidence []string

	for _, t := range tiers {
		for _, term := range t.terms {
			if strings.Contains(lower, term) {
				evidence = append(evidence, fmt.Sprintf("matched %q (%s)", term, t.level))
			}
		}
		if len(evidence) > 0 {
			level = t.level
			break
		}
	}

	return model.RiskCategory{
		Name:        name,
		Level:       level,
		Description: categoryDescriptions[name],
		Evidence:    evidence,
		Impact:      impactFor(name, level),
	}
}

// evaluateUserRights is inverted: the default is high (assume weak
// rights) and rights-granting terms lower the level. Three or more
// distinct terms yield low, one or two yield medium, none leaves high.
// Critical is never produced here: absence of matches does not prove
// that no rights exist, so high is the ceiling.
func evaluateUserRights(lower string) model.RiskCategory {
	var evidence []string
	found := 0

	for _, term := range userRightsTerms {
		if strings.Contains(lower, term) {
			found++
			evidence = append(evidence, fmt.Sprintf("rights term %q found", term))
		}
	}
	for _, q := range userRightsQualifiers {
		if strings.Contains(lower, q) {
			evidence = append(evidence, fmt.Sprintf("rights qualifier %q found", q))
		}
	}

	level := model.LevelHigh
	switch {
	case found >= 3:
		level = model.LevelLow
	case found >= 1:
		level = model.LevelMedium
	}

	return model.RiskCategory{
		Name:        model.CategoryUserRights,
		Level:       level,
		Description: categoryDescriptions[model.CategoryUserRights],
		Evidence:    evidence,
		Impact:      impactFor(model.CategoryUserRights, level),
	}
}

// evaluateDisputeResolution matches regexes over the full text.
// Critical requires binding arbitration combined with a class-action
// or jury-trial waiver.
func evaluateDisputeResolution(text string) model.RiskCategory {
	level := model.LevelLow
	var evidence []string

	arbitration := bindingArbitrationRe.FindString(text)
	classWaiver := classActionWaiverRe.FindString(text)
	juryWaiver := juryTrialWaiverRe.FindString(text)

	if arbitration != "" && (classWaiver != "" || juryWaiver != "") {
		level = model.LevelCritical
		evidence = append(evidence, fmt.Sprintf("binding arbitration %q (critical)", arbitration))
		if classWaiver != "" {
			evidence = append(evidence, fmt.Sprintf("class action waiver %q (critical)", classWaiver))
		}
		if juryWaiver != "" {
			evidence = append(evidence, fmt.Sprintf("jury trial waiver %q (critical)", juryWaiver))
		}
	} else {
		for _, p := range disputeHighPatterns {
			if m := p.re.FindString(text); m != "" {
				evidence = append(evidence, fmt.Sprintf("%s %q (high)", p.name, m))
			}
		}
		if len(evidence) > 0 {
			level = model.LevelHigh
		}
	}

	return model.RiskCategory{
		Name:        model.CategoryDisputeResolution,
		Level:       level,
		Description: categoryDescriptions[model.CategoryDisputeResolution],
		Evidence:    evidence,
		Impact:      impactFor(model.CategoryDisputeResolution, level),
	}
}

// aggregate computes the overall level. The order of checks matters and
// the first matching rule wins:
//  1. any critical category -> critical
//  2. two or more high categories -> high
//  3. one high category -> high
//  4. three or more medium categories -> high
//  5. one or more medium categories -> medium
//  6. otherwise low
func aggregate(categories [7]model.RiskCategory) model.RiskLevel {
	var criticals, highs, mediums int
	for _, cat := range categories {
		switch cat.Level {
		case model.LevelCritical:
			criticals++
		case model.LevelHigh:
			highs++
		case model.LevelMedium:
			mediums++
		}
	}

	switch {
	case criticals > 0:
		return model.LevelCritical
	case highs >= 2:
		return model.LevelHigh
	case highs >= 1:
		return model.LevelHigh
	case mediums >= 3:
		// Breadth of medium-severity concerns counts as a single high
		return model.LevelHigh
	case mediums >= 1:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// buildSummary templates a single paragraph from the overall level and
// the names of the high/critical categories
func buildSummary(overall model.RiskLevel, categories [7]model.RiskCategory) string {
	var flagged []string
	for _, cat := range categories {
		if cat.Level == model.LevelHigh || cat.Level == model.LevelCritical {
			flagged = append(flagged, cat.Name.DisplayName())
		}
	}

	switch overall {
	case model.LevelCritical:
		return fmt.Sprintf("This document contains terms that pose a critical risk to your data or legal rights. Areas of greatest concern: %s. Read these sections in full before accepting.",
			strings.Join(flagged, ", "))
	case model.LevelHigh:
		if len(flagged) > 0 {
			return fmt.Sprintf("This document contains high-risk terms. Areas of concern: %s. Review them before accepting.",
				strings.Join(flagged, ", "))
		}
		return "This document raises several moderate concerns that together warrant a careful review before accepting."
	case model.LevelMedium:
		return "This document contains some terms worth noting, but nothing unusual for agreements of this kind."
	default:
		return "No significant risk terms were found in this document."
	}
}

// buildKeyPoints lists one line per category at medium or above, in
// fixed category order, high/critical prefixed distinctly from medium,
// truncated to five entries
func buildKeyPoints(categories [7]model.RiskCategory) []string {
	var points []string
	for _, cat := range categories {
		switch cat.Level {
		case model.LevelHigh, model.LevelCritical:
			points = append(points, fmt.Sprintf("[!] %s (%s): %s", cat.Name.DisplayName(), cat.Level, cat.Impact))
		case model.LevelMedium:
			points = append(points, fmt.Sprintf("[~] %s: %s", cat.Name.DisplayName(), cat.Impact))
		}
		if len(points) == 5 {
			break
		}
	}
	return points
}

// buildRecommendations templates short actionable strings from specific
// category/level combinations, with a generic fallback when none apply
func buildRecommendations(categories [7]model.RiskCategory) []string {
	levelOf := func(name model.CategoryName) model.RiskLevel {
		for _, cat := range categories {
			if cat.Name == name {
				return cat.Level
			}
		}
		return model.LevelLow
	}

	var recs []string

	switch levelOf(model.CategoryDataSharing) {
	case model.LevelCritical:
		recs = append(recs, "Check for an opt-out of data sale before accepting; your data may be sold.")
	case model.LevelHigh:
		recs = append(recs, "Review which third parties receive your data and limit sharing where possible.")
	}
	if levelOf(model.CategoryDataCollection) == model.LevelHigh {
		recs = append(recs, "Limit the personal data you provide; detailed tracking or location data is collected.")
	}
	if levelOf(model.CategoryUserRights) == model.LevelHigh {
		recs = append(recs, "No clear data rights are stated; contact the provider about deletion and access before relying on the service.")
	}

	if len(recs) == 0 {
		recs = append(recs, "Read the full document before accepting; automated review is no substitute for it.")
	}
	return recs
}
