package model

// RiskLevel represents the severity of a risk category or assessment
type RiskLevel string

const (
	LevelLow      RiskLevel = "low"
	LevelMedium   RiskLevel = "medium"
	LevelHigh     RiskLevel = "high"
	LevelCritical RiskLevel = "critical"
)

// Rank returns a numeric order for level comparisons (low=0 .. critical=3)
func (l RiskLevel) Rank() int {
	switch l {
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	case LevelCritical:
		return 3
	default:
		return 0
	}
}

// CategoryName identifies one of the seven fixed risk dimensions
type CategoryName string

const (
	CategoryDataCollection     CategoryName = "data_collection"
	CategoryDataSharing        CategoryName = "data_sharing"
	CategoryUserRights         CategoryName = "user_rights"
	CategoryAccountTermination CategoryName = "account_termination"
	CategoryLiability          CategoryName = "liability"
	CategoryChangesToTerms     CategoryName = "changes_to_terms"
	CategoryDisputeResolution  CategoryName = "dispute_resolution"
)

// CategoryOrder is the fixed declaration order of the seven categories.
// Assessment output and key-point ordering follow this order.
var CategoryOrder = [7]CategoryName{
	CategoryDataCollection,
	CategoryDataSharing,
	CategoryUserRights,
	CategoryAccountTermination,
	CategoryLiability,
	CategoryChangesToTerms,
	CategoryDisputeResolution,
}

// DisplayName returns the human-readable category name
func (c CategoryName) DisplayName() string {
	switch c {
	case CategoryDataCollection:
		return "Data Collection"
	case CategoryDataSharing:
		return "Data Sharing"
	case CategoryUserRights:
		return "User Rights"
	case CategoryAccountTermination:
		return "Account Termination"
	case CategoryLiability:
		return "Liability & Warranties"
	case CategoryChangesToTerms:
		return "Changes to Terms"
	case CategoryDisputeResolution:
		return "Dispute Resolution"
	default:
		return string(c)
	}
}

// RiskCategory is one scored dimension of an assessment
type RiskCategory struct {
	Name        CategoryName `json:"name"`
	Level       RiskLevel    `json:"level"`
	Description string       `json:"description"`        // Static per category
	Evidence    []string     `json:"evidence,omitempty"` // Matched-pattern explanations, in match order
	Impact      string       `json:"impact"`             // Static text keyed by name and level
}

// RiskAssessment is the classifier output for one fragment's text
type RiskAssessment struct {
	Overall         RiskLevel         `json:"overall"`
	Categories      [7]RiskCategory   `json:"categories"` // Fixed order, see CategoryOrder
	Summary         string            `json:"summary"`
	KeyPoints       []string          `json:"key_points,omitempty"` // At most 5
	Recommendations []string          `json:"recommendations"`
	AnalysisVersion string            `json:"analysis_version"`
}

// AnalysisResult pairs a fragment with its assessment. Immutable once
// produced; re-analysis of the same fingerprint replaces the cache entry
// with a new result.
type AnalysisResult struct {
	Fragment         Fragment       `json:"fragment"`
	Assessment       RiskAssessment `json:"assessment"`
	ProcessingTimeMs int64          `json:"processing_time_ms"` // 0 signals a cache hit
	EngineUsed       string         `json:"engine_used"`
	Confidence       float64        `json:"confidence"`
}

// IsSameContent reports whether a cached result still covers the given
// fragment: both text and title must match exactly for a cache hit to
// short-circuit re-classification.
func (r *AnalysisResult) IsSameContent(f Fragment) bool {
	return r.Fragment.Text == f.Text && r.Fragment.Title == f.Title
}
