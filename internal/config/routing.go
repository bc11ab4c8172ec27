package config

// Default engine constants. These are the operator-facing knobs from the
// decision design: the strict high-confidence cut for answering, the
// membership cut for suggestion hints, and the popularity cut for
// product-line ranking. The answer comparison is strictly greater-than
// while the membership and popularity comparisons are
// greater-than-or-equal — the two operators are intentionally distinct
// and not interchangeable.
const (
	DefaultAnswerThreshold     = 0.87
	DefaultMembershipThreshold = 0.92
	DefaultPopularityThreshold = 0.97

	DefaultGenTimeoutMS     = 4000
	DefaultGenMaxAttempts   = 3
	DefaultGenRetryDelayMS  = 500
	DefaultGenRatePerSecond = 5.0
	DefaultGenRateBurst     = 10
)

// EngineConfig carries the decision thresholds and the shared
// generative-call policy.
type EngineConfig struct {
	// AnswerThreshold is the high-confidence cut: the turn answers from
	// the knowledge base only when top1 similarity strictly exceeds it.
	AnswerThreshold float64 `mapstructure:"answer_threshold" json:"answer_threshold"`

	// MembershipThreshold is the similarity floor (inclusive) for a
	// candidate to join the topN hint set of an Answer decision.
	MembershipThreshold float64 `mapstructure:"membership_threshold" json:"membership_threshold"`

	// PopularityThreshold is the similarity floor (inclusive) for a
	// candidate's product lines to join the primary suggestion pool.
	PopularityThreshold float64 `mapstructure:"popularity_threshold" json:"popularity_threshold"`

	// GenTimeoutMS is the short deadline for the first attempt of every
	// generative call; on expiry the call is retried once with no deadline.
	GenTimeoutMS int `mapstructure:"gen_timeout_ms" json:"gen_timeout_ms"`

	// GenMaxAttempts bounds the content-validation retry loop for
	// structured extraction calls.
	GenMaxAttempts int `mapstructure:"gen_max_attempts" json:"gen_max_attempts"`

	// GenRetryDelayMS is the fixed inter-attempt delay of that loop.
	GenRetryDelayMS int `mapstructure:"gen_retry_delay_ms" json:"gen_retry_delay_ms"`

	// GenRatePerSecond / GenRateBurst bound outbound generative traffic
	// per process.
	GenRatePerSecond float64 `mapstructure:"gen_rate_per_second" json:"gen_rate_per_second"`
	GenRateBurst     int     `mapstructure:"gen_rate_burst" json:"gen_rate_burst"`
}

// RoutingConfig carries the per-site lookup tables. All maps are
// read-only after Load; a refresh replaces the whole Config.
type RoutingConfig struct {
	// PopularityOrder is the fixed product-line popularity ordering used
	// by the suggestion ranker. Lines not listed sort last, stable.
	PopularityOrder []string `mapstructure:"popularity_order" json:"popularity_order"`

	// Overrides maps "<topKBID>_<scope>" to a corrective entry whose
	// "correct" field names the KB id that must occupy rank 0 whenever
	// that (top id, scope) pair wins the filtered search.
	Overrides map[string]map[string]string `mapstructure:"overrides" json:"overrides"`

	// SiteProductLines is the per-site allow-list of product lines. A
	// resolved scope outside this list is rejected.
	SiteProductLines map[string][]string `mapstructure:"site_product_lines" json:"site_product_lines"`

	// SiteLocales maps site code to its default locale.
	SiteLocales map[string]string `mapstructure:"site_locales" json:"site_locales"`

	// DefaultLocale applies when a site has no locale mapping.
	DefaultLocale string `mapstructure:"default_locale" json:"default_locale"`
}

// OverrideFor returns the corrective KB id for a (top id, scope) pair,
// or "" when no override is registered.
func (r *RoutingConfig) OverrideFor(topID, scope string) string {
	if topID == "" || scope == "" {
		return ""
	}
	entry, ok := r.Overrides[topID+"_"+scope]
	if !ok {
		return ""
	}
	return entry["correct"]
}

// AllowedProductLine reports whether line is in site's allow-list.
// A site with no configured list allows nothing.
func (r *RoutingConfig) AllowedProductLine(site, line string) bool {
	for _, allowed := range r.SiteProductLines[site] {
		if allowed == line {
			return true
		}
	}
	return false
}

// LocaleFor returns the locale for a site, falling back to DefaultLocale.
func (r *RoutingConfig) LocaleFor(site string) string {
	if loc, ok := r.SiteLocales[site]; ok && loc != "" {
		return loc
	}
	if r.DefaultLocale != "" {
		return r.DefaultLocale
	}
	return "en"
}

// PopularityRank returns the sort rank of a product line in the fixed
// popularity table. Unlisted lines rank after all listed ones.
func (r *RoutingConfig) PopularityRank(line string) int {
	for i, l := range r.PopularityOrder {
		if l == line {
			return i
		}
	}
	return len(r.PopularityOrder)
}
