package bitmatch

// Pattern names a correction scenario.
type Pattern string

const (
	BulkMint     Pattern = "BULK_MINT"     // one payment, several dust outputs
	MintBuy      Pattern = "MINT_BUY"      // payment plus one dust output
	SelfTransfer Pattern = "SELF_TRANSFER" // funds moved between own wallets
	GasFee       Pattern = "GAS_FEE"       // small unpaired payment
	Sale         Pattern = "SALE"          // unpaired non-dust receipt
)

// Patterns lists every pattern in evaluation order.
var Patterns = []Pattern{BulkMint, MintBuy, SelfTransfer, GasFee, Sale}

// Severity ranks how much a misclassification distorts a tax report.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL" // only used by anomalies
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Severities lists the severities a correction suggestion can carry.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// TaxImpact is the effect of applying a correction on taxable events.
type TaxImpact string

const (
	EstablishesCostBasis TaxImpact = "ESTABLISHES_COST_BASIS"
	NonTaxable           TaxImpact = "NON_TAXABLE"
	TaxDeductible        TaxImpact = "TAX_DEDUCTIBLE"
	TaxableIncome        TaxImpact = "TAXABLE_INCOME"
)

// ActionType is a concrete edit to apply in the tax tool.
type ActionType string

const (
	Ignore            ActionType = "IGNORE"
	ReclassifyAsTrade ActionType = "RECLASSIFY_AS_TRADE"
	ReclassifyAsFee   ActionType = "RECLASSIFY_AS_FEE"
	Merge             ActionType = "MERGE"
)

// UnidentifiedAsset is the placeholder for an asset the classifier cannot
// name. Resolving it is left to the presentation layer, using Derived.Meta
// and Derived.Reference.
const UnidentifiedAsset = "UNIDENTIFIED"

// Derived holds the ready-to-apply values of an action.
type Derived struct {
	SentAsset        string
	SentQuantity     Quantity
	ReceivedAsset    string
	ReceivedQuantity Quantity
	Unidentified     bool      // one side of the trade needs external identification
	Meta             AssetMeta // copied verbatim from the record carrying the asset
	Reference        string    // external id of the record carrying the asset
}

// Action is one edit of a CorrectionSuggestion.
type Action struct {
	Type      ActionType
	Targets   []Record
	Rationale string
	Warning   string
	Derived   *Derived
}

// CorrectionSuggestion is the outcome of classifying an EventGroup.
type CorrectionSuggestion struct {
	Pattern    Pattern
	Confidence float64
	Severity   Severity
	TaxImpact  TaxImpact
	GroupKey   string
	Affected   []Record
	Actions    []Action
}

// shape is the direction split of a group, computed once per classification.
type shape struct {
	in, out []Record
	dustIn  int
	allDust bool
	cfg     Config
}

func newShape(g EventGroup, cfg Config) shape {
	s := shape{in: g.Inbound(), out: g.Outbound(), cfg: cfg}
	for _, r := range s.in {
		if s.isDust(r) {
			s.dustIn++
		}
	}
	s.allDust = len(s.in) > 0 && s.dustIn == len(s.in)
	return s
}

// isDust reports whether |amount| <= the configured dust threshold.
func (s shape) isDust(r Record) bool {
	return r.Amount.Abs().LessThanOrEqual(s.cfg.DustThreshold)
}

// rule is one row of the classification table.
type rule struct {
	pattern    Pattern
	confidence float64
	severity   Severity
	impact     TaxImpact
	applies    func(s shape) bool
	actions    func(s shape) []Action
}

// rules are evaluated in order, the first applicable rule wins. Bulk mint
// and mint/buy both read "payment plus dust"; the dust count tells them apart.
var rules = []rule{
	{
		pattern: BulkMint, confidence: 0.95, severity: SeverityHigh, impact: EstablishesCostBasis,
		applies: func(s shape) bool {
			return len(s.out) == 1 && len(s.in) > 1 && s.allDust
		},
		actions: func(s shape) []Action {
			actions := make([]Action, 0, len(s.in)+1)
			for _, d := range s.in {
				actions = append(actions, ignoreDust(d))
			}
			carrier := s.in[0]
			for _, d := range s.in {
				if d.Origin == ChainFeed {
					carrier = d
					break
				}
			}
			return append(actions, acquisition(s.out[0], carrier, len(s.in)))
		},
	},
	{
		pattern: MintBuy, confidence: 0.9, severity: SeverityHigh, impact: EstablishesCostBasis,
		applies: func(s shape) bool {
			return len(s.out) >= 1 && len(s.in) >= 1 && s.allDust && s.dustIn == 1
		},
		actions: func(s shape) []Action {
			return []Action{ignoreDust(s.in[0]), acquisition(s.out[0], s.in[0], 1)}
		},
	},
	{
		pattern: SelfTransfer, confidence: 0.85, severity: SeverityMedium, impact: NonTaxable,
		applies: func(s shape) bool {
			if len(s.out) != 1 || len(s.in) != 1 {
				return false
			}
			gap := s.out[0].Amount.Abs().Sub(s.in[0].Amount).Abs()
			return gap.LessThan(s.cfg.SelfTransferTolerance)
		},
		actions: func(s shape) []Action {
			return []Action{{
				Type:      Merge,
				Targets:   []Record{s.out[0], s.in[0]},
				Rationale: "funds moved between own wallets, not a taxable event",
			}}
		},
	},
	{
		pattern: GasFee, confidence: 0.8, severity: SeverityLow, impact: TaxDeductible,
		applies: func(s shape) bool {
			return len(s.out) >= 1 && len(s.in) == 0 && s.out[0].Amount.Abs().LessThan(s.cfg.FeeOnlyCeiling)
		},
		actions: func(s shape) []Action {
			return []Action{{
				Type:      ReclassifyAsFee,
				Targets:   []Record{s.out[0]},
				Rationale: "network cost without asset acquisition, deductible expense",
			}}
		},
	},
	{
		pattern: Sale, confidence: 0.7, severity: SeverityHigh, impact: TaxableIncome,
		applies: func(s shape) bool {
			return len(s.in) >= 1 && len(s.out) == 0 && !s.isDust(s.in[0])
		},
		actions: func(s shape) []Action {
			proceeds := s.in[0]
			return []Action{{
				Type:      ReclassifyAsTrade,
				Targets:   []Record{proceeds},
				Rationale: "proceeds from selling an inscription or rune, taxable event",
				Derived: &Derived{
					SentAsset:        UnidentifiedAsset,
					ReceivedAsset:    proceeds.Asset,
					ReceivedQuantity: proceeds.Amount,
					Unidentified:     true,
					Meta:             proceeds.Meta,
					Reference:        proceeds.ExternalID,
				},
			}}
		},
	},
}

func ignoreDust(d Record) Action {
	return Action{
		Type:      Ignore,
		Targets:   []Record{d},
		Rationale: "dust wrapper, not income",
		Warning:   "mark as ignored, never delete: the record preserves the acquisition",
	}
}

// acquisition reclassifies payment as a trade for n units of the asset
// carried by the dust output carrier.
func acquisition(payment, carrier Record, n int) Action {
	return Action{
		Type:      ReclassifyAsTrade,
		Targets:   []Record{payment},
		Rationale: "payment for an inscription or rune, establishes its cost basis",
		Derived: &Derived{
			SentAsset:        payment.Asset,
			SentQuantity:     payment.Amount.Abs(),
			ReceivedAsset:    UnidentifiedAsset,
			ReceivedQuantity: Q(n),
			Unidentified:     true,
			Meta:             carrier.Meta,
			Reference:        carrier.ExternalID,
		},
	}
}

// Classify returns the correction suggested for g, if any. At most one
// suggestion is produced; ok is false for ordinary activity.
func Classify(g EventGroup, cfg Config) (suggestion CorrectionSuggestion, ok bool) {
	s := newShape(g, cfg)
	for _, r := range rules {
		if !r.applies(s) {
			continue
		}
		return CorrectionSuggestion{
			Pattern:    r.pattern,
			Confidence: r.confidence,
			Severity:   r.severity,
			TaxImpact:  r.impact,
			GroupKey:   g.Key,
			Affected:   g.Records(),
			Actions:    r.actions(s),
		}, true
	}
	return CorrectionSuggestion{}, false
}

// ClassifyAll classifies every group, keeping group order.
func ClassifyAll(groups []EventGroup, cfg Config) []CorrectionSuggestion {
	var suggestions []CorrectionSuggestion
	for _, g := range groups {
		if s, ok := Classify(g, cfg); ok {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions
}
