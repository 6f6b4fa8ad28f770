package settings

// ScopeKind selects the level at which report configuration applies.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeRegion
	ScopeUnit
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeRegion:
		return "region"
	case ScopeUnit:
		return "unit"
	default:
		return "unknown"
	}
}

// Scope identifies a configuration target: the global defaults, a region
// override or a unit override.
type Scope struct {
	Kind ScopeKind
	// Code is the region code for ScopeRegion, the unit name for ScopeUnit.
	Code string
}

func GlobalScope() Scope              { return Scope{Kind: ScopeGlobal} }
func RegionScope(code string) Scope   { return Scope{Kind: ScopeRegion, Code: code} }
func UnitScope(unitName string) Scope { return Scope{Kind: ScopeUnit, Code: unitName} }

// CopyTexts are the editable text blocks of a generated report email.
type CopyTexts struct {
	Greeting        string `json:"greeting,omitempty"`
	Intro           string `json:"intro,omitempty"`
	Observation     string `json:"observation,omitempty"`
	CtaLabel        string `json:"cta_label,omitempty"`
	FooterSignature string `json:"footer_signature,omitempty"`
	SubjectTemplate string `json:"subject_template,omitempty"`
}

// ScopeConfig is one level of report configuration. Unset fields inherit
// from the next broader scope when displayed; writes touch only the level
// they were made at.
type ScopeConfig struct {
	VisibleColumns []string   `json:"visible_columns,omitempty"`
	CopyTexts      *CopyTexts `json:"copy_texts,omitempty"`
	MonthReference string     `json:"month_reference,omitempty"`
	// Recipients only applies at unit scope.
	Recipients []string `json:"recipients,omitempty"`
}

// Defaults returns the hardcoded global configuration: standard columns
// only and automatic month selection. Used on first load and when the
// global scope is reset.
func Defaults(standardColumns []string) ScopeConfig {
	return ScopeConfig{
		VisibleColumns: standardColumns,
		MonthReference: "auto",
		CopyTexts:      &CopyTexts{},
	}
}

// Effective merges a chain of configs from broadest to narrowest. Later
// (narrower) entries win field by field; unset fields fall back to the
// broader level. Nil entries in the chain are skipped.
func Effective(chain ...*ScopeConfig) ScopeConfig {
	var out ScopeConfig
	for _, c := range chain {
		if c == nil {
			continue
		}
		if len(c.VisibleColumns) > 0 {
			out.VisibleColumns = c.VisibleColumns
		}
		if c.MonthReference != "" {
			out.MonthReference = c.MonthReference
		}
		if len(c.Recipients) > 0 {
			out.Recipients = c.Recipients
		}
		if c.CopyTexts != nil {
			if out.CopyTexts == nil {
				out.CopyTexts = &CopyTexts{}
			}
			mergeTexts(out.CopyTexts, c.CopyTexts)
		}
	}
	return out
}

func mergeTexts(dst, src *CopyTexts) {
	if src.Greeting != "" {
		dst.Greeting = src.Greeting
	}
	if src.Intro != "" {
		dst.Intro = src.Intro
	}
	if src.Observation != "" {
		dst.Observation = src.Observation
	}
	if src.CtaLabel != "" {
		dst.CtaLabel = src.CtaLabel
	}
	if src.FooterSignature != "" {
		dst.FooterSignature = src.FooterSignature
	}
	if src.SubjectTemplate != "" {
		dst.SubjectTemplate = src.SubjectTemplate
	}
}
