package quality

import (
	"driftwatch/pkg/model"
)

// PageSize is the first page and the increment of every further page.
const PageSize = 20

// Page is a window over a ranked finding list.
type Page struct {
	Findings  []model.Finding `json:"issues"`
	Total     int             `json:"total"`     // after the severity filter
	Balloons  int             `json:"balloons"`  // distinct ids after the filter
	Errors    int             `json:"errors"`    // before the filter
	Warnings  int             `json:"warnings"`  // before the filter
	Remaining int             `json:"remaining"` // beyond this page
	NextLimit int             `json:"next_limit,omitempty"`
}

// Paginate filters findings by severity (empty keeps both) and returns the
// first limit of them. limit is rounded up to a multiple of PageSize.
func Paginate(findings []model.Finding, severity model.Severity, limit int) Page {
	if limit <= 0 {
		limit = PageSize
	}
	if r := limit % PageSize; r != 0 {
		limit += PageSize - r
	}

	var p Page
	filtered := make([]model.Finding, 0, len(findings))
	ids := make(map[int]struct{})
	for _, f := range findings {
		switch f.Severity {
		case model.SeverityError:
			p.Errors++
		case model.SeverityWarning:
			p.Warnings++
		}
		if severity != "" && f.Severity != severity {
			continue
		}
		filtered = append(filtered, f)
		ids[f.ObjectID] = struct{}{}
	}

	p.Total = len(filtered)
	p.Balloons = len(ids)
	p.Findings = filtered[:min(limit, len(filtered))]
	p.Remaining = p.Total - len(p.Findings)
	if p.Remaining > 0 {
		p.NextLimit = min(limit+PageSize, p.Total)
	}
	return p
}
