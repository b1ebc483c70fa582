package vouchers

import "fmt"

// TemplateInfo is the Template Classifier's view of a line set.
type TemplateInfo struct {
	Active bool
	// Base is the first unlocked template line, -1 when absent.
	Base int
	// Closing is the locked 100% line, -1 when absent.
	Closing int
	// ClosingCandidates lists every locked 100% line in order.
	ClosingCandidates []int
}

// Ambiguous reports whether more than one line claims the closing role.
func (t TemplateInfo) Ambiguous() bool {
	return len(t.ClosingCandidates) > 1
}

// IsTemplated reports whether any line carries template metadata.
func IsTemplated(lines []Line) bool {
	for _, l := range lines {
		if l.Template != nil {
			return true
		}
	}
	return false
}

// Classify inspects lines and locates the base and closing lines.
func Classify(lines []Line) TemplateInfo {
	info := TemplateInfo{Base: -1, Closing: -1}
	for i, l := range lines {
		if l.Template == nil {
			continue
		}
		info.Active = true
		if l.Template.IsBase() && info.Base < 0 {
			info.Base = i
		}
		if l.Template.IsClosing() {
			info.ClosingCandidates = append(info.ClosingCandidates, i)
		}
	}
	if len(info.ClosingCandidates) > 0 {
		info.Closing = info.ClosingCandidates[0]
	}
	return info
}

// ValidateTemplate checks that the template metadata is usable for
// decomposition. Non-templated line sets are always valid.
func ValidateTemplate(lines []Line) error {
	info := Classify(lines)
	if !info.Active {
		return nil
	}
	if info.Ambiguous() {
		verr := newValidationError(ReasonAmbiguousClosing,
			fmt.Sprintf("template has %d closing lines at 100%%", len(info.ClosingCandidates)))
		verr.Line = info.ClosingCandidates[1]
		return verr
	}
	for i, l := range lines {
		if l.Template == nil {
			continue
		}
		if l.Template.Percentage < 0 || l.Template.Percentage > 100 {
			verr := newValidationError(ReasonInvalidTemplate, fmt.Sprintf("line %d percentage out of range", i+1))
			verr.Line = i
			return verr
		}
		if !l.Template.Side.Valid() {
			verr := newValidationError(ReasonInvalidTemplate, fmt.Sprintf("line %d has no side", i+1))
			verr.Line = i
			return verr
		}
	}
	return nil
}
