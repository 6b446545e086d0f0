package types

import (
	"strings"
	"time"
)

const defaultResolver = "System"

// AlertPatch is the subset of alert fields a dashboard may change. Nil
// fields are left untouched.
type AlertPatch struct {
	IsResolved   *bool   `json:"isResolved,omitempty"`
	Department   *string `json:"department,omitempty"`
	Urgency      *string `json:"urgency,omitempty"`
	IsFalseAlarm *bool   `json:"isFalseAlarm,omitempty"`
	ResolvedBy   *string `json:"resolvedBy,omitempty"`
}

// Normalize drops empty strings and canonicalizes department and urgency.
func (p *AlertPatch) Normalize() error {
	if p.Department != nil {
		if strings.TrimSpace(*p.Department) == "" {
			p.Department = nil
		} else {
			d, ok := CanonicalDepartment(*p.Department)
			if !ok {
				return &ValidationError{Field: "department", Msg: "unknown department " + *p.Department}
			}
			p.Department = &d
		}
	}
	if p.Urgency != nil {
		if strings.TrimSpace(*p.Urgency) == "" {
			p.Urgency = nil
		} else {
			u, ok := CanonicalUrgency(*p.Urgency)
			if !ok {
				return &ValidationError{Field: "urgency", Msg: "unknown urgency " + *p.Urgency}
			}
			p.Urgency = &u
		}
	}
	if p.ResolvedBy != nil && strings.TrimSpace(*p.ResolvedBy) == "" {
		p.ResolvedBy = nil
	}
	return nil
}

// Apply mutates a in place. Resolution fields move together: resolving sets
// both resolvedAt and resolvedBy, unresolving clears both.
func (p AlertPatch) Apply(a *Alert, now time.Time) {
	if p.Department != nil {
		a.Department = *p.Department
	}
	if p.Urgency != nil {
		a.Urgency = *p.Urgency
	}
	if p.IsFalseAlarm != nil {
		a.IsFalseAlarm = *p.IsFalseAlarm
	}
	if p.IsResolved != nil {
		a.IsResolved = *p.IsResolved
		if a.IsResolved {
			at := now
			by := p.resolver()
			a.ResolvedAt = &at
			a.ResolvedBy = &by
		} else {
			a.ResolvedAt = nil
			a.ResolvedBy = nil
		}
	}
	a.UpdatedAt = now
}

func (p AlertPatch) resolver() string {
	switch {
	case p.ResolvedBy != nil:
		return *p.ResolvedBy
	case p.Department != nil:
		return *p.Department
	default:
		return defaultResolver
	}
}
