package auth

import "github.com/dukerupert/carewatch/internal/model"

type Action string

const (
	ActionViewAlerts   Action = "view_alerts"
	ActionRaiseSOS     Action = "raise_sos"
	ActionRespondAlert Action = "respond_alert"
	ActionViewVitals   Action = "view_vitals"
	ActionRecordVitals Action = "record_vitals"
	ActionViewVisits   Action = "view_visits"
	ActionLogVisit     Action = "log_visit"
	ActionViewSummary  Action = "view_summary"
	ActionSubscribe    Action = "subscribe"
)

// Can reports whether role r may perform a.
func Can(r model.Role, a Action) bool {
	switch r {
	case model.RoleFamily:
		switch a {
		case ActionViewAlerts, ActionRaiseSOS, ActionViewVitals, ActionViewVisits, ActionViewSummary, ActionSubscribe:
			return true
		}
	case model.RoleElder:
		switch a {
		case ActionViewAlerts, ActionRaiseSOS, ActionSubscribe:
			return true
		}
	case model.RoleCaregiver:
		switch a {
		case ActionViewAlerts, ActionRaiseSOS, ActionRespondAlert, ActionViewVitals,
			ActionRecordVitals, ActionViewVisits, ActionLogVisit, ActionSubscribe:
			return true
		}
	case model.RoleDoctor:
		switch a {
		case ActionViewAlerts, ActionViewVitals, ActionRecordVitals, ActionViewVisits, ActionViewSummary, ActionSubscribe:
			return true
		}
	}
	return false
}

// Actions lists what r may do, in declaration order.
func Actions(r model.Role) []Action {
	all := []Action{
		ActionViewAlerts, ActionRaiseSOS, ActionRespondAlert, ActionViewVitals,
		ActionRecordVitals, ActionViewVisits, ActionLogVisit, ActionViewSummary, ActionSubscribe,
	}
	var out []Action
	for _, a := range all {
		if Can(r, a) {
			out = append(out, a)
		}
	}
	return out
}
