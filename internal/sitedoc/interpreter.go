package sitedoc

import (
	"github.com/google/uuid"

	"brandos/internal/logging"
)

// Apply folds an action batch over the document left to right and
// returns the resulting document. The input document is never mutated;
// callers swap in the result only when they accept the whole batch.
//
// CreatePage moves the target page for the rest of the batch, so a
// create-then-populate sequence works without the agent tracking page
// IDs. The final target is persisted as ActivePageID so the next turn
// keeps editing the same page.
func Apply(doc *SiteDocument, actions []CommandAction) *SiteDocument {
	next := doc.Clone()

	targetID := next.ActivePageID
	if next.PageByID(targetID) == nil {
		if home := next.HomePage(); home != nil {
			targetID = home.ID
		}
	}

	for _, action := range actions {
		switch action.Action {
		case ActionSetTemplate:
			template, err := ParseTemplate(action.TemplateID)
			if err != nil {
				logging.InterpreterWarn("[Interpreter] SET_TEMPLATE rejected: %v", err)
				continue
			}
			next.TemplateID = template

		case ActionCreatePage:
			if action.PageName == "" {
				logging.InterpreterWarn("[Interpreter] CREATE_PAGE rejected: empty page name")
				continue
			}
			id, created := next.CreatePage(action.PageName)
			targetID = id
			if created {
				logging.Interpreter("[Interpreter] created page %q (%s)", action.PageName, PathForName(action.PageName))
			} else {
				logging.Interpreter("[Interpreter] CREATE_PAGE %q resolved to existing page", action.PageName)
			}

		case ActionResetPage:
			page := next.PageByID(targetID)
			if page == nil {
				// Target vanished earlier in the batch.
				continue
			}
			page.Sections = []Section{}

		case ActionAddWidget:
			page := next.PageByID(targetID)
			if page == nil {
				logging.InterpreterWarn("[Interpreter] ADD_WIDGET skipped: no target page")
				continue
			}
			page.Sections = append(page.Sections, Section{
				ID:    uuid.NewString(),
				Type:  action.WidgetType,
				Attrs: DecodeAttributes(action.WidgetType, action.Attributes),
			})
		}
	}

	next.ActivePageID = targetID
	return next
}
