package notify

import (
	"fmt"

	"github.com/mfallon/taskdesk/internal/domain"
)

// emailTemplate pairs a subject line with the in-app path the email links to.
type emailTemplate struct {
	Subject  string
	LinkPath string
}

var templates = map[domain.NotificationType]emailTemplate{
	domain.NotifyTaskAssigned:   {Subject: "You have been assigned a task", LinkPath: "/tasks"},
	domain.NotifyTaskUpdated:    {Subject: "A task you follow was updated", LinkPath: "/tasks"},
	domain.NotifyProjectUpdated: {Subject: "A project you follow was updated", LinkPath: "/projects"},
	domain.NotifyBulletin:       {Subject: "New bulletin posted", LinkPath: "/bulletins"},
	domain.NotifyToDo:           {Subject: "New to-do item", LinkPath: "/todos"},
}

var genericTemplate = emailTemplate{Subject: "You have a new notification", LinkPath: "/"}

// templateFor maps an event type tag to its template. Unknown tags fall
// back to the generic subject and in-app link.
func templateFor(typ string) emailTemplate {
	if tmpl, ok := templates[domain.NotificationType(typ)]; ok {
		return tmpl
	}
	return genericTemplate
}

// renderBody builds the HTML email body from the record and resolved link.
func renderBody(rec Record, link string) string {
	return fmt.Sprintf(
		`<h2>%s</h2><p>%s</p><p><a href="%s">Open in the app</a></p>`,
		rec.Title, rec.Message, link,
	)
}
