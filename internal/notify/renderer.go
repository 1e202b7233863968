package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/jhagel/campushub/backend/internal/models"
)

// Renderer produces the stored notification content for an event. A render
// failure affects only the recipient it was attempted for.
type Renderer interface {
	Render(event *Event, recipient *models.Account) (string, error)
}

// DigestRenderer produces the body of a digest email from a recipient's
// pending notifications.
type DigestRenderer interface {
	RenderDigest(recipient *models.Account, notifications []models.Notification) (plainText, html string, err error)
}

// templateContext is the data every notification template is rendered with.
type templateContext struct {
	SenderName string
	GroupTitle string
	Excerpt    string
}

// notificationTemplates maps each event type to its compiled template. The
// map is the closed counterpart of the event type union; an unmapped type is
// a programming error surfaced by Render.
var notificationTemplates = map[EventType]*template.Template{
	GroupNewRequest:     mustParse("group_new_request", `{{.SenderName}} wants to join your group &quot;{{.GroupTitle}}&quot;.`),
	GroupRequestSuccess: mustParse("group_request_success", `Your request to join &quot;{{.GroupTitle}}&quot; was accepted.`),
	GroupRequestDecline: mustParse("group_request_decline", `Your request to join &quot;{{.GroupTitle}}&quot; was declined.`),
	GroupInvitation:     mustParse("group_invitation", `{{.SenderName}} invited you to the group &quot;{{.GroupTitle}}&quot;.`),

	FriendNewRequest:     mustParse("friend_new_request", `{{.SenderName}} sent you a contact request.`),
	FriendRequestSuccess: mustParse("friend_request_success", `{{.SenderName}} accepted your contact request.`),
	FriendRequestDecline: mustParse("friend_request_decline", `{{.SenderName}} declined your contact request.`),

	PostProfile:           mustParse("post_profile", `{{.SenderName}} posted on their stream: {{.Excerpt}}`),
	PostStream:            mustParse("post_stream", `{{.SenderName}} posted on your stream: {{.Excerpt}}`),
	PostGroup:             mustParse("post_group", `{{.SenderName}} posted in &quot;{{.GroupTitle}}&quot;: {{.Excerpt}}`),
	PostCommentProfile:    mustParse("post_comment_profile", `{{.SenderName}} commented on a post on your stream: {{.Excerpt}}`),
	PostCommentOwnProfile: mustParse("post_comment_own_profile", `{{.SenderName}} commented on your post: {{.Excerpt}}`),
	PostCommentGroup:      mustParse("post_comment_group", `{{.SenderName}} commented on a post in &quot;{{.GroupTitle}}&quot;: {{.Excerpt}}`),

	MediaNewMedia: mustParse("media_new_media", `{{.SenderName}} uploaded &quot;{{.Excerpt}}&quot; to &quot;{{.GroupTitle}}&quot;.`),
	Broadcast:     mustParse("broadcast", `{{.Excerpt}}`),
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

// TemplateRenderer renders notifications from the compiled-in template set.
type TemplateRenderer struct{}

// NewTemplateRenderer creates a TemplateRenderer.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

// Render produces the stored content string for one recipient.
func (tr *TemplateRenderer) Render(event *Event, _ *models.Account) (string, error) {
	tmpl, ok := notificationTemplates[event.Type]
	if !ok {
		return "", fmt.Errorf("no template for event type %q", event.Type)
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, templateContext{
		SenderName: event.SenderName(),
		GroupTitle: event.GroupTitle,
		Excerpt:    event.Excerpt,
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", event.Type, err)
	}
	return buf.String(), nil
}

var digestPlainTemplate = template.Must(template.New("digest_plain").Parse(
	`Hello {{.Name}},

you have {{len .Notifications}} new notification(s):

{{range .Notifications}} - {{.Rendered}}
{{end}}
Your CampusHub team
`))

var digestHTMLTemplate = template.Must(template.New("digest_html").Parse(
	`<p>Hello {{.Name}},</p>
<p>you have {{len .Notifications}} new notification(s):</p>
<ul>
{{range .Notifications}}<li><a href="{{.TargetURL}}">{{.Rendered}}</a></li>
{{end}}</ul>
<p>Your CampusHub team</p>
`))

type digestContext struct {
	Name          string
	Notifications []models.Notification
}

// RenderDigest produces the plain-text and HTML bodies of a digest email.
func (tr *TemplateRenderer) RenderDigest(recipient *models.Account, notifications []models.Notification) (string, string, error) {
	ctx := digestContext{Name: recipient.Name, Notifications: notifications}

	var plain, html bytes.Buffer
	if err := digestPlainTemplate.Execute(&plain, ctx); err != nil {
		return "", "", fmt.Errorf("render digest: %w", err)
	}
	if err := digestHTMLTemplate.Execute(&html, ctx); err != nil {
		return "", "", fmt.Errorf("render digest: %w", err)
	}
	return plain.String(), html.String(), nil
}
