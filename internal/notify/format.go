package notify

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"github.com/slack-go/slack"

	"github.com/mattjoyce/linear-relay/internal/linear"
)

// Formatting defaults.
const (
	DefaultTimezone          = "America/Los_Angeles"
	DefaultZoneLabel         = "PST"
	DefaultMaxBodyLength     = 2800
	DefaultPlaceholderAvatar = "https://via.placeholder.com/48"

	// en-US toLocaleString layout, e.g. "3/4/2025, 9:30:00 AM".
	timestampLayout = "1/2/2006, 3:04:05 PM"
	ellipsis        = "…"
	attachmentIcon  = "📎"
	openActionID    = "open_linear"
)

// SectionTextLimit is the longest text Slack accepts in a section block.
const SectionTextLimit = 3000

// Options control presentation details. They are read-only configuration;
// two calls with equal Options format identically.
type Options struct {
	// Location is the zone creation times are rendered in.
	Location *time.Location
	// ZoneLabel is printed after the rendered time.
	ZoneLabel string
	// MaxBodyLength caps the escaped update body in runes. With 0 the body
	// is only cut to fit SectionTextLimit.
	MaxBodyLength int
	// PlaceholderAvatar replaces a missing avatar URL.
	PlaceholderAvatar string
}

// DefaultOptions returns Options for Pacific time with the "PST" label.
func DefaultOptions() Options {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.FixedZone(DefaultZoneLabel, -8*60*60)
	}
	return Options{
		Location:          loc,
		ZoneLabel:         DefaultZoneLabel,
		MaxBodyLength:     DefaultMaxBodyLength,
		PlaceholderAvatar: DefaultPlaceholderAvatar,
	}
}

var healthLabels = map[linear.Health]string{
	linear.HealthOnTrack:  "🟢 On track",
	linear.HealthAtRisk:   "🟡 At risk",
	linear.HealthOffTrack: "🔴 Off track",
}

const unknownHealthLabel = "🟣 Unknown"

// HealthLabel returns the icon and label for a health value.
func HealthLabel(h linear.Health) string {
	if label, ok := healthLabels[h]; ok {
		return label
	}
	return unknownHealthLabel
}

var attachmentPattern = regexp.MustCompile(`!\[[^\]]*\]\((https://uploads\.linear\.app/[^)\s]*)\)`)

// RewriteAttachments replaces uploaded image markdown with numbered
// attachment links, counting from 1 in order of appearance. Images hosted
// elsewhere are left as written.
func RewriteAttachments(body string) string {
	n := 0
	return attachmentPattern.ReplaceAllStringFunc(body, func(match string) string {
		n++
		url := attachmentPattern.FindStringSubmatch(match)[1]
		return fmt.Sprintf("%s <%s|Attachment %d>", attachmentIcon, linkURL(url), n)
	})
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape escapes the characters Slack mrkdwn treats as control characters.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Link renders a mrkdwn link. Without a URL only the escaped label is returned.
func Link(url, label string) string {
	if url == "" {
		return Escape(label)
	}
	return fmt.Sprintf("<%s|%s>", linkURL(url), Escape(label))
}

// urlEscaper percent-encodes the characters that end the URL part of a
// mrkdwn link.
var urlEscaper = strings.NewReplacer("|", "%7C", "<", "%3C", ">", "%3E")

func linkURL(url string) string {
	return urlEscaper.Replace(url)
}

// Truncate shortens escaped mrkdwn to at most max runes, ending it with an
// ellipsis. The cut never splits an &amp;-style entity or a <url|label> link.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max-1])
	if i := strings.LastIndexByte(cut, '&'); i >= 0 && !strings.Contains(cut[i:], ";") {
		cut = cut[:i]
	}
	if i := strings.LastIndexByte(cut, '<'); i >= 0 && !strings.Contains(cut[i:], ">") {
		cut = strings.TrimSuffix(strings.TrimRight(cut[:i], " "), attachmentIcon)
	}
	return strings.TrimRight(cut, " \n\t") + ellipsis
}

// bodyLimit is the rune budget for a body sharing a section with overhead
// runes of other text.
func bodyLimit(opts Options, overhead int) int {
	limit := SectionTextLimit - overhead
	if opts.MaxBodyLength > 0 && opts.MaxBodyLength < limit {
		limit = opts.MaxBodyLength
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// BuildMessage maps a project-update event and its initiatives to a Slack message.
func BuildMessage(ev *linear.WebhookEvent, initiatives []linear.Initiative, opts Options) *slack.WebhookMessage {
	var blocks []slack.Block
	if ev.Data.Health == "" {
		blocks = summaryBlocks(ev, initiatives, opts)
	} else {
		blocks = healthBlocks(ev, initiatives, opts)
	}

	return &slack.WebhookMessage{
		Text:   fmt.Sprintf("New update for %s", Escape(ev.Data.Project.Name)),
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

func summaryBlocks(ev *linear.WebhookEvent, initiatives []linear.Initiative, opts Options) []slack.Block {
	project := ev.Data.Project
	prefix := fmt.Sprintf("*New update for %s*:\n\n", Link(project.URL, project.Name))
	suffix := "\n\n" + Link(ev.UpdateURL(), "View update →")

	body := Truncate(Escape(ev.Data.Body), bodyLimit(opts, utf8.RuneCountInString(prefix+suffix)))
	header := prefix + body + suffix

	blocks := []slack.Block{markdownSection(header)}
	if block := initiativesBlock(initiatives); block != nil {
		blocks = append(blocks, block)
	}

	actor := ev.Actor
	footer := fmt.Sprintf("%s at %s", Link(actor.URL, "by "+actor.Name), formatTime(ev.CreatedAt, opts))
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewImageBlockElement(avatarOrPlaceholder(actor.AvatarURL, opts), actor.Name),
		slack.NewTextBlockObject(slack.MarkdownType, footer, false, false),
	))
	return blocks
}

func healthBlocks(ev *linear.WebhookEvent, initiatives []linear.Initiative, opts Options) []slack.Block {
	project := ev.Data.Project
	author := ev.Author()

	blocks := []slack.Block{
		markdownSection("*" + Link(project.URL, project.Name) + "*"),
		markdownSection(fmt.Sprintf("%s | %s posted a project update",
			HealthLabel(ev.Data.Health), Link(author.URL, author.Name))),
	}

	if block := initiativesBlock(initiatives); block != nil {
		blocks = append(blocks, block)
	}

	if body := Truncate(RewriteAttachments(Escape(ev.Data.Body)), bodyLimit(opts, 0)); body != "" {
		blocks = append(blocks, markdownSection(body))
	}

	button := slack.NewButtonBlockElement(openActionID, "",
		slack.NewTextBlockObject(slack.PlainTextType, "Open in Linear", true, false))
	button.URL = ev.UpdateURL()
	blocks = append(blocks, slack.NewActionBlock("", button))

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewImageBlockElement(avatarOrPlaceholder(author.AvatarURL, opts), author.Name),
		slack.NewTextBlockObject(slack.MarkdownType, "Posted at "+formatTime(ev.CreatedAt, opts), false, false),
	))
	return blocks
}

// initiativesBlock returns nil when there is nothing to list.
func initiativesBlock(initiatives []linear.Initiative) slack.Block {
	if len(initiatives) == 0 {
		return nil
	}
	names := make([]string, 0, len(initiatives))
	for _, i := range initiatives {
		names = append(names, "*"+Escape(i.Name)+"*")
	}
	return slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, "🏷️ Initiatives: "+strings.Join(names, ", "), false, false),
	)
}

func markdownSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

func avatarOrPlaceholder(url string, opts Options) string {
	if url != "" {
		return url
	}
	if opts.PlaceholderAvatar != "" {
		return opts.PlaceholderAvatar
	}
	return DefaultPlaceholderAvatar
}

func formatTime(t time.Time, opts Options) string {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	s := t.In(loc).Format(timestampLayout)
	if opts.ZoneLabel != "" {
		s += " " + opts.ZoneLabel
	}
	return s
}
