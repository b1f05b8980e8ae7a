// Package notify turns a Linear project update into a Slack Block Kit message
// and posts it to a Slack incoming webhook.
//
// BuildMessage is pure: the same event, initiatives and Options always give
// the same blocks. It never reads the clock or the network, so it can be
// exercised directly in tests and from the preview command.
//
// Two layouts exist. Events without a health value get the compact layout
// (summary section, optional initiatives, footer). Events that carry a
// health value get the health-aware layout, which adds the status label,
// rewrites uploaded image markdown into numbered attachment links and adds an
// "Open in Linear" button.
package notify
