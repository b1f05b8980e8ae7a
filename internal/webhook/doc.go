// Package webhook receives Linear project-update webhooks over HTTP and
// hands authenticated events to the relay.
//
// # Request Flow
//
//  1. POST arrives at the configured path (default "/")
//  2. Required settings checked (500 if any is missing)
//  3. Body read up to max_body_size (413 if larger)
//  4. JSON decoded into a linear.WebhookEvent (400 if malformed)
//  5. webhookTimestamp checked against the freshness window (400)
//  6. HMAC-SHA256 of the raw body compared with the signature header (401)
//  7. Required fields validated (400)
//  8. Relay enriches, formats and posts to Slack (500 on failure)
//  9. 200 "OK"
//
// Steps 5 and 6 are skipped when skip_validation is set; every skipped
// request logs a warning.
//
// Bodies are plain text. Every response carries the X-Relay-Id header used
// in the logs for that request. Logs never contain payloads or secrets.
//
// # Example Usage
//
//	server := webhook.New(webhook.FromConfig(cfg), relayer, logger)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
