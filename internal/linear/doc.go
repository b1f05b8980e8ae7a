// Package linear holds the Linear side of the relay: the typed project-update
// webhook payload and a small GraphQL client that looks up the initiatives a
// project belongs to.
//
// # Payload
//
// Linear posts project-update events as JSON. DecodeEvent turns the raw body
// into a WebhookEvent without judging its content, so the webhook layer can
// read webhookTimestamp for the freshness check before the signature is
// verified. Validate is called once the request is authenticated and rejects
// events missing the fields the message needs.
//
// # Initiatives
//
// Client.FetchInitiatives issues exactly one GetProjectInitiatives query per
// call. It does not retry or cache; failures are reported as
// apperr.KindUpstream, and a missing API key as apperr.KindConfiguration.
package linear
