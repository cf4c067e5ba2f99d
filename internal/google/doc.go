// Package google provides OAuth2 configuration and token persistence for the
// Google Calendar API.
//
// A TokenProvider is built explicitly from an oauth2.Config and a token
// store and handed to the calendar client; nothing in this package keeps
// global state. Refreshed tokens are written back to the store.
package google
