// Package dispatch routes prepared applications to the right submission
// channel and normalizes adapter results.
package dispatch

import "strings"

// Channel identifies a submission mechanism.
type Channel string

const (
	ChannelLinkedIn  Channel = "linkedin"
	ChannelIndeed    Channel = "indeed"
	ChannelGlassdoor Channel = "glassdoor"
	ChannelEmail     Channel = "email"
	ChannelWebForm   Channel = "web_form"
)

// routingRule maps a URL substring to a channel. Rules are checked in
// order; the first match wins.
type routingRule struct {
	substring string
	channel   Channel
}

var routingRules = []routingRule{
	{"linkedin", ChannelLinkedIn},
	{"indeed", ChannelIndeed},
	{"glassdoor", ChannelGlassdoor},
	{"email", ChannelEmail},
}

// RouteChannel picks the submission channel for an application URL.
// Matching is case-insensitive; anything unrecognized falls back to the
// generic web form channel.
func RouteChannel(applicationURL string) Channel {
	lowered := strings.ToLower(applicationURL)
	for _, rule := range routingRules {
		if strings.Contains(lowered, rule.substring) {
			return rule.channel
		}
	}
	return ChannelWebForm
}
