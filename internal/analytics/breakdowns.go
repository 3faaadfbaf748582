package analytics

import (
	"pageflow/internal/events"
	"pageflow/internal/pkg/referrers"
	"pageflow/internal/pkg/user_agent"
)

// ReferrerCount is a ranked referrer with a display name for its source.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Name     string `json:"name"`
	Count    int64  `json:"count"`
}

// DeviceBreakdown holds classifier tallies.
type DeviceBreakdown struct {
	Types            []MetricCountResult
	Browsers         []MetricCountResult
	OperatingSystems []MetricCountResult
}

func deviceBreakdown(inRange []events.Event) DeviceBreakdown {
	types, browsers, oss := newCounter(), newCounter(), newCounter()
	for i := range inRange {
		c := user_agent.Classify(events.Value(inRange[i].ClientSignature))
		types.add(c.Type)
		browsers.add(c.Browser)
		oss.add(c.OS)
	}
	return DeviceBreakdown{
		Types:            types.ranked(),
		Browsers:         browsers.ranked(),
		OperatingSystems: oss.ranked(),
	}
}

// channelBreakdown tallies every channel, zeros included.
func channelBreakdown(inRange []events.Event) map[string]int64 {
	out := make(map[string]int64, len(referrers.Channels))
	for _, ch := range referrers.Channels {
		out[ch] = 0
	}
	for i := range inRange {
		out[referrers.Channel(inRange[i].Referrer)]++
	}
	return out
}

func topPages(inRange []events.Event, limit int) []PageCount {
	c := newCounter()
	for i := range inRange {
		if inRange[i].HasURL() {
			c.add(*inRange[i].URL)
		}
	}
	return toPageCounts(c.top(limit))
}

func topReferrers(inRange []events.Event, limit int) []ReferrerCount {
	c := newCounter()
	for i := range inRange {
		if ref := events.Value(inRange[i].Referrer); ref != "" {
			c.add(ref)
		}
	}

	ranked := c.top(limit)
	out := make([]ReferrerCount, len(ranked))
	for i, r := range ranked {
		name := r.Name
		if host := referrers.Hostname(r.Name); host != "" {
			name = referrers.FriendlyName(host)
		}
		out[i] = ReferrerCount{Referrer: r.Name, Name: name, Count: r.Count}
	}
	return out
}
