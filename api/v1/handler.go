package v1

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"pageflow/internal/events"
	"pageflow/internal/server"
)

// Transport labels for ingestion metrics.
const (
	transportPixel  = "pixel"
	transportBeacon = "beacon"
)

// transparentGIF is a 1x1 transparent GIF.
var transparentGIF, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// BeaconParams is the body of a beacon request. Snippets send camelCase names; the
// snake_case aliases are accepted too.
type BeaconParams struct {
	VisitorID      string          `json:"visitorId"`
	UID            string          `json:"uid"`
	URL            string          `json:"url"`
	Referrer       *string         `json:"referrer"`
	EventType      string          `json:"eventType"`
	EventTypeAlias string          `json:"event_type"`
	MetaData       json.RawMessage `json:"metaData"`
	MetaDataAlias  json.RawMessage `json:"meta_data"`
}

// CollectPixelHandler records one event from query parameters and always answers with
// the tracking pixel. Missing parameters are tolerated.
func CollectPixelHandler(ctx *server.Context) error {
	input := &events.CollectInput{
		VisitorID:       queryValue(ctx.Ctx, "visitorId", "uid"),
		URL:             ctx.Query("url"),
		Referrer:        optionalQuery(ctx.Ctx, "referrer"),
		EventType:       queryValue(ctx.Ctx, "eventType", "event_type"),
		MetaData:        queryValue(ctx.Ctx, "metaData", "meta_data"),
		ClientAddress:   getClientIP(ctx.Ctx),
		ClientSignature: ctx.Get("User-Agent"),
	}

	events.Collect(ctx.Store, ctx.Logger, input)
	ctx.Metrics.IncrementIngested(transportPixel)

	setNoCacheHeaders(ctx.Ctx)
	ctx.Type("gif")
	return ctx.Status(http.StatusOK).Send(transparentGIF)
}

// CollectBeaconHandler handles event tracking requests sent via navigator.sendBeacon.
// The body is JSON sent as text/plain; the response is always 202.
func CollectBeaconHandler(ctx *server.Context) error {
	var params BeaconParams
	if err := json.Unmarshal(ctx.Body(), &params); err != nil {
		ctx.Logger.Debug("Failed to parse beacon request", slog.Any("error", err))
		return ctx.SendStatus(http.StatusAccepted) // Always return 202 for beacon requests
	}

	input := &events.CollectInput{
		VisitorID:       firstNonEmpty(params.VisitorID, params.UID),
		URL:             params.URL,
		Referrer:        params.Referrer,
		EventType:       firstNonEmpty(params.EventType, params.EventTypeAlias),
		MetaData:        firstNonEmpty(metadataText(params.MetaData), metadataText(params.MetaDataAlias)),
		ClientAddress:   getClientIP(ctx.Ctx),
		ClientSignature: ctx.Get("User-Agent"),
	}

	events.Collect(ctx.Store, ctx.Logger, input)
	ctx.Metrics.IncrementIngested(transportBeacon)

	return ctx.SendStatus(http.StatusAccepted)
}

// metadataText accepts metadata either as a JSON-encoded string or as an inline object.
func metadataText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
