package analytics

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pageflow/internal/events"
)

// Flow depth bounds
const (
	MinFlowLayer     = 1
	MaxFlowLayer     = 10
	DefaultFlowLayer = 5
)

// Labels for the synthetic source of a session's first page.
const (
	EntryDirect   = "Direct Entry"
	EntryExternal = "External Source"
	EntryInternal = "Internal Navigation"
)

// DefaultFlowLinks is the edge cap used when none is configured.
const DefaultFlowLinks = 80

const unknownLayer = 99

var urlScheme = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// FlowNode is a layer-qualified page label or an entry label.
type FlowNode struct {
	Name string `json:"name"`
}

// FlowLink is a weighted transition between two nodes.
type FlowLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  int64  `json:"value"`
}

// FlowGraph is the ranked, layer-bounded summary of session transitions.
type FlowGraph struct {
	Nodes    []FlowNode `json:"nodes"`
	Links    []FlowLink `json:"links"`
	MaxLayer int        `json:"maxLayer"`
	Sessions int        `json:"sessions"`
}

// FlowBuilder turns sessions into a FlowGraph keeping at most maxLinks edges.
type FlowBuilder struct {
	store    *events.Store
	maxLinks int
	logger   *slog.Logger
}

func NewFlowBuilder(store *events.Store, maxLinks int, logger *slog.Logger) *FlowBuilder {
	if maxLinks <= 0 {
		maxLinks = DefaultFlowLinks
	}
	return &FlowBuilder{store: store, maxLinks: maxLinks, logger: logger}
}

// ClampLayer bounds a requested depth to [MinFlowLayer, MaxFlowLayer].
func ClampLayer(layer int) int {
	switch {
	case layer < MinFlowLayer:
		return MinFlowLayer
	case layer > MaxFlowLayer:
		return MaxFlowLayer
	default:
		return layer
	}
}

// EntryLabel classifies the referrer of a session's first page.
func EntryLabel(referrer *string) string {
	ref := events.Value(referrer)
	switch {
	case ref == "":
		return EntryDirect
	case urlScheme.MatchString(ref):
		return EntryExternal
	default:
		return EntryInternal
	}
}

func layerLabel(layer int, url string) string {
	return fmt.Sprintf("L%d: %s", layer, url)
}

// Build computes the flow graph over the whole ledger.
func (b *FlowBuilder) Build(maxLayer int) *FlowGraph {
	maxLayer = ClampLayer(maxLayer)
	sessions := BuildSessions(b.store.Snapshot())

	transitions := newCounter()
	pairs := make(map[string]FlowLink)
	for _, s := range sessions {
		steps := min(maxLayer, len(s.Events))
		for i := 0; i < steps; i++ {
			var source string
			if i == 0 {
				source = EntryLabel(s.Events[0].Referrer)
			} else {
				source = layerLabel(i, *s.Events[i-1].URL)
			}
			target := layerLabel(i+1, *s.Events[i].URL)
			// Repeated views of the same page are self-transitions even though their
			// layer labels differ.
			if source == target || (i > 0 && *s.Events[i-1].URL == *s.Events[i].URL) {
				continue
			}

			key := source + "\x00" + target
			if _, ok := pairs[key]; !ok {
				pairs[key] = FlowLink{Source: source, Target: target}
			}
			transitions.add(key)
		}
	}

	ranked := transitions.top(b.maxLinks)
	links := make([]FlowLink, len(ranked))
	nodeOrder := make([]string, 0, len(ranked)*2)
	seen := make(map[string]bool)
	for i, r := range ranked {
		link := pairs[r.Name]
		link.Value = r.Count
		links[i] = link
		for _, name := range []string{link.Source, link.Target} {
			if !seen[name] {
				seen[name] = true
				nodeOrder = append(nodeOrder, name)
			}
		}
	}

	sort.SliceStable(nodeOrder, func(i, j int) bool {
		return nodeLayer(nodeOrder[i]) < nodeLayer(nodeOrder[j])
	})
	nodes := make([]FlowNode, len(nodeOrder))
	for i, name := range nodeOrder {
		nodes[i] = FlowNode{Name: name}
	}

	b.logger.Debug("Built flow graph",
		slog.Int("max_layer", maxLayer),
		slog.Int("sessions", len(sessions)),
		slog.Int("links", len(links)))

	return &FlowGraph{
		Nodes:    nodes,
		Links:    links,
		MaxLayer: maxLayer,
		Sessions: len(sessions),
	}
}

// nodeLayer returns 0 for entry labels, n for "L{n}: ..." labels and a large value otherwise.
func nodeLayer(name string) int {
	switch name {
	case EntryDirect, EntryExternal, EntryInternal:
		return 0
	}
	rest, ok := strings.CutPrefix(name, "L")
	if !ok {
		return unknownLayer
	}
	num, _, ok := strings.Cut(rest, ":")
	if !ok {
		return unknownLayer
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return unknownLayer
	}
	return n
}
