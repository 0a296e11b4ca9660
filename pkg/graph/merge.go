package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/blackvectorops/pano/pkg/entity"
)

// MergeConfig tunes the duplicate resolver. Zero values are replaced by the
// defaults from DefaultMergeConfig.
type MergeConfig struct {
	// EventThreshold is the minimum fuzzy score for event merges. Events
	// merge more aggressively because independent sources describe the same
	// incident with different wording.
	EventThreshold float64
	// DefaultThreshold is the minimum fuzzy score for every other type.
	DefaultThreshold float64
	// Boost multiplies the score when type-specific evidence of identity is
	// found (a shared significant word for events, a matching first word for
	// person-like labels).
	Boost float64
	// SignificantWordLen is the exclusive minimum length for a shared word
	// to count as significant in the event boost.
	SignificantWordLen int
}

// DefaultMergeConfig returns the tuned thresholds the resolver ships with.
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		EventThreshold:     0.5,
		DefaultThreshold:   0.7,
		Boost:              1.5,
		SignificantWordLen: 4,
	}
}

func (c MergeConfig) withDefaults() MergeConfig {
	def := DefaultMergeConfig()
	if c.EventThreshold == 0 {
		c.EventThreshold = def.EventThreshold
	}
	if c.DefaultThreshold == 0 {
		c.DefaultThreshold = def.DefaultThreshold
	}
	if c.Boost == 0 {
		c.Boost = def.Boost
	}
	if c.SignificantWordLen == 0 {
		c.SignificantWordLen = def.SignificantWordLen
	}
	return c
}

// Resolver reconciles incoming entities against the nodes already in a
// graph, merging duplicates instead of inserting them twice.
type Resolver struct {
	graph  *Graph
	logger *slog.Logger
	cfg    MergeConfig
}

// NewResolver builds a resolver over the given graph.
func NewResolver(g *Graph, logger *slog.Logger, cfg MergeConfig) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{graph: g, logger: logger, cfg: cfg.withDefaults()}
}

// Outcome describes what happened to one resolved entity.
type Outcome struct {
	Node   *Node
	Merged bool
}

// Resolve processes entities in order, merging each into an existing node
// when one matches and inserting a new node otherwise. Entities resolved
// earlier in the batch are visible as merge candidates for later ones.
func (r *Resolver) Resolve(ctx context.Context, entities []*entity.Entity) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(entities))
	for _, e := range entities {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out, err := r.resolveOne(ctx, e)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// ResolveOne merges a single entity into the graph or inserts it as a new
// node.
func (r *Resolver) ResolveOne(ctx context.Context, e *entity.Entity) (Outcome, error) {
	return r.resolveOne(ctx, e)
}

// Find locates the node an incoming label would merge into, using the same
// exact-then-fuzzy matching as Resolve.
func (r *Resolver) Find(entityType, label string) (*Node, bool) {
	node := r.findMatch(entityType, label)
	return node, node != nil
}

func (r *Resolver) resolveOne(ctx context.Context, e *entity.Entity) (Outcome, error) {
	match := r.findMatch(e.Type(), e.Label())
	if match == nil {
		node := r.graph.AddNode(e, Position{})
		return Outcome{Node: node}, nil
	}

	merged, err := r.merge(ctx, match.Entity, e)
	if err != nil {
		return Outcome{}, fmt.Errorf("merging %s into node %s: %w", e.Label(), match.ID(), err)
	}
	node, err := r.graph.UpdateNode(match.ID(), merged)
	if err != nil {
		return Outcome{}, err
	}
	r.logger.Info("merged duplicate entity",
		"type", e.Type(),
		"incoming", e.Label(),
		"node_id", node.ID(),
		"label", merged.Label(),
	)
	return Outcome{Node: node, Merged: true}, nil
}

// findMatch scans existing nodes in insertion order. An exact
// case-insensitive type:label match wins outright; otherwise the
// highest-scoring node at or above the type's threshold is taken, with ties
// going to the earliest-inserted node.
func (r *Resolver) findMatch(entityType, label string) *Node {
	key := matchKey(entityType, label)
	nodes := r.graph.Nodes()

	for _, node := range nodes {
		if !strings.EqualFold(node.Entity.Type(), entityType) {
			continue
		}
		if matchKey(node.Entity.Type(), node.Entity.Label()) == key {
			return node
		}
	}

	threshold := r.cfg.DefaultThreshold
	if strings.EqualFold(entityType, entity.KindEvent) {
		threshold = r.cfg.EventThreshold
	}

	var best *Node
	bestScore := 0.0
	for _, node := range nodes {
		if !strings.EqualFold(node.Entity.Type(), entityType) {
			continue
		}
		score := r.similarity(entityType, label, node.Entity.Label())
		if score >= threshold && score > bestScore {
			best = node
			bestScore = score
		}
	}
	return best
}

// similarity scores two labels in [0,1] (boosts may push the raw value
// higher; callers only compare against thresholds). The base score blends
// word-set Jaccard, average word length ratio, and the overlap coefficient.
func (r *Resolver) similarity(entityType, a, b string) float64 {
	wordsA := normalizeWords(a)
	wordsB := normalizeWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	setA := wordSet(wordsA)
	setB := wordSet(wordsB)
	shared := intersect(setA, setB)

	union := len(setA) + len(setB) - len(shared)
	jaccard := float64(len(shared)) / float64(union)

	lenA := avgWordLen(wordsA)
	lenB := avgWordLen(wordsB)
	lenRatio := min(lenA, lenB) / max(lenA, lenB)

	smaller := min(len(setA), len(setB))
	overlap := float64(len(shared)) / float64(smaller)

	score := 0.4*jaccard + 0.2*lenRatio + 0.4*overlap

	switch {
	case strings.EqualFold(entityType, entity.KindEvent):
		for word := range shared {
			if len(word) > r.cfg.SignificantWordLen {
				score *= r.cfg.Boost
				break
			}
		}
	case strings.EqualFold(entityType, entity.KindPerson):
		if wordsA[0] == wordsB[0] {
			score *= r.cfg.Boost
		}
	}
	return score
}

// merge folds the incoming entity's properties into the existing one.
// Incoming values win on conflict; the merged entity re-derives its label.
func (r *Resolver) merge(ctx context.Context, existing, incoming *entity.Entity) (*entity.Entity, error) {
	incomingProps := incoming.Properties()
	updates := make(map[string]any, len(incomingProps))
	for k, v := range incomingProps {
		if entity.IsEmptyValue(v) {
			continue
		}
		updates[k] = v
	}
	if err := existing.Apply(ctx, updates); err != nil {
		return nil, err
	}
	return existing, nil
}

func matchKey(entityType, label string) string {
	return strings.ToLower(entityType + ":" + label)
}

// normalizeWords lowercases a label and splits it into words, treating any
// punctuation as a separator.
func normalizeWords(s string) []string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for w := range a {
		if _, ok := b[w]; ok {
			out[w] = struct{}{}
		}
	}
	return out
}

func avgWordLen(words []string) float64 {
	total := 0
	for _, w := range words {
		total += len(w)
	}
	return float64(total) / float64(len(words))
}
