// Package pano is a link-analysis toolkit for open source intelligence
// work. It models investigations as graphs of typed entities (people,
// organizations, locations, events, online identifiers) connected by
// labeled relationships, runs transforms that expand an entity into
// related ones, deduplicates what transforms and enrichment produce,
// and persists investigations as named snapshots.
//
// The Client type wires the pieces together; the packages under pkg/
// can also be used individually.
package pano
