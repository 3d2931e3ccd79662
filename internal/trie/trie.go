// Package trie stores file system paths by segment, so that a lookup can
// tell whether a file lies under any stored directory in one walk.
package trie

import (
	"path/filepath"
	"sort"
	"strings"
)

// Nodes live in a single arena slice and refer to their children by
// index.

// NodeIndex is the index of a node in the arena.
type NodeIndex int

type arenaNode struct {
	children map[string]NodeIndex
	// isEnd marks the last segment of a stored path.
	isEnd bool
}

// Trie is a set of cleaned paths.
type Trie struct {
	nodes []arenaNode
	size  int
}

// New returns an empty trie.
func New() *Trie {
	t := &Trie{nodes: make([]arenaNode, 0, 64)}
	t.newNode() // root
	return t
}

func (t *Trie) newNode() NodeIndex {
	idx := NodeIndex(len(t.nodes))
	t.nodes = append(t.nodes, arenaNode{children: make(map[string]NodeIndex)})
	return idx
}

// Split cleans path and breaks it into segments. An absolute path starts
// with the segment "/".
func Split(path string) []string {
	clean := filepath.ToSlash(filepath.Clean(path))
	var segments []string
	if strings.HasPrefix(clean, "/") {
		segments = append(segments, "/")
		clean = strings.TrimLeft(clean, "/")
	}
	if clean == "" || clean == "." {
		return segments
	}
	return append(segments, strings.Split(clean, "/")...)
}

// Insert adds path to the set.
func (t *Trie) Insert(path string) {
	current := NodeIndex(0)
	for _, part := range Split(path) {
		child, ok := t.nodes[current].children[part]
		if !ok {
			child = t.newNode()
			t.nodes[current].children[part] = child
		}
		current = child
	}
	if !t.nodes[current].isEnd {
		t.nodes[current].isEnd = true
		t.size++
	}
}

// Covers reports whether path or one of its parent directories is in the
// set.
func (t *Trie) Covers(path string) bool {
	current := NodeIndex(0)
	if t.nodes[current].isEnd {
		return true
	}
	for _, part := range Split(path) {
		child, ok := t.nodes[current].children[part]
		if !ok {
			return false
		}
		if t.nodes[child].isEnd {
			return true
		}
		current = child
	}
	return false
}

// Len returns the number of stored paths.
func (t *Trie) Len() int { return t.size }

// DebugString renders the trie with sorted keys, e.g. "a(*b(*))".
func (t *Trie) DebugString() string {
	return t.debugStringNode(0)
}

func (t *Trie) debugStringNode(idx NodeIndex) string {
	node := t.nodes[idx]
	var sb strings.Builder
	if node.isEnd {
		sb.WriteString("*")
	}

	keys := make([]string, 0, len(node.children))
	for key := range node.children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteString("(")
		sb.WriteString(t.debugStringNode(node.children[key]))
		sb.WriteString(")")
	}
	return sb.String()
}
