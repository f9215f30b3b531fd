package openapi

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

// SuggestionCutoff is the minimum similarity ratio for Closest to report a match.
const SuggestionCutoff = 0.7

// httpVerbs are the operation keys a path item may declare.
var httpVerbs = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"options": {},
	"head":    {},
	"patch":   {},
	"trace":   {},
}

// Operation is one declared verb of a path and the response codes listed for it.
type Operation struct {
	Verb          string
	ResponseCodes []string
}

// PathItem is a schema path with its operations in document order.
type PathItem struct {
	Path       string
	Operations []Operation
}

// Index maps path → verb → expected response codes, preserving the order in
// which the document declares them. It is immutable once built.
type Index struct {
	items  []PathItem
	byPath map[string]int
}

// NewIndex builds an index from already-extracted path items. Duplicate paths
// are rejected so every path appears exactly once.
func NewIndex(items []PathItem) (*Index, error) {
	ix := &Index{
		items:  make([]PathItem, 0, len(items)),
		byPath: make(map[string]int, len(items)),
	}
	for _, item := range items {
		if _, exists := ix.byPath[item.Path]; exists {
			return nil, &SchemaError{Reason: fmt.Sprintf("path %q declared more than once", item.Path)}
		}
		ops := make([]Operation, 0, len(item.Operations))
		for _, op := range item.Operations {
			ops = append(ops, Operation{
				Verb:          strings.ToLower(op.Verb),
				ResponseCodes: append([]string(nil), op.ResponseCodes...),
			})
		}
		ix.byPath[item.Path] = len(ix.items)
		ix.items = append(ix.items, PathItem{Path: item.Path, Operations: ops})
	}
	return ix, nil
}

// BuildIndex walks the `paths` object of a decoded document node.
func BuildIndex(root *yaml.Node) (*Index, error) {
	doc := root
	if doc != nil && doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc == nil || doc.Kind != yaml.MappingNode {
		return nil, &SchemaError{Reason: "document root is not an object"}
	}

	paths := mappingValue(doc, "paths")
	if paths == nil {
		return nil, &SchemaError{Reason: "the OpenAPI schema does not contain a 'paths' object"}
	}
	if paths.Kind != yaml.MappingNode {
		return nil, &SchemaError{Reason: "'paths' is not an object"}
	}

	pathPairs := mappingPairs(paths)
	items := make([]PathItem, 0, len(pathPairs))
	for _, path := range pathPairs {
		item := PathItem{Path: path.key}
		for _, op := range mappingPairs(path.value) {
			verb := strings.ToLower(op.key)
			if _, ok := httpVerbs[verb]; !ok {
				continue
			}
			item.Operations = append(item.Operations, Operation{
				Verb:          verb,
				ResponseCodes: mappingKeys(mappingValue(op.value, "responses")),
			})
		}
		items = append(items, item)
	}
	return NewIndex(items)
}

// Len returns the number of paths.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.items)
}

// Paths lists every schema path in document order.
func (ix *Index) Paths() []string {
	if ix == nil {
		return nil
	}
	out := make([]string, 0, len(ix.items))
	for _, item := range ix.items {
		out = append(out, item.Path)
	}
	return out
}

// Verbs lists the lowercase verbs declared for path, in document order.
func (ix *Index) Verbs(path string) []string {
	item, ok := ix.item(path)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(item.Operations))
	for _, op := range item.Operations {
		out = append(out, op.Verb)
	}
	return out
}

// ResponseCodes returns the declared status codes for a (path, verb) pair.
// The second result is false when the verb is not declared for the path.
func (ix *Index) ResponseCodes(path, verb string) ([]string, bool) {
	item, ok := ix.item(path)
	if !ok {
		return nil, false
	}
	verb = strings.ToLower(verb)
	for _, op := range item.Operations {
		if op.Verb == verb {
			return append([]string(nil), op.ResponseCodes...), true
		}
	}
	return nil, false
}

// Lookup resolves an operator-supplied endpoint to the schema path it names,
// ignoring a single trailing slash on either side.
func (ix *Index) Lookup(endpoint string) (string, bool) {
	if ix == nil {
		return "", false
	}
	if _, ok := ix.byPath[endpoint]; ok {
		return endpoint, true
	}
	want := trimTrailingSlash(endpoint)
	for _, item := range ix.items {
		if trimTrailingSlash(item.Path) == want {
			return item.Path, true
		}
	}
	return "", false
}

// Closest returns the schema path most similar to endpoint, if any scores at
// least SuggestionCutoff.
func (ix *Index) Closest(endpoint string) (string, bool) {
	if ix == nil {
		return "", false
	}
	target := strings.Split(endpoint, "")
	best, bestRatio := "", 0.0
	for _, item := range ix.items {
		m := difflib.NewMatcher(strings.Split(item.Path, ""), target)
		if m.RealQuickRatio() < SuggestionCutoff || m.QuickRatio() < SuggestionCutoff {
			continue
		}
		if ratio := m.Ratio(); ratio >= SuggestionCutoff && ratio > bestRatio {
			best, bestRatio = item.Path, ratio
		}
	}
	return best, best != ""
}

func (ix *Index) item(path string) (PathItem, bool) {
	if ix == nil {
		return PathItem{}, false
	}
	resolved, ok := ix.Lookup(path)
	if !ok {
		return PathItem{}, false
	}
	return ix.items[ix.byPath[resolved]], true
}

func trimTrailingSlash(p string) string {
	return strings.TrimSuffix(p, "/")
}

// resolve follows alias nodes to the node they point at.
func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

type pair struct {
	key   string
	value *yaml.Node
}

// mappingPairs lists the key/value pairs of a mapping in document order,
// with `<<` merge keys expanded in place. Explicit keys win over merged ones.
func mappingPairs(node *yaml.Node) []pair {
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}

	explicit := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if !isMergeKey(node.Content[i]) {
			explicit[node.Content[i].Value] = true
		}
	}

	var out []pair
	seen := make(map[string]bool, len(explicit))
	add := func(key string, value *yaml.Node) {
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, pair{key: key, value: resolve(value)})
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if !isMergeKey(key) {
			add(key.Value, value)
			continue
		}
		for _, src := range mergeSources(value) {
			for _, p := range mappingPairs(src) {
				if !explicit[p.key] {
					add(p.key, p.value)
				}
			}
		}
	}
	return out
}

func isMergeKey(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && (node.Tag == "!!merge" || (node.Tag == "" && node.Value == "<<"))
}

// mergeSources returns the mappings named by a merge value, either a single
// mapping or a sequence of them.
func mergeSources(value *yaml.Node) []*yaml.Node {
	value = resolve(value)
	if value == nil {
		return nil
	}
	if value.Kind == yaml.SequenceNode {
		return value.Content
	}
	return []*yaml.Node{value}
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for _, p := range mappingPairs(node) {
		if p.key == key {
			return p.value
		}
	}
	return nil
}

func mappingKeys(node *yaml.Node) []string {
	pairs := mappingPairs(node)
	if pairs == nil {
		return nil
	}
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.key)
	}
	return keys
}
