package decode

import (
	"strings"

	"github.com/beevik/etree"
)

// Identifier roots used to pick the right <id> among siblings.
const (
	programNameRoot  = "2.16.840.1.113883.3.249.7"
	tinRoot          = "2.16.840.1.113883.4.2"
	npiRoot          = "2.16.840.1.113883.4.6"
	ecqmMeasureRoot  = "2.16.840.1.113883.4.738"
	templateIDTag    = "templateId"
	xsiTypeAttribute = "xsi:type"
)

// children returns the direct child elements of el whose local name is tag.
func children(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// first returns the first element reached by following tags from el.
func first(el *etree.Element, tags ...string) *etree.Element {
	all := findAll(el, tags...)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// findAll follows tags from el through every matching branch, in document
// order. Only local names are compared, so prefixed and default-namespace
// documents decode the same way.
func findAll(el *etree.Element, tags ...string) []*etree.Element {
	if el == nil {
		return nil
	}
	level := []*etree.Element{el}
	for _, tag := range tags {
		var next []*etree.Element
		for _, e := range level {
			next = append(next, children(e, tag)...)
		}
		if len(next) == 0 {
			return nil
		}
		level = next
	}
	return level
}

// attr returns the trimmed value of key on el, or "" when el is nil.
// Keys of the form "prefix:name" match namespaced attributes.
func attr(el *etree.Element, key string) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.SelectAttrValue(key, ""))
}

// idExtension returns the extension of the first id element whose root
// equals root.
func idExtension(ids []*etree.Element, root string) (string, bool) {
	for _, id := range ids {
		if attr(id, "root") == root {
			ext := attr(id, "extension")
			return ext, ext != ""
		}
	}
	return "", false
}

// referenceID returns the id extension of an entry's external document or
// external observation reference. When root is non-empty, ids with that
// root win over the others.
func referenceID(el *etree.Element, root string) string {
	ids := append(findAll(el, "reference", "externalDocument", "id"),
		findAll(el, "reference", "externalObservation", "id")...)
	if root != "" {
		if ext, ok := idExtension(ids, root); ok {
			return ext
		}
	}
	for _, id := range ids {
		if ext := attr(id, "extension"); ext != "" {
			return ext
		}
	}
	return ""
}

// templateIDs returns the root/extension pairs declared by el's own
// templateId children.
func templateIDs(el *etree.Element) [][2]string {
	var out [][2]string
	for _, t := range children(el, templateIDTag) {
		out = append(out, [2]string{attr(t, "root"), attr(t, "extension")})
	}
	return out
}

// qualifiedName flattens a namespaced attribute key.
func qualifiedName(a etree.Attr) string {
	if a.Space == "" {
		return a.Key
	}
	return a.Space + ":" + a.Key
}
