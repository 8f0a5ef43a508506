package render

import (
	"sort"
	"strings"

	"snapdiff/internal/domain"
)

// treeNode is one node of the rendered difference tree. Intermediate
// directories synthesized from record paths carry no record.
type treeNode struct {
	name     string
	record   *domain.FsDiffRecord
	children map[string]*treeNode
}

func newTreeNode(name string) *treeNode {
	return &treeNode{name: name, children: make(map[string]*treeNode)}
}

// insert walks the path components below n, creating intermediate
// nodes as needed, and attaches the record at the leaf
func (n *treeNode) insert(path string, rec *domain.FsDiffRecord) {
	node := n
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, part := range parts {
		if part == "" {
			continue
		}
		child, ok := node.children[part]
		if !ok {
			child = newTreeNode(part)
			node.children[part] = child
		}
		node = child
	}
	node.record = rec
}

// tree renders the difference tree format
func (r *Renderer) tree(res *domain.FsDiffResults) string {
	root := newTreeNode("/")
	for i := range res.Records {
		rec := &res.Records[i]
		if rec.Path == "/" {
			root.record = rec
			continue
		}
		root.insert(rec.Path, rec)
	}

	branch, last, vbar := "├── ", "└── ", "│"
	if r.opts.ASCII {
		branch, last, vbar = "|-- ", "`-- ", "|"
	}

	var out []string
	var walk func(node *treeNode, prefix string, isLast, isRoot bool)
	walk = func(node *treeNode, prefix string, isLast, isRoot bool) {
		connector := ""
		if !isRoot {
			connector = branch
			if isLast {
				connector = last
			}
		}

		marker := r.changeMarker(node.record)
		spacer := ""
		if marker != "" {
			spacer = " "
		}

		out = append(out, prefix+connector+marker+spacer+node.name+
			r.moveSuffix(node.record)+r.describe(node.record))

		extension := ""
		if !isRoot {
			extension = vbar + "   "
			if isLast {
				extension = "    "
			}
		}

		names := make([]string, 0, len(node.children))
		for name := range node.children {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			walk(node.children[name], prefix+extension, i == len(names)-1, false)
		}
	}
	walk(root, "", true, true)
	return strings.Join(out, "\n")
}

// changeMarker returns the color-coded change marker for a record
func (r *Renderer) changeMarker(rec *domain.FsDiffRecord) string {
	if rec == nil {
		return ""
	}
	switch rec.Kind {
	case domain.ChangeAdded:
		return r.pal.green("[+]")
	case domain.ChangeRemoved:
		return r.pal.red("[-]")
	case domain.ChangeModified:
		return r.pal.yellow("[*]")
	case domain.ChangeTypeChanged:
		return r.pal.blue("[!]")
	case domain.ChangeMovedFrom:
		return r.pal.cyan("[<]")
	case domain.ChangeMovedTo:
		return r.pal.cyan("[>]")
	}
	return ""
}

// moveSuffix annotates a move node with the other half of the pair
func (r *Renderer) moveSuffix(rec *domain.FsDiffRecord) string {
	if rec == nil || rec.PairPath == "" {
		return ""
	}
	switch rec.Kind {
	case domain.ChangeMovedFrom:
		return " -> " + rec.PairPath
	case domain.ChangeMovedTo:
		return " <- " + rec.PairPath
	}
	return ""
}

// describe renders the optional per-node change description
func (r *Renderer) describe(rec *domain.FsDiffRecord) string {
	if rec == nil || r.opts.Desc == DescNone || len(rec.Changes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(rec.Changes))
	for _, chg := range rec.Changes {
		if r.opts.Desc == DescFull {
			parts = append(parts, chg.Description)
		} else {
			parts = append(parts, string(chg.Type))
		}
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
