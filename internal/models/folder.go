package models

import "sort"

// FolderNode is one mailbox in a hierarchy. In flattened output Name is fully
// qualified with every ancestor name and the hierarchy delimiter.
type FolderNode struct {
	Name      string       `json:"name"`
	Delimiter string       `json:"delimiter"`
	Children  []FolderNode `json:"children,omitempty"`
}

// FolderTreeNode is one entry of the nested name keyed mapping a server
// reports for its mailbox hierarchy.
type FolderTreeNode struct {
	Delimiter string
	Children  FolderTree
}

// FolderTree maps a mailbox name to its node. The tree is provided by the
// server and trusted to be finite.
type FolderTree map[string]*FolderTreeNode

// FlattenFolderTree walks the tree depth first, parent before children, and
// emits nodes with delimiter qualified names. Sibling order is lexicographic
// so output is deterministic regardless of map iteration order.
func FlattenFolderTree(tree FolderTree, prefix string) []FolderNode {
	if len(tree) == 0 {
		return []FolderNode{}
	}

	names := make([]string, 0, len(tree))
	for name := range tree {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]FolderNode, 0, len(tree))
	for _, name := range names {
		node := tree[name]
		qualified := prefix + name
		out = append(out, FolderNode{Name: qualified, Delimiter: node.Delimiter})
		if len(node.Children) > 0 {
			out = append(out, FlattenFolderTree(node.Children, qualified+node.Delimiter)...)
		}
	}
	return out
}
