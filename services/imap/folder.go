package imap

import (
	"strings"

	"github.com/emersion/go-imap"

	"github.com/inboxlab/mailbridge/internal/models"
)

// buildFolderTree nests the flat LIST response by splitting each qualified
// mailbox name on its hierarchy delimiter. Parents the server did not list
// explicitly are created on the way down.
func buildFolderTree(infos []*imap.MailboxInfo) models.FolderTree {
	tree := models.FolderTree{}

	for _, info := range infos {
		if info == nil || info.Name == "" {
			continue
		}

		parts := []string{info.Name}
		if info.Delimiter != "" {
			parts = strings.Split(info.Name, info.Delimiter)
		}

		current := tree
		for _, part := range parts {
			if part == "" {
				continue
			}
			node, ok := current[part]
			if !ok {
				node = &models.FolderTreeNode{
					Delimiter: info.Delimiter,
					Children:  models.FolderTree{},
				}
				current[part] = node
			}
			current = node.Children
		}
	}

	return tree
}
