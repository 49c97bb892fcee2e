package feed

import (
	"sort"
	"strings"

	"instafacts-api/models"
)

// replyPrefix is the legacy encoding: before comments carried a parent_id
// column, a reply was stored as "@re:<parent-id> <content>".
const replyPrefix = "@re:"

// DecodeRow adapts a stored comment to the common intermediate shape. The
// explicit parent column wins; otherwise the legacy content prefix is decoded.
func DecodeRow(c models.Comment, up, down []string) Row {
	row := Row{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		Edited:    c.Edited,
		CreatedAt: c.CreatedAt,
		LikesUp:   up,
		LikesDown: down,
	}
	if c.ParentID != nil && *c.ParentID != "" {
		row.ParentID = *c.ParentID
		return row
	}
	if parent, rest, ok := SplitLegacyReply(c.Content); ok {
		row.ParentID = parent
		row.Content = rest
	}
	return row
}

// SplitLegacyReply peels the "@re:<id> " marker off a comment body. Returns
// ok=false when the content is not reply-encoded.
func SplitLegacyReply(content string) (parentID, rest string, ok bool) {
	if !strings.HasPrefix(content, replyPrefix) {
		return "", "", false
	}
	tagged := content[len(replyPrefix):]
	idx := strings.IndexByte(tagged, ' ')
	if idx <= 0 {
		return "", "", false
	}
	return tagged[:idx], tagged[idx+1:], true
}

// BuildTree assembles the flat rows of one post into the one-level comment
// tree. A row whose parent resolves attaches to that parent's top-level
// comment, so a reply to a reply is flattened onto the original comment
// rather than nested deeper. Rows with unresolvable parents become top-level.
// Ordering is ascending creation time, stable on ties.
func BuildTree(rows []Row) []*Comment {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	byID := make(map[string]Row, len(sorted))
	for _, r := range sorted {
		byID[r.ID] = r
	}

	nodes := make(map[string]*Comment, len(sorted))
	top := []*Comment{}
	for _, r := range sorted {
		node := &Comment{
			ID:        r.ID,
			PostID:    r.PostID,
			UserID:    r.UserID,
			Content:   r.Content,
			Edited:    r.Edited,
			CreatedAt: r.CreatedAt,
			LikesUp:   r.LikesUp,
			LikesDown: r.LikesDown,
		}
		nodes[r.ID] = node

		rootID, ok := topLevelAncestor(r, byID)
		if !ok {
			top = append(top, node)
			continue
		}
		if root, built := nodes[rootID]; built {
			root.Replies = append(root.Replies, node)
		} else {
			// Parent chain resolves but the ancestor sorts later
			// (equal timestamps, reversed arrival). Treat as top-level
			// rather than dropping the row.
			top = append(top, node)
		}
	}
	return top
}

// topLevelAncestor walks the parent chain of a reply up to its top-level
// comment. ok=false for top-level rows, rows whose parent is missing, and
// rows whose chain cycles back onto themselves; those render top-level
// instead of attaching to their own node.
func topLevelAncestor(r Row, byID map[string]Row) (string, bool) {
	if r.ParentID == "" {
		return "", false
	}
	seen := map[string]bool{r.ID: true}
	cur, ok := byID[r.ParentID]
	if !ok {
		return "", false
	}
	for cur.ParentID != "" && !seen[cur.ID] {
		seen[cur.ID] = true
		next, found := byID[cur.ParentID]
		if !found {
			break
		}
		cur = next
	}
	if cur.ID == r.ID {
		return "", false
	}
	return cur.ID, true
}
