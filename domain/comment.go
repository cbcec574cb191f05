package domain

import "time"

// MaxCommentDepth bounds the reply tree. Deleting a comment walks the
// parent-pointer adjacency transitively, and the bound keeps that traversal
// finite on pathological data.
const MaxCommentDepth = 16

// Comment is a comment on a blog post. Replies reference their parent via
// ParentID; top-level comments have an empty ParentID.
type Comment struct {
	ID        string        `json:"id" dynamodbav:"CommentID"`
	BlogID    string        `json:"blogId" dynamodbav:"BlogID"`
	ParentID  string        `json:"parentId,omitempty" dynamodbav:"ParentID,omitempty"`
	Author    AuthorSummary `json:"author" dynamodbav:"Author"`
	Body      string        `json:"body" dynamodbav:"Body"`
	CreatedAt time.Time     `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt time.Time     `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// IsReply reports whether the comment is a reply to another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != ""
}
