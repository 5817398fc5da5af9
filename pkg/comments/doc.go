// Package comments harvests the comment tree of one video as a flat stream.
//
// Two explicitly stateful iterators do the paging: CommentIterator over the
// top-level listing and ReplyIterator over the replies of a single comment.
// Harvester.Run composes them depth-first by comment, so every comment is
// immediately followed by all of its replies.
package comments
