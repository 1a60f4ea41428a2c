// Package gmail_tools provides MCP (Model Context Protocol) tools for interacting with Gmail.
//
// Every tool declares the OAuth scope it needs and is only registered when the
// active permission config grants that scope:
//
// Threads:
//   - gmail_list_threads (gmail.readonly): List threads matching a search query
//   - gmail_archive_threads (gmail.modify): Remove threads from the inbox
//
// Messages and attachments:
//   - gmail_list_attachments (gmail.readonly): List the attachments of a message
//   - gmail_get_attachment (gmail.readonly): Retrieve attachment content (base64 or text)
//   - gmail_get_message_bodies (gmail.readonly): Extract text or HTML bodies
//
// Composing:
//   - gmail_draft_message (gmail.compose): Save a draft with attachments
//   - gmail_send_message (gmail.send): Send a message with attachments
//   - gmail_forward_message (gmail.send): Forward a message, attachments included
//
// Attachments for drafts and sent messages are given as a JSON array mixing
// inline content and references to attachments already in the mailbox:
//
//	[
//	  {"filename": "notes.txt", "content_base64": "aGVsbG8="},
//	  {"filename": "report.pdf", "source_message_id": "msg123", "source_attachment_id": "att456"}
//	]
//
// All tools take an optional account argument selecting which authorized
// Google account to act as.
package gmail_tools
