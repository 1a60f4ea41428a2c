// Package gmail composes and delivers Gmail messages with attachments.
//
// Outgoing mail flows through three steps:
//
//   - ParseAttachmentSpec and ResolveDescriptors turn a JSON attachment list
//     into bytes. Inline entries carry standard base64 content, reference
//     entries name an attachment of an existing message and are downloaded
//     through an AttachmentFetcher.
//   - PrepareMessage serializes an Envelope into the base64url RFC 5322 form
//     the Gmail API accepts. Messages with attachments become multipart/mixed.
//   - Send, Draft and Forward tie both together against a MailService.
//
// Attachments are limited to MaxAttachmentSize each. Any failure while
// resolving aborts the whole call before anything is sent.
//
// Example usage:
//
//	client, err := gmail.NewClient(ctx, "default", httpClient)
//	if err != nil {
//	    return err
//	}
//
//	res, err := gmail.Send(ctx, client, gmail.ComposeRequest{
//	    To:          []string{"recipient@example.com"},
//	    Subject:     "Report",
//	    Body:        "See attached.",
//	    Attachments: `[{"filename":"report.pdf","content_base64":"JVBERi0x"}]`,
//	})
package gmail
