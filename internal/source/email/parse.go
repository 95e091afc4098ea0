package email

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/mail-triage/internal/model"
)

// ToIncoming converts a fetched message to pipeline input. The plain text
// body is preferred; HTML is stripped to text otherwise. Replies are
// threaded on the message they answer.
func (p ParsedMessage) ToIncoming() model.IncomingEmail {
	body := p.TextBody
	if strings.TrimSpace(body) == "" && p.HTMLBody != "" {
		body = stripHTML(p.HTMLBody)
	}

	sender := p.Envelope.FromAddr
	if p.Envelope.FromName != "" && sender != "" {
		sender = fmt.Sprintf("%s <%s>", p.Envelope.FromName, sender)
	}

	threadID := p.Envelope.InReplyTo
	if threadID == "" {
		threadID = p.Envelope.MessageID
	}

	var received string
	if !p.Envelope.Date.IsZero() {
		received = p.Envelope.Date.UTC().Format(time.RFC3339)
	}

	return model.IncomingEmail{
		Sender:     sender,
		Subject:    p.Envelope.Subject,
		Body:       strings.TrimSpace(body),
		ReceivedAt: received,
		ThreadID:   threadID,
		MessageID:  p.Envelope.MessageID,
	}
}

// parseMIMEBody parses a raw RFC 5322 message with go-message and fills in
// the text/plain and text/html bodies. Header fields missing from the
// IMAP envelope are taken from the message itself.
func parseMIMEBody(raw []byte, p *ParsedMessage) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Not MIME: treat the whole thing as plain text.
		p.TextBody = string(raw)
		return
	}
	defer mr.Close()

	if ids, err := mr.Header.MsgIDList("In-Reply-To"); err == nil && len(ids) > 0 {
		p.Envelope.InReplyTo = ids[0]
	}
	if p.Envelope.Subject == "" {
		p.Envelope.Subject, _ = mr.Header.Subject()
	}
	if p.Envelope.FromAddr == "" {
		if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
			p.Envelope.FromName = from[0].Name
			p.Envelope.FromAddr = from[0].Address
		}
	}
	if p.Envelope.Date.IsZero() {
		p.Envelope.Date, _ = mr.Header.Date()
	}

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && p.TextBody == "":
			p.TextBody = string(body)
		case strings.HasPrefix(contentType, "text/html") && p.HTMLBody == "":
			p.HTMLBody = string(body)
		}
	}
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// htmlBlockPattern matches style and script elements with their content.
var htmlBlockPattern = regexp.MustCompile(`(?is)<(style|script)[^>]*>.*?</(style|script)>`)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := htmlBlockPattern.ReplaceAllString(html, "")
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>", "</tr>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
