package email

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartMessage = "From: Jane Doe <jane@acme.example>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Security Annex questions\r\n" +
	"Date: Mon, 05 Jan 2026 09:15:00 +0000\r\n" +
	"Message-ID: <m2@acme.example>\r\n" +
	"In-Reply-To: <m1@example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=b1\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Two questions on clause 4.\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Two questions on <b>clause 4</b>.</p>\r\n" +
	"--b1--\r\n"

func TestParseMIMEBody_Multipart(t *testing.T) {
	var p ParsedMessage
	parseMIMEBody([]byte(multipartMessage), &p)

	assert.Equal(t, "Two questions on clause 4.", strings.TrimSpace(p.TextBody))
	assert.Contains(t, p.HTMLBody, "<b>clause 4</b>")
	assert.Equal(t, "m1@example.com", p.Envelope.InReplyTo)
	assert.Equal(t, "Security Annex questions", p.Envelope.Subject)
	assert.Equal(t, "jane@acme.example", p.Envelope.FromAddr)
	assert.Equal(t, "Jane Doe", p.Envelope.FromName)
}

func TestParseMIMEBody_Latin1(t *testing.T) {
	raw := "From: ops@example.com\r\n" +
		"Subject: =?ISO-8859-1?Q?R=E9sum=E9?=\r\n" +
		"Content-Type: text/plain; charset=iso-8859-1\r\n" +
		"\r\n" +
		"Caf\xe9 meeting\r\n"

	var p ParsedMessage
	parseMIMEBody([]byte(raw), &p)

	assert.Equal(t, "Résumé", p.Envelope.Subject)
	assert.Equal(t, "Café meeting", strings.TrimSpace(p.TextBody))
}

func TestToIncoming(t *testing.T) {
	p := ParsedMessage{
		Envelope: Envelope{
			MessageID: "m2@acme.example",
			InReplyTo: "m1@example.com",
			Subject:   "Annex",
			FromName:  "Jane Doe",
			FromAddr:  "jane@acme.example",
			Date:      time.Date(2026, 1, 5, 10, 0, 0, 0, time.FixedZone("CET", 3600)),
		},
		HTMLBody: "<div>Hello&nbsp;there</div><style>p{}</style>",
	}

	got := p.ToIncoming()

	assert.Equal(t, "Jane Doe <jane@acme.example>", got.Sender)
	assert.Equal(t, "Annex", got.Subject)
	assert.Equal(t, "Hello there", got.Body)
	assert.Equal(t, "2026-01-05T09:00:00Z", got.ReceivedAt)
	assert.Equal(t, "m1@example.com", got.ThreadID)
	assert.Equal(t, "m2@acme.example", got.MessageID)
}

func TestToIncoming_NoReplyThreadsOnMessageID(t *testing.T) {
	got := ParsedMessage{Envelope: Envelope{MessageID: "x@y", FromAddr: "a@b.c"}, TextBody: "hi"}.ToIncoming()

	assert.Equal(t, "x@y", got.ThreadID)
	assert.Equal(t, "a@b.c", got.Sender)
	assert.Empty(t, got.ReceivedAt)
}

func TestStripHTML(t *testing.T) {
	in := "<html><head><script>alert(1)</script></head><body><p>Line one</p><p>A &amp; B</p></body></html>"
	require.Equal(t, "Line one\nA & B", stripHTML(in))
	assert.Empty(t, stripHTML(""))
}
