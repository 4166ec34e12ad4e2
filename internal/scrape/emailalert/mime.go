package emailalert

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

const partLimit = 6 << 20 // per-part cap; alert emails are small

// parseBody splits an RFC822 message into its plain-text and HTML parts,
// walking nested multiparts and decoding transfer encodings. When both
// variants exist the longest of each wins.
func parseBody(raw []byte) (plain, html string) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		// not parseable as a message; treat the whole thing as text
		return string(raw), ""
	}
	body, _ := io.ReadAll(io.LimitReader(msg.Body, partLimit))
	plain, html = textParts(msg.Header, body)
	if plain == "" && html == "" {
		plain = string(body)
	}
	return plain, html
}

func textParts(h mail.Header, body []byte) (plain, html string) {
	cte := strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding")))

	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return string(decodeCTE(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return string(decodeCTE(body, cte)), ""
		}

		mr := multipart.NewReader(bytes.NewReader(body), boundary)
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			b, _ := io.ReadAll(io.LimitReader(p, partLimit))
			b = decodeCTE(b, strings.ToLower(strings.TrimSpace(p.Header.Get("Content-Transfer-Encoding"))))

			pMedia, _, _ := mime.ParseMediaType(p.Header.Get("Content-Type"))
			switch {
			case strings.HasPrefix(strings.ToLower(pMedia), "multipart/"):
				pl, ht := textParts(mail.Header(p.Header), b)
				if len(pl) > len(plain) {
					plain = pl
				}
				if len(ht) > len(html) {
					html = ht
				}
			case strings.HasPrefix(strings.ToLower(pMedia), "text/plain"):
				if len(b) > len(plain) {
					plain = string(b)
				}
			case strings.HasPrefix(strings.ToLower(pMedia), "text/html"):
				if len(b) > len(html) {
					html = string(b)
				}
			}
		}
		return plain, html
	}

	decoded := decodeCTE(body, cte)
	if strings.HasPrefix(mediaType, "text/html") {
		return "", string(decoded)
	}
	return string(decoded), ""
}

func decodeCTE(b []byte, cte string) []byte {
	switch cte {
	case "base64":
		out, _ := io.ReadAll(io.LimitReader(
			base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b)), partLimit))
		return out
	case "quoted-printable":
		out, _ := io.ReadAll(io.LimitReader(
			quotedprintable.NewReader(bytes.NewReader(b)), partLimit))
		return out
	default:
		return b
	}
}

// decodeSubject unfolds RFC2047 encoded-word subjects ("=?UTF-8?Q?...").
func decodeSubject(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	out, err := new(mime.WordDecoder).DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}
