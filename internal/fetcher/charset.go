package fetcher

import (
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

var xmlEncodingRe = regexp.MustCompile(`^(\s*<\?xml[^>]*?encoding=["'])([A-Za-z0-9._:-]+)(["'])`)

// toUTF8 returns body as UTF-8 text. Valid UTF-8 passes through untouched.
// Otherwise the charset comes from the Content-Type header, then the XML
// declaration, then statistical detection. Bodies in an unknown charset are
// returned as-is.
func toUTF8(body []byte, contentType string) string {
	if utf8.Valid(body) {
		return string(body)
	}

	name := declaredCharset(body, contentType)
	if name == "" {
		res, err := chardet.NewTextDetector().DetectBest(body)
		if err != nil {
			return string(body)
		}
		name = res.Charset
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		enc, err = htmlindex.Get(strings.ReplaceAll(name, "-", ""))
		if err != nil {
			return string(body)
		}
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}

	// The declaration must not make an XML parser decode the text twice.
	return xmlEncodingRe.ReplaceAllString(string(decoded), "${1}UTF-8${3}")
}

func declaredCharset(body []byte, contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
		return params["charset"]
	}
	if m := xmlEncodingRe.FindSubmatch(body); m != nil {
		return string(m[2])
	}
	return ""
}
