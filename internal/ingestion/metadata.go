package ingestion

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode"
)

// knownHosts maps documentation hosts to the label shown for their pages
// when the page itself has no usable name.
var knownHosts = map[string]string{
	"help.prewave.com":     "Prewave Help Center",
	"docs.prewave.com":     "Prewave Docs",
	"www.prewave.com":      "Prewave",
	"prewave.com":          "Prewave",
	"services.prewave.ai":  "Prewave Platform",
	"knowledge.prewave.ai": "Prewave Knowledge Base",
}

var docExtensions = []string{".md", ".markdown", ".mdx", ".html", ".htm", ".txt"}

// InferSourceName derives a display label for a document source from its
// URL or file path. The last path element is used with its extension
// removed and separators turned into spaces; a URL with no path falls back
// to a known host label or the host itself.
//
// Examples:
//
//	https://help.prewave.com/articles/supplier-risk-score -> "Supplier Risk Score"
//	docs/alerts/alert_types.md                            -> "Alert Types"
//	https://help.prewave.com/                             -> "Prewave Help Center"
func InferSourceName(source string) string {
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		host := strings.ToLower(u.Hostname())
		if name := humanize(path.Base(strings.TrimRight(u.Path, "/"))); name != "" {
			return name
		}
		if label, ok := knownHosts[host]; ok {
			return label
		}
		return host
	}
	return humanize(filepath.Base(source))
}

// humanize turns "supplier-risk_score.md" into "Supplier Risk Score".
func humanize(base string) string {
	if base == "." || base == "/" {
		return ""
	}
	lower := strings.ToLower(base)
	for _, ext := range docExtensions {
		if strings.HasSuffix(lower, ext) {
			base = base[:len(base)-len(ext)]
			break
		}
	}
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == '+' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
