package crawl

import (
	"net/url"
	"path"
	"strings"
)

// assetExtensions never hold HTML worth rewriting.
var assetExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".webp": {}, ".ico": {}, ".bmp": {},
	".css": {}, ".js": {}, ".mjs": {}, ".json": {}, ".xml": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {},
	".mp4": {}, ".webm": {}, ".mp3": {}, ".wav": {},
	".zip": {}, ".tar": {}, ".gz": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
}

// IsSameHost reports whether rawURL is on host. A leading "www." is ignored
// on both sides, so yale.edu and www.yale.edu count as one site.
func IsSameHost(rawURL, host string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(trimWWW(u.Host), trimWWW(host))
}

func trimWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// IsStaticAsset reports whether rawURL points at a non-HTML resource.
func IsStaticAsset(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	_, ok := assetExtensions[strings.ToLower(path.Ext(u.Path))]
	return ok
}

// NormalizeURL drops the fragment and any trailing slash except the root's.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}
