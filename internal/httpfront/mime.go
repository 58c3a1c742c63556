package httpfront

import (
	"path"
	"strings"
)

// mimeType derives a content-type from a request-target's extension, for
// HEAD responses. Extension-less targets fall through to the
// "application/text" default, which is what every resource this server
// actually exposes reports on a HEAD.
func mimeType(target string) string {
	switch strings.ToLower(path.Ext(target)) {
	case ".htm", ".html", ".php":
		return "text/html"
	case ".css":
		return "text/css"
	case ".txt":
		return "text/plain"
	case ".js":
		return "application/javascript"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	case ".png":
		return "image/png"
	case ".jpe", ".jpeg", ".jpg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".ico":
		return "image/vnd.microsoft.icon"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".svg", ".svgz":
		return "image/svg+xml"
	default:
		return "application/text"
	}
}
