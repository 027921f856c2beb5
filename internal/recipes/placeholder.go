package recipes

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	placeholderTitleLimit = 20
	placeholderCaption    = "Custom Recipe"
	placeholderPrefix     = "data:image/svg+xml;base64,"
)

// IsPlaceholder reports whether the image value is a generated placeholder
// rather than a stored image.
func IsPlaceholder(image string) bool {
	return strings.HasPrefix(image, placeholderPrefix)
}

var svgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Placeholder renders a deterministic vector graphic for recipes without a
// stored image and returns it as a self-contained data URI. The title is
// truncated to keep the text inside the fixed 300x180 layout.
func Placeholder(title string) string {
	runes := []rune(title)
	if len(runes) > placeholderTitleLimit {
		runes = runes[:placeholderTitleLimit]
	}
	escaped := svgEscaper.Replace(string(runes))

	svg := fmt.Sprintf(`<svg width="300" height="180" viewBox="0 0 300 180" fill="none" xmlns="http://www.w3.org/2000/svg">
<rect width="300" height="180" fill="#F5F5DC"/>
<circle cx="150" cy="90" r="40" fill="#D2691E"/>
<text x="150" y="100" font-family="Georgia, serif" font-size="16" fill="#8B4513" text-anchor="middle" font-weight="bold">%s</text>
<text x="150" y="160" font-family="Georgia, serif" font-size="12" fill="#8B4513" text-anchor="middle" font-style="italic">%s</text>
</svg>`, escaped, placeholderCaption)

	return placeholderPrefix + base64.StdEncoding.EncodeToString([]byte(svg))
}
