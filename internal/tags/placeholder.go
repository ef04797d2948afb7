package tags

import (
	"html"
	"regexp"
	"strings"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// CookieTypesToken is replaced by the required categories in placeholder text.
const CookieTypesToken = "%cookie_types"

var renewConsent = regexp.MustCompile(`(?s)\[renew_consent\](.*?)\[/renew_consent\]`)

// Placeholder renders the text shown in place of blocked content. The runtime
// only displays it while one of cats is still declined.
func Placeholder(text string, cats []pkg.Category) string {
	names := make([]string, len(cats))
	classes := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
		classes[i] = "cookieconsent-optout-" + string(c)
	}

	out := html.EscapeString(text)
	out = strings.ReplaceAll(out, CookieTypesToken, strings.Join(names, ", "))
	out = renewConsent.ReplaceAllString(out, `<a href="javascript:Cookiebot.renew()">$1</a>`)

	if len(classes) == 0 {
		return out
	}
	return `<div class="` + strings.Join(classes, " ") + `">` + out + `</div>`
}
