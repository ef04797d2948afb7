package tags

import (
	"fmt"
	"html"
	"strings"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// DeclarationMissingID is shown in place of the cookie declaration when no
// domain group ID is configured.
const DeclarationMissingID = "Please add your Cookiebot ID to show Cookie Declarations"

// UCScript returns the consent runtime tag, or an empty string when output is
// disabled or no CBID is configured.
func UCScript(o Options) string {
	if o.NoOutput || strings.TrimSpace(o.CBID) == "" {
		return ""
	}

	attrs := pkg.Attributes{
		{Key: "id", Val: "Cookiebot"},
		{Key: "src", Val: ConsentHost + "/uc.js"},
	}
	if o.IAB {
		attrs = append(attrs, pkg.Attr{Key: "data-framework", Val: "IAB"})
	}
	if o.CCPA {
		attrs = append(attrs, pkg.Attr{
			Key: "data-georegions",
			Val: fmt.Sprintf("{'region':'US-06','cbid':'%s'}", o.CCPADomainGroupID),
		})
	}
	if o.GTM {
		attrs = append(attrs, pkg.Attr{Key: "data-layer-name", Val: o.dataLayer()})
	}
	attrs = append(attrs, pkg.Attr{Key: "data-cbid", Val: o.CBID})
	attrs = withCulture(attrs, o.Language)
	attrs = append(attrs, pkg.Attr{Key: pkg.AttrType, Val: "text/javascript"})

	switch {
	case o.auto():
		attrs = append(attrs, pkg.Attr{Key: "data-blockingmode", Val: BlockingAuto})
	case o.UCAttribute != "":
		attrs = append(attrs, pkg.Attr{Key: o.UCAttribute})
	}

	return "<script" + attrs.String() + "></script>\n"
}

// Declaration returns the cookie declaration tag. lang overrides the
// configured language when non-empty.
func Declaration(o Options, lang string) string {
	if strings.TrimSpace(o.CBID) == "" {
		return html.EscapeString(DeclarationMissingID)
	}
	if lang == "" {
		lang = o.Language
	}

	attrs := pkg.Attributes{
		{Key: "id", Val: "CookieDeclaration"},
		{Key: "src", Val: ConsentHost + "/" + o.CBID + "/cd.js"},
	}
	attrs = withCulture(attrs, lang)
	attrs = append(attrs, pkg.Attr{Key: pkg.AttrType, Val: "text/javascript"})
	if o.DeclarationAttribute != "" {
		attrs = append(attrs, pkg.Attr{Key: o.DeclarationAttribute})
	}

	return "<script" + attrs.String() + "></script>"
}

// GTM returns the Google Tag Manager loader, or an empty string when disabled.
func GTM(o Options) string {
	if !o.GTM {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("<script>")
	if o.IAB {
		sb.WriteString(`window["gtag_enable_tcf_support"] = true;`)
	}
	fmt.Fprintf(&sb, `(function (w, d, s, l, i) {
w[l] = w[l] || []; w[l].push({'gtm.start':new Date().getTime(), event: 'gtm.js'});
var f = d.getElementsByTagName(s)[0], j = d.createElement(s), dl = l != 'dataLayer' ? '&l=' + l : '';
j.async = true; j.src = 'https://www.googletagmanager.com/gtm.js?id=' + i + dl;
f.parentNode.insertBefore(j, f);})
(window, document, 'script', '%s', '%s');`, jsString(o.dataLayer()), jsString(o.GTMID))
	sb.WriteString("</script>\n")
	return sb.String()
}

// GCM returns the Google Consent Mode defaults snippet, or an empty string
// when disabled. The snippet itself is exempt from blocking.
func GCM(o Options) string {
	if !o.GCM {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<script ` + pkg.AttrConsent + `="` + pkg.ConsentIgnore + `">` + "\n")
	sb.WriteString(`(function(w,d,l){w[l]=w[l]||[];function gtag(){w[l].push(arguments)};` + "\n")
	sb.WriteString(`gtag("consent","default",{ad_storage:d,analytics_storage:d,wait_for_update:500,});` + "\n")
	sb.WriteString(`gtag("set", "ads_data_redaction", true);`)
	if o.GCMURLPassthrough {
		sb.WriteString("\n" + `gtag("set", "url_passthrough", true);`)
	}
	fmt.Fprintf(&sb, `})(window,"denied","%s");`, jsString(o.dataLayer()))
	sb.WriteString("</script>\n")
	return sb.String()
}

// Assist returns the attribute fragment that makes an inline script wait for
// the given categories. Only preferences, statistics and marketing qualify;
// with none left the result is empty.
func Assist(cats ...pkg.Category) string {
	var kept []pkg.Category
	for _, c := range pkg.NormalizeCategories(cats) {
		switch c {
		case pkg.CategoryPreferences, pkg.CategoryStatistics, pkg.CategoryMarketing:
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return pkg.Attributes{
		{Key: pkg.AttrType, Val: pkg.InertType},
		{Key: pkg.AttrConsent, Val: pkg.JoinCategories(kept)},
	}.String()
}

func withCulture(attrs pkg.Attributes, lang string) pkg.Attributes {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return attrs
	}
	return append(attrs, pkg.Attr{Key: "data-culture", Val: strings.ToUpper(lang)})
}

// jsString escapes s for use inside a single or double quoted JS string
// literal embedded in a script element.
func jsString(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`"`, `\"`,
		"<", `\u003c`,
		">", `\u003e`,
		"&", `\u0026`,
		"\n", `\n`,
		"\r", `\r`,
	)
	return r.Replace(s)
}
