package tags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peteski22/consent-gate/internal/consent"
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

func TestUCScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "no cbid",
			opts: Options{UCAttribute: "async"},
			want: "",
		},
		{
			name: "output disabled",
			opts: Options{CBID: "abc", NoOutput: true},
			want: "",
		},
		{
			name: "manual async",
			opts: Options{CBID: "abc", Language: "da", BlockingMode: BlockingManual, UCAttribute: "async"},
			want: `<script id="Cookiebot" src="https://consent.cookiebot.com/uc.js" data-cbid="abc" data-culture="DA" type="text/javascript" async></script>` + "\n",
		},
		{
			name: "auto mode replaces loading attribute",
			opts: Options{CBID: "abc", BlockingMode: "AUTO", UCAttribute: "defer"},
			want: `<script id="Cookiebot" src="https://consent.cookiebot.com/uc.js" data-cbid="abc" type="text/javascript" data-blockingmode="auto"></script>` + "\n",
		},
		{
			name: "iab ccpa and data layer",
			opts: Options{CBID: "abc", IAB: true, CCPA: true, CCPADomainGroupID: "us", GTM: true},
			want: `<script id="Cookiebot" src="https://consent.cookiebot.com/uc.js" data-framework="IAB" data-georegions="{&#39;region&#39;:&#39;US-06&#39;,&#39;cbid&#39;:&#39;us&#39;}" data-layer-name="dataLayer" data-cbid="abc" type="text/javascript"></script>` + "\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, UCScript(tc.opts))
		})
	}
}

func TestDeclaration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DeclarationMissingID, Declaration(Options{}, "en"))

	o := Options{CBID: "abc", Language: "de", DeclarationAttribute: "async"}
	assert.Equal(t,
		`<script id="CookieDeclaration" src="https://consent.cookiebot.com/abc/cd.js" data-culture="DE" type="text/javascript" async></script>`,
		Declaration(o, ""),
	)
	assert.Contains(t, Declaration(o, "fr"), `data-culture="FR"`)
}

func TestGTM(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GTM(Options{GTMID: "GTM-1"}))

	out := GTM(Options{GTM: true, GTMID: "GTM-1", DataLayer: "myLayer"})
	assert.True(t, strings.HasPrefix(out, "<script>(function"))
	assert.Contains(t, out, "'script', 'myLayer', 'GTM-1'")
	assert.NotContains(t, out, "gtag_enable_tcf_support")

	out = GTM(Options{GTM: true, GTMID: "GTM-1", IAB: true})
	assert.Contains(t, out, `window["gtag_enable_tcf_support"] = true;`)
	assert.Contains(t, out, "'dataLayer'")

	out = GTM(Options{GTM: true, GTMID: "x');alert(1);//"})
	assert.Contains(t, out, `'x\');alert(1);//'`)

	out = GTM(Options{GTM: true, GTMID: "GTM-1</script><script>alert(1)//", DataLayer: "dl</script><img src=x>"})
	assert.Equal(t, 1, strings.Count(out, "</script>"))
	assert.Contains(t, out, `'dl\u003c/script\u003e\u003cimg src=x\u003e'`)
	assert.Contains(t, out, `'GTM-1\u003c/script\u003e\u003cscript\u003ealert(1)//'`)
}

func TestGCM(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GCM(Options{}))

	out := GCM(Options{GCM: true})
	assert.True(t, strings.HasPrefix(out, `<script data-cookieconsent="ignore">`))
	assert.Contains(t, out, `})(window,"denied","dataLayer");</script>`)
	assert.NotContains(t, out, "url_passthrough")

	out = GCM(Options{GCM: true, GCMURLPassthrough: true, DataLayer: "dl"})
	assert.Contains(t, out, `gtag("set", "url_passthrough", true);`)
	assert.Contains(t, out, `"denied","dl")`)

	out = GCM(Options{GCM: true, DataLayer: "dl</script><img src=x onerror=alert(1)>"})
	assert.Equal(t, 1, strings.Count(out, "</script>"))
	assert.Contains(t, out, `"denied","dl\u003c/script\u003e\u003cimg src=x onerror=alert(1)\u003e")`)
}

func TestAssist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cats []pkg.Category
		want string
	}{
		{name: "none", want: ""},
		{name: "necessary only", cats: []pkg.Category{pkg.CategoryNecessary}, want: ""},
		{
			name: "statistics",
			cats: []pkg.Category{pkg.CategoryStatistics},
			want: ` type="text/plain" data-cookieconsent="statistics"`,
		},
		{
			name: "filters and orders",
			cats: []pkg.Category{pkg.CategoryMarketing, pkg.CategoryNecessary, pkg.CategoryPreferences},
			want: ` type="text/plain" data-cookieconsent="preferences,marketing"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Assist(tc.cats...))
		})
	}
}

func TestConsentAPIMapping(t *testing.T) {
	t.Parallel()

	out, err := ConsentAPIMapping(map[string]consent.Flags{
		"n=1;p=0;s=0;m=0": {},
		"n=1;p=1;s=1;m=1": {Preferences: true, Statistics: true, StatisticsAnonymous: true, Marketing: true},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`<script id="cookiebot-consent-api-mapping" data-cookieconsent="ignore">var cookiebot_category_mapping = `+
			`{"n=1;p=0;s=0;m=0":{"preferences":false,"statistics":false,"statistics-anonymous":false,"marketing":false},`+
			`"n=1;p=1;s=1;m=1":{"preferences":true,"statistics":true,"statistics-anonymous":true,"marketing":true}};</script>`+"\n",
		out,
	)
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	out := Placeholder(
		"Please accept [renew_consent]%cookie_types[/renew_consent] cookies to <watch>.",
		[]pkg.Category{pkg.CategoryStatistics, pkg.CategoryMarketing},
	)
	assert.Equal(t,
		`<div class="cookieconsent-optout-statistics cookieconsent-optout-marketing">`+
			`Please accept <a href="javascript:Cookiebot.renew()">statistics, marketing</a> cookies to &lt;watch&gt;.</div>`,
		out,
	)

	out = Placeholder(
		"Please [renew_consent]accept\n%cookie_types cookies[/renew_consent].",
		[]pkg.Category{pkg.CategoryPreferences},
	)
	assert.Equal(t,
		`<div class="cookieconsent-optout-preferences">`+
			"Please <a href=\"javascript:Cookiebot.renew()\">accept\npreferences cookies</a>.</div>",
		out,
	)

	assert.Equal(t, "plain", Placeholder("plain", nil))
}
