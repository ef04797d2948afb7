package integrations

import (
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// Integration describes a third-party tracking integration whose scripts are
// held back until consent. Integrations are plain data: which callback or
// script handle reveals them and which output patterns to block.
type Integration struct {
	// Name is the human readable integration name.
	Name string

	// Option is the configuration key for the integration.
	Option string

	// PluginFile is the path hint of the integration inside the host.
	PluginFile string

	// DefaultCategories gate the integration unless configuration overrides them.
	DefaultCategories []pkg.Category

	// EnabledByDefault applies when configuration does not mention the integration.
	EnabledByDefault bool

	// Callback is the name of the integration's own output callback, probed at
	// each render stage.
	Callback string

	// Patterns are the output substrings that identify the integration's scripts.
	Patterns []string

	// ScriptHandle is the script registration handle, when the integration
	// registers its script instead of printing it.
	ScriptHandle string

	// Priority orders the attached filter among others on the same stage.
	Priority int

	// Placeholder is shown in place of blocked content. %cookie_types is
	// replaced by the required categories.
	Placeholder string
}

// Catalog returns the built-in integrations in registration order.
func Catalog() []Integration {
	return []Integration{
		{
			Name:              "GA Google Analytics",
			Option:            "ga_google_analytics",
			PluginFile:        "ga-google-analytics/ga-google-analytics.php",
			DefaultCategories: []pkg.Category{pkg.CategoryStatistics},
			EnabledByDefault:  true,
			Callback:          "ga_google_analytics_tracking_code",
			Patterns: []string{
				"gtag(",
				"google-analytics",
				"_gaq",
				"www.googletagmanager.com/gtag/js?id=",
			},
			Priority:    10,
			Placeholder: "Please accept [renew_consent]%cookie_types[/renew_consent] cookies to enable analytics.",
		},
		{
			Name:              "Simple Share Buttons Adder",
			Option:            "simple_share_buttons_adder",
			PluginFile:        "simple-share-buttons-adder/simple-share-buttons-adder.php",
			DefaultCategories: []pkg.Category{pkg.CategoryMarketing},
			EnabledByDefault:  false,
			ScriptHandle:      "ssba-sharethis",
			Priority:          10,
			Placeholder:       "Please accept [renew_consent]%cookie_types[/renew_consent] cookies to Social Share buttons.",
		},
		{
			Name:              "Add To Any",
			Option:            "add_to_any",
			PluginFile:        "add-to-any/add-to-any.php",
			DefaultCategories: []pkg.Category{pkg.CategoryMarketing},
			EnabledByDefault:  true,
			ScriptHandle:      "addtoany",
			Callback:          "A2A_SHARE_SAVE_head_script",
			Patterns: []string{
				"static.addtoany.com/menu/page.js",
				"a2a_config",
			},
			Priority:    10,
			Placeholder: "Please accept [renew_consent]%cookie_types[/renew_consent] cookies to enable sharing.",
		},
		{
			Name:              "HubSpot Tracking Code",
			Option:            "hubspot_tracking_code",
			PluginFile:        "hubspot-tracking-code/hubspot-tracking-code.php",
			DefaultCategories: []pkg.Category{pkg.CategoryMarketing},
			EnabledByDefault:  true,
			Callback:          "hubspot_tracking_code",
			Patterns: []string{
				"js.hs-scripts.com",
				"hs-script-loader",
			},
			Priority:    10,
			Placeholder: "Please accept [renew_consent]%cookie_types[/renew_consent] cookies to enable tracking.",
		},
		{
			Name:              "Site Kit by Google",
			Option:            "google_site_kit",
			PluginFile:        "google-site-kit/google-site-kit.php",
			DefaultCategories: []pkg.Category{pkg.CategoryStatistics},
			EnabledByDefault:  false,
			ScriptHandle:      "google_gtagjs",
			Priority:          10,
			Placeholder:       "Please accept [renew_consent]%cookie_types[/renew_consent] cookies to enable analytics.",
		},
	}
}
