package tags

import "strings"

const (
	// BlockingAuto lets the consent runtime block cookies automatically.
	BlockingAuto = "auto"

	// BlockingManual relies on marked up scripts and registered rules.
	BlockingManual = "manual"

	// DefaultDataLayer is the data layer name used when none is configured.
	DefaultDataLayer = "dataLayer"

	// ConsentHost serves the consent runtime scripts.
	ConsentHost = "https://consent.cookiebot.com"
)

// Options control the consent tags emitted into a page.
type Options struct {
	// CBID is the consent domain group ID. Without it no runtime tag is emitted.
	CBID string

	// Language sets data-culture; empty lets the runtime detect it.
	Language string

	// BlockingMode is BlockingAuto or BlockingManual.
	BlockingMode string

	// UCAttribute is the loading attribute of uc.js (async, defer or empty).
	UCAttribute string

	// DeclarationAttribute is the loading attribute of cd.js.
	DeclarationAttribute string

	// NoOutput suppresses the uc.js tag entirely.
	NoOutput bool

	IAB  bool
	CCPA bool

	// CCPADomainGroupID is the domain group used for the US-06 region.
	CCPADomainGroupID string

	GTM   bool
	GTMID string

	// DataLayer names the Google data layer shared by GTM and GCM.
	DataLayer string

	GCM               bool
	GCMURLPassthrough bool
}

func (o Options) dataLayer() string {
	if dl := strings.TrimSpace(o.DataLayer); dl != "" {
		return dl
	}
	return DefaultDataLayer
}

func (o Options) auto() bool {
	return strings.EqualFold(o.BlockingMode, BlockingAuto)
}
