package tags

import (
	"encoding/json"
	"fmt"

	"github.com/peteski22/consent-gate/internal/consent"
	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

// MappingVariable is the global the browser-side consent API bridge reads.
const MappingVariable = "cookiebot_category_mapping"

// ConsentAPIMapping returns an inline script that exposes the merged
// signature mapping to the browser.
func ConsentAPIMapping(mapping map[string]consent.Flags) (string, error) {
	// encoding/json escapes <, > and & so the payload cannot close the element.
	data, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("encoding consent mapping: %w", err)
	}

	return fmt.Sprintf(
		"<script id=\"cookiebot-consent-api-mapping\" %s=\"%s\">var %s = %s;</script>\n",
		pkg.AttrConsent, pkg.ConsentIgnore, MappingVariable, data,
	), nil
}
