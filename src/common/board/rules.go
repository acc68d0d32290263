package board

import "github.com/jack-barr3tt/board-proxy/src/common/types"

// Rules describe how an upstream page is stripped down to the board itself.
type Rules struct {
	// Remove lists selectors whose elements are dropped from the tree.
	Remove []string
	// ChromePatterns drop any element whose class or id contains one of them.
	ChromePatterns []string
	// Hide lists selectors forced to display:none by the injected style.
	Hide []string
	// ProviderHide adds provider-specific selectors to Hide.
	ProviderHide map[types.ProviderType][]string
}

func DefaultRules() Rules {
	return Rules{
		Remove:         []string{"header", "footer", "nav"},
		ChromePatterns: []string{"cookie", "consent", "gdpr", "privacy-banner", "advert", "banner-ad"},
		Hide: []string{
			"header", "footer", ".header", ".footer", ".navigation", ".nav", ".menu",
			".cookie-consent", ".cookie-banner", ".cookie-notice", ".gdpr-banner",
			".advertisement", ".ads", ".sidebar", ".breadcrumb", ".breadcrumbs",
			".search-bar", ".login", ".sign-in", ".user-menu",
			"#header", "#footer", "#navigation", "#cookie-consent", "#cookie-banner",
			`[class*="cookie"]`, `[id*="cookie"]`, `[class*="gdpr"]`,
			`[class*="privacy-banner"]`, `[class*="consent"]`,
		},
		ProviderHide: map[types.ProviderType][]string{
			types.ProviderRFI:          {".top-bar", ".main-navigation", ".footer-links"},
			types.ProviderDB:           {".header-wrapper", ".footer-wrapper", ".db-navigation"},
			types.ProviderNS:           {".ns-header", ".ns-footer", ".ns-navigation"},
			types.ProviderNationalRail: {".nr-header", ".nr-footer"},
			types.ProviderSNCF:         {".sncf-header", ".sncf-footer"},
		},
	}
}

// HideSelectors returns the common selectors followed by the provider's own.
func (r Rules) HideSelectors(provider types.ProviderType) []string {
	out := make([]string, 0, len(r.Hide)+len(r.ProviderHide[provider]))
	out = append(out, r.Hide...)
	return append(out, r.ProviderHide[provider]...)
}
