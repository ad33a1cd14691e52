package goquery

import "strings"

// Rule groups. A rule named "<group>" or "<group>.<suffix>" belongs to the
// group; ParseOptions.RemoveAds gates GroupAds and
// ParseOptions.RemoveNavigation gates GroupNavigation. Rules in any other
// group are always applied.
const (
	GroupAds        = "ads"
	GroupNavigation = "navigation"
	GroupNoise      = "noise"
)

// DefaultRules returns the generic cleaning rules, mapping rule name to the
// CSS selector of elements removed together with their subtree.
func DefaultRules() map[string]string {
	return map[string]string{
		GroupNoise: "script, style, noscript, template, iframe, svg, canvas, input, select, textarea, button",
		GroupAds: `[class~="ad"], [class~="ads"], [class^="ad-"], [class*=" ad-"], [class^="ad_"], [class*=" ad_"], ` +
			`[class*="advertisement"], [class*="banner"], [id^="ad-"], ins.adsbygoogle`,
		GroupNavigation: `nav, header, footer, [role="navigation"], [class~="nav"], [class~="menu"], ` +
			`[class~="sidebar"], [class~="navigation"]`,
	}
}

// NaverRules returns DefaultRules extended with Naver blog markup: ad slots,
// engagement widgets and post footers.
func NaverRules() map[string]string {
	rules := DefaultRules()
	rules[GroupAds+".naver"] = `[class*="area_ad"], [class*="ad_area"], [class*="revenue_unit"], [class*="adpost"]`
	rules[GroupNoise+".naver"] = `.se-oglink-info-container, .post_footer_contents, .wrap_postcomment, ` +
		`.area_sympathy, .btn_sympathy, .wrap_tag, .se-module-map-text, .post-btn`
	return rules
}

// NaverContentSelectors are the Naver blog body containers in priority order:
// SmartEditor ONE, SmartEditor 2, then the legacy viewer.
var NaverContentSelectors = []string{
	".se-main-container",
	".se_component_wrap.sect_dsc",
	"#postViewArea",
	".post-view",
}

// NaverTitleSelectors locate the post title across editor versions.
var NaverTitleSelectors = []string{
	".se-title-text",
	".se_title .se_textarea",
	".pcol1 .htitle",
}

// genericContentSelectors are tried after any caller-supplied containers.
var genericContentSelectors = []string{
	"main",
	"article",
	"#content",
	".content",
	".post-content",
	".post",
}

func ruleGroup(name string) string {
	group, _, _ := strings.Cut(name, ".")
	return group
}
