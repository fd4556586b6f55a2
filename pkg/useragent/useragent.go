package useragent

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Summary is the parsed form of a User-Agent header.
type Summary struct {
	DeviceType     string `json:"device_type" bson:"device_type"`
	OS             string `json:"os" bson:"os"`
	Browser        string `json:"browser" bson:"browser"`
	BrowserVersion string `json:"browser_version,omitempty" bson:"browser_version,omitempty"`
	IsBot          bool   `json:"is_bot" bson:"is_bot"`
	BotName        string `json:"bot_name,omitempty" bson:"bot_name,omitempty"`
	// Automation is set for headless browsers, drivers and HTTP libraries.
	Automation bool `json:"automation" bson:"automation"`
}

var titleCaser = cases.Title(language.English)

// Parse classifies ua. An empty or unrecognisable agent yields a summary
// with every field set to unknown.
func Parse(ua string) Summary {
	lower := strings.ToLower(strings.TrimSpace(ua))
	s := Summary{
		DeviceType: DeviceUnknown,
		OS:         OSUnknown,
		Browser:    BrowserUnknown,
	}
	if lower == "" {
		return s
	}

	s.Automation = automationWords.in(lower)
	s.OS = parseOS(lower)
	s.Browser, s.BrowserVersion = parseBrowser(lower)

	if botWords.in(lower) {
		s.IsBot = true
		s.DeviceType = DeviceBot
		s.BotName = botName(lower)
		return s
	}
	s.DeviceType = parseDevice(lower)
	return s
}

func parseDevice(ua string) string {
	switch {
	case strings.Contains(ua, "ipad"):
		return DeviceTablet
	case strings.Contains(ua, "iphone"):
		return DeviceMobile
	case strings.Contains(ua, "android"):
		if strings.Contains(ua, "mobile") {
			return DeviceMobile
		}
		return DeviceTablet
	case tvWords.in(ua):
		return DeviceTV
	case consoleWords.in(ua):
		return DeviceConsole
	case tabletWords.in(ua):
		return DeviceTablet
	case mobileWords.in(ua):
		return DeviceMobile
	case desktopWords.in(ua):
		return DeviceDesktop
	}
	return DeviceUnknown
}

func parseOS(ua string) string {
	for _, r := range osRules {
		if r.words.in(ua) {
			return r.name
		}
	}
	return OSUnknown
}

func parseBrowser(ua string) (string, string) {
	for _, r := range browserRules {
		if !r.requires.in(ua) || r.excludes.in(ua) {
			continue
		}
		version := ""
		if m := r.version.FindStringSubmatch(ua); len(m) > 1 {
			version = m[1]
			if len(version) > maxVersionLength {
				version = version[:maxVersionLength]
			}
		}
		return r.name, version
	}
	return BrowserUnknown, ""
}

func botName(ua string) string {
	m := botNamePattern.FindStringSubmatch(ua)
	if len(m) < 2 || m[1] == "" {
		return "Unknown Bot"
	}
	return titleCaser.String(m[1])
}
