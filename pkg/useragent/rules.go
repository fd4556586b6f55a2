package useragent

import (
	"regexp"
	"strings"
)

const (
	DeviceBot     = "bot"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceTV      = "tv"
	DeviceConsole = "console"
	DeviceUnknown = "unknown"
)

const (
	OSWindows  = "windows"
	OSMacOS    = "macos"
	OSiOS      = "ios"
	OSAndroid  = "android"
	OSLinux    = "linux"
	OSChromeOS = "chromeos"
	OSUnknown  = "unknown"
)

const (
	BrowserChrome  = "chrome"
	BrowserFirefox = "firefox"
	BrowserSafari  = "safari"
	BrowserEdge    = "edge"
	BrowserOpera   = "opera"
	BrowserSamsung = "samsung"
	BrowserYandex  = "yandex"
	BrowserIE      = "ie"
	BrowserUnknown = "unknown"
)

type keywords []string

func (k keywords) in(s string) bool {
	for _, w := range k {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var (
	botWords        = keywords{"bot", "spider", "crawler", "slurp", "archiver", "facebookexternalhit", "lighthouse", "monitor", "fetcher", "scraper"}
	automationWords = keywords{"headlesschrome", "phantomjs", "puppeteer", "playwright", "selenium", "webdriver", "python-requests", "python-urllib", "curl/", "wget/", "go-http-client", "okhttp", "node-fetch", "axios/"}
	tvWords         = keywords{"smart-tv", "smarttv", "googletv", "appletv", "android tv", "webos", "tizen"}
	consoleWords    = keywords{"playstation", "xbox", "nintendo"}
	tabletWords     = keywords{"ipad", "tablet", "kindle", "silk"}
	mobileWords     = keywords{"mobile", "iphone", "ipod", "windows phone", "blackberry"}
	desktopWords    = keywords{"windows", "macintosh", "mac os x", "x11", "linux", "cros"}
)

type osRule struct {
	name  string
	words keywords
}

// Order matters: iOS before macOS, Android before Linux.
var osRules = []osRule{
	{OSWindows, keywords{"windows"}},
	{OSiOS, keywords{"iphone", "ipad", "ipod"}},
	{OSMacOS, keywords{"macintosh", "mac os x"}},
	{OSAndroid, keywords{"android"}},
	{OSChromeOS, keywords{"cros", "chromeos"}},
	{OSLinux, keywords{"linux", "x11"}},
}

type browserRule struct {
	name     string
	requires keywords
	excludes keywords
	version  *regexp.Regexp
}

// Chromium derivatives first, Chrome before Safari.
var browserRules = []browserRule{
	{BrowserEdge, keywords{"edg/", "edge/", "edga/", "edgios/"}, nil, regexp.MustCompile(`(?:edge|edg|edga|edgios)/([\d.]+)`)},
	{BrowserOpera, keywords{"opr/", "opera"}, nil, regexp.MustCompile(`(?:opr|opera)[/ ]([\d.]+)`)},
	{BrowserSamsung, keywords{"samsungbrowser"}, nil, regexp.MustCompile(`samsungbrowser/([\d.]+)`)},
	{BrowserYandex, keywords{"yabrowser"}, nil, regexp.MustCompile(`yabrowser/([\d.]+)`)},
	{BrowserChrome, keywords{"chrome/", "crios/", "headlesschrome/"}, nil, regexp.MustCompile(`(?:headlesschrome|chrome|crios)/([\d.]+)`)},
	{BrowserFirefox, keywords{"firefox/", "fxios/"}, nil, regexp.MustCompile(`(?:firefox|fxios)/([\d.]+)`)},
	{BrowserSafari, keywords{"safari/"}, keywords{"chrome", "chromium", "android"}, regexp.MustCompile(`version/([\d.]+)`)},
	{BrowserIE, keywords{"msie ", "trident/"}, nil, regexp.MustCompile(`(?:msie |rv:)([\d.]+)`)},
}

var botNamePattern = regexp.MustCompile(`([a-z0-9_-]*(?:bot|spider|crawler))`)

const maxVersionLength = 20
